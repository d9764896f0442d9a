package service

import (
	"context"
	"strings"
	"time"

	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/telemetry"
)

// PredicateStore is the storage surface for predicate devices.
type PredicateStore interface {
	Create(ctx context.Context, p *domain.PredicateDevice) error
	GetByKNumber(ctx context.Context, kNumber string) (*domain.PredicateDevice, error)
}

// CreatePredicateInput carries the fields of a new predicate device record.
type CreatePredicateInput struct {
	KNumber           string
	DeviceName        string
	Manufacturer      string
	IndicationsForUse string
	Technology        string
	ClearedAt         *time.Time
}

// PredicateService manages the predicate device registry consulted during
// generation.
type PredicateService struct {
	repo    PredicateStore
	uuidGen UUIDGenerator
}

func NewPredicateService(repo PredicateStore) *PredicateService {
	return &PredicateService{repo: repo, uuidGen: &DefaultUUIDGenerator{}}
}

// Create registers a predicate device. K-numbers are stored uppercase so
// lookups are case-insensitive.
func (s *PredicateService) Create(ctx context.Context, input CreatePredicateInput) (*domain.PredicateDevice, error) {
	ctx, span := telemetry.StartSpan(ctx, "PredicateService.Create", telemetry.SpanAttributes{
		Operation: "create",
	})
	defer span.End()

	kNumber := strings.ToUpper(strings.TrimSpace(input.KNumber))
	if kNumber == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "k_number is required")
	}
	if input.DeviceName == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "device_name is required")
	}

	if _, err := s.repo.GetByKNumber(ctx, kNumber); err == nil {
		return nil, domain.NewDomainError(domain.ErrCodeAlreadyExists, "predicate device already registered")
	}

	p := &domain.PredicateDevice{
		ID:                s.uuidGen.NewString(),
		KNumber:           kNumber,
		DeviceName:        input.DeviceName,
		Manufacturer:      input.Manufacturer,
		IndicationsForUse: input.IndicationsForUse,
		Technology:        input.Technology,
		ClearedAt:         input.ClearedAt,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		span.SetError(err)
		return nil, err
	}
	return p, nil
}

// GetByKNumber returns a predicate device or domain.ErrPredicateNotFound.
func (s *PredicateService) GetByKNumber(ctx context.Context, kNumber string) (*domain.PredicateDevice, error) {
	ctx, span := telemetry.StartSpan(ctx, "PredicateService.GetByKNumber", telemetry.SpanAttributes{
		Operation: "get",
	})
	defer span.End()

	return s.repo.GetByKNumber(ctx, strings.ToUpper(strings.TrimSpace(kNumber)))
}
