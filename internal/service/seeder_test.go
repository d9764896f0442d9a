package service

import (
	"context"
	"errors"
	"testing"

	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/embedding"
	"github.com/claritymed/regpilot/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockKnowledgeRepository struct {
	mock.Mock
}

func (m *MockKnowledgeRepository) Create(ctx context.Context, k *domain.KnowledgeEntry) error {
	args := m.Called(ctx, k)
	return args.Error(0)
}

func (m *MockKnowledgeRepository) GetByTitle(ctx context.Context, title string) (*domain.KnowledgeEntry, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeEntry), args.Error(1)
}

func (m *MockKnowledgeRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockKnowledgeRepository) Stats(ctx context.Context) (*KnowledgeStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*KnowledgeStats), args.Error(1)
}

func (m *MockKnowledgeRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int, section domain.Section, contentType domain.ContentType) (*KnowledgePageResult, error) {
	args := m.Called(ctx, cursor, limit, section, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*KnowledgePageResult), args.Error(1)
}

func (m *MockKnowledgeRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func mockEmbedder() Embedder {
	return &stubEmbedder{vec: make([]float32, embedding.Dimensions), backend: embedding.MockBackendName}
}

func TestKnowledgeSeeder_SeedsFullCorpus(t *testing.T) {
	repo := new(MockKnowledgeRepository)
	seeder := NewKnowledgeSeeder(repo, mockEmbedder())

	repo.On("Count", mock.Anything).Return(int64(0), nil)
	repo.On("GetByTitle", mock.Anything, mock.Anything).Return(nil, domain.ErrKnowledgeNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(k *domain.KnowledgeEntry) bool {
		return k.ID != "" && k.Title != "" && len(k.Embedding) == embedding.Dimensions
	})).Return(nil)

	inserted, err := seeder.Seed(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, len(RegulatoryCorpus()), inserted)
	repo.AssertNumberOfCalls(t, "Create", len(RegulatoryCorpus()))
}

func TestKnowledgeSeeder_AlreadySeeded(t *testing.T) {
	repo := new(MockKnowledgeRepository)
	seeder := NewKnowledgeSeeder(repo, mockEmbedder())

	repo.On("Count", mock.Anything).Return(int64(16), nil)

	inserted, err := seeder.Seed(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrKnowledgeBaseSeeded)
	assert.Zero(t, inserted)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestKnowledgeSeeder_ForceSkipsExistingTitles(t *testing.T) {
	repo := new(MockKnowledgeRepository)
	seeder := NewKnowledgeSeeder(repo, mockEmbedder())

	corpus := RegulatoryCorpus()
	existing := corpus[0].Title

	repo.On("GetByTitle", mock.Anything, existing).
		Return(&domain.KnowledgeEntry{ID: "existing", Title: existing}, nil)
	repo.On("GetByTitle", mock.Anything, mock.Anything).
		Return(nil, domain.ErrKnowledgeNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	inserted, err := seeder.Seed(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, len(corpus)-1, inserted)
	repo.AssertNotCalled(t, "Count", mock.Anything)
}

func TestKnowledgeSeeder_InsertFailureSkipsRow(t *testing.T) {
	repo := new(MockKnowledgeRepository)
	seeder := NewKnowledgeSeeder(repo, mockEmbedder())

	corpus := RegulatoryCorpus()
	bad := corpus[0].Title

	repo.On("Count", mock.Anything).Return(int64(0), nil)
	repo.On("GetByTitle", mock.Anything, mock.Anything).Return(nil, domain.ErrKnowledgeNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(k *domain.KnowledgeEntry) bool {
		return k.Title == bad
	})).Return(errors.New("insert failed"))
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	inserted, err := seeder.Seed(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, len(corpus)-1, inserted)
}

func TestKnowledgeSeeder_LookupErrorAborts(t *testing.T) {
	repo := new(MockKnowledgeRepository)
	seeder := NewKnowledgeSeeder(repo, mockEmbedder())

	repo.On("Count", mock.Anything).Return(int64(0), nil)
	repo.On("GetByTitle", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	inserted, err := seeder.Seed(context.Background(), false)
	assert.Error(t, err)
	assert.Zero(t, inserted)
}

func TestRegulatoryCorpus_WellFormed(t *testing.T) {
	corpus := RegulatoryCorpus()
	require.Len(t, corpus, 16)

	titles := make(map[string]struct{}, len(corpus))
	for _, c := range corpus {
		assert.NotEmpty(t, c.Title)
		assert.NotEmpty(t, c.Content)
		assert.True(t, domain.IsValidContentType(c.ContentType), "content type %q", c.ContentType)
		assert.True(t, domain.IsValidSection(c.Section), "section %q", c.Section)

		_, dup := titles[c.Title]
		assert.False(t, dup, "duplicate title %q", c.Title)
		titles[c.Title] = struct{}{}
	}
}
