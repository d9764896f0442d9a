package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrInvalidContentType      = NewDomainError(ErrCodeValidation, "invalid knowledge content type")
	ErrInvalidSection          = NewDomainError(ErrCodeValidation, "invalid knowledge section")
	ErrInvalidSubmissionType   = NewDomainError(ErrCodeValidation, "invalid submission type")
	ErrInvalidSubmissionStatus = NewDomainError(ErrCodeValidation, "invalid submission status")
	ErrInvalidSearchQuery      = NewDomainError(ErrCodeValidation, "search query too short")
	ErrInvalidSearchLimit      = NewDomainError(ErrCodeValidation, "search limit must be between 1 and 20")
	ErrMissingRequiredField    = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrSubmissionNotFound = NewDomainError(ErrCodeNotFound, "submission not found")
	ErrKnowledgeNotFound  = NewDomainError(ErrCodeNotFound, "knowledge entry not found")
	ErrPredicateNotFound  = NewDomainError(ErrCodeNotFound, "predicate device not found")
	ErrDocumentNotFound   = NewDomainError(ErrCodeNotFound, "document not found")
)

// Already exists errors
var (
	ErrKnowledgeBaseSeeded  = NewDomainError(ErrCodeAlreadyExists, "knowledge base already seeded")
	ErrKnowledgeTitleExists = NewDomainError(ErrCodeAlreadyExists, "knowledge entry with this title already exists")
)

// Operation errors
var (
	ErrGenerationInProgress = NewDomainError(ErrCodeInvalidOperation, "generation already in progress for this submission")
	ErrPersistenceFailure   = NewDomainError(ErrCodeInternalError, "failed to persist generation result")
)
