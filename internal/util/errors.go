package util

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid tenant code or secret")
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrTenantExists       = errors.New("tenant code already exists")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrCapacityExceeded   = errors.New("group capacity exceeded")

	ErrGroupNotFound    = errors.New("group not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrCategoryNotFound = errors.New("category not found in template")

	ErrTemplateInUse         = errors.New("template is still referenced by students")
	ErrTemplateLimit         = errors.New("template limit reached")
	ErrDefaultTemplateLocked = errors.New("the default template cannot be changed")

	ErrFinalGradeExists   = errors.New("final grade already set")
	ErrInsufficientGrades = errors.New("not enough graded categories for an average")

	// 存储层
	ErrDocumentNotFound = errors.New("document not found")
	ErrCorruptDocument  = errors.New("stored document is not an object")
	ErrStoreUnavailable = errors.New("document store unavailable")
)

// ValidationError 输入形状或取值范围错误，直接返回给调用方，不重试
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// StoreUnavailableError 可恢复的 I/O 失败，调用方可原样重试
type StoreUnavailableError struct {
	Op     string
	Tenant string
	Err    error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Tenant, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrTenantNotFound) ||
		errors.Is(err, ErrGroupNotFound) ||
		errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}
