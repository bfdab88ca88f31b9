package domain

import "fmt"

// Error types for consistent error handling across the API.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrConflict indicates a resource already exists (e.g. duplicate email).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrAccountDisabled indicates the user account was deactivated.
type ErrAccountDisabled struct{}

func (e *ErrAccountDisabled) Error() string {
	return "Conta desativada"
}

// ErrQuotaExceeded indicates the user hit the monthly quote limit of their plan.
type ErrQuotaExceeded struct {
	Plan  string
	Limit int
	Used  int
}

func (e *ErrQuotaExceeded) Error() string {
	return fmt.Sprintf("Limite de orçamentos do plano %s atingido (%d/%d). Faça upgrade do plano", e.Plan, e.Used, e.Limit)
}

// ErrFileNotFound indicates the uploaded file could not be located on disk.
type ErrFileNotFound struct {
	Path string
}

func (e *ErrFileNotFound) Error() string {
	return fmt.Sprintf("arquivo não encontrado: %s", e.Path)
}

// ErrUnsupportedFormat indicates a file extension outside the accepted set.
type ErrUnsupportedFormat struct {
	Extension string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("formato de arquivo não suportado: %s", e.Extension)
}

// ErrReadFailure indicates the file exists but could not be read or decoded.
type ErrReadFailure struct {
	Path string
	Err  error
}

func (e *ErrReadFailure) Error() string {
	return fmt.Sprintf("falha na leitura do arquivo %s: %v", e.Path, e.Err)
}

func (e *ErrReadFailure) Unwrap() error {
	return e.Err
}

// ErrNoBillableComponents indicates an analysis with no priceable furniture,
// which is distinct from a parse failure: the file was read fine, but every
// component was filtered out or has zero area.
type ErrNoBillableComponents struct {
	AnalysisID string
}

func (e *ErrNoBillableComponents) Error() string {
	return fmt.Sprintf("nenhum componente de marcenaria encontrado na análise %s", e.AnalysisID)
}

// ErrFileTooLarge indicates an upload above the configured size limit.
type ErrFileTooLarge struct {
	SizeMB  float64
	LimitMB float64
}

func (e *ErrFileTooLarge) Error() string {
	return fmt.Sprintf("arquivo muito grande: %.1fMB (limite %.0fMB)", e.SizeMB, e.LimitMB)
}
