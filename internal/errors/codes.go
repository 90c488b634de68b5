// Package errors provides structured, machine-readable error handling for the
// turn resolution engine.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Readiness errors
	CodeTurnNotReady Code = "TURN_NOT_READY"

	// Validation errors
	CodeActionInvalid         Code = "ACTION_INVALID"
	CodeUnknownActionKind     Code = "UNKNOWN_ACTION_KIND"
	CodeBatchValidationFailed Code = "BATCH_VALIDATION_FAILED"

	// Ledger errors
	CodeInsufficientResources Code = "INSUFFICIENT_RESOURCES"
	CodeLedgerReadFailed      Code = "LEDGER_READ_FAILED"
	CodeLedgerWriteFailed     Code = "LEDGER_WRITE_FAILED"

	// Resolution errors
	CodeTurnAlreadyResolved Code = "TURN_ALREADY_RESOLVED"
	CodeResolutionFailed    Code = "RESOLUTION_FAILED"
	CodeResolutionInFlight  Code = "RESOLUTION_IN_FLIGHT"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"

	// Catalog errors
	CodeCatalogInvalid Code = "CATALOG_INVALID"
)

// HTTPStatus maps domain codes to HTTP status codes for API responses.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeActionInvalid,
		CodeUnknownActionKind,
		CodeCatalogInvalid:
		return http.StatusBadRequest

	case CodeTurnNotReady,
		CodeTurnAlreadyResolved,
		CodeResolutionInFlight:
		return http.StatusConflict

	case CodeBatchValidationFailed,
		CodeInsufficientResources:
		return http.StatusUnprocessableEntity

	case CodeNotFound:
		return http.StatusNotFound

	case CodeAlreadyExists:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
