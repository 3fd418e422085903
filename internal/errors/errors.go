package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserInactive is returned when the user account is deactivated.
	ErrUserInactive = errors.New("user inactive")
	// ErrForbidden is returned when the caller may not perform the operation.
	ErrForbidden = errors.New("operation not permitted")
	// ErrCourtierNotFound is returned when a courtier is not found.
	ErrCourtierNotFound = errors.New("courtier not found")
	// ErrCourtierInactive is returned when the referenced courtier is deactivated.
	ErrCourtierInactive = errors.New("courtier inactive")
	// ErrCourtierExists is returned when creating a courtier with a taken name.
	ErrCourtierExists = errors.New("courtier already exists")
	// ErrCourtierHasEntries is returned when deleting a courtier that entries reference.
	ErrCourtierHasEntries = errors.New("courtier has entries")
	// ErrEntryNotFound is returned when an entry is not found.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrInvalidDuration is returned when minutes is not a positive integer.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidDate is returned when a date does not parse as YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date format")
	// ErrInvalidTime is returned when a time does not parse as HH:MM.
	ErrInvalidTime = errors.New("invalid time format")
	// ErrInvalidActeType is returned when the activity type is not one of the known kinds.
	ErrInvalidActeType = errors.New("invalid acte type")
	// ErrInvalidExportPeriod is returned when the export period is not daily, monthly or yearly.
	ErrInvalidExportPeriod = errors.New("invalid export period")
	// ErrNoEntries is returned when a report window contains no entries.
	ErrNoEntries = errors.New("no entries for period")
	// ErrBackupNotFound is returned when a backup archive does not exist.
	ErrBackupNotFound = errors.New("backup not found")
	// ErrTokenRevoked is returned when a blacklisted access token is presented.
	ErrTokenRevoked = errors.New("token revoked")
)

// MissingFieldError reports a required field absent from a submission.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing field: " + e.Field
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var missing *MissingFieldError
	if errors.As(err, &missing) {
		return NewHTTPError(http.StatusBadRequest, missing.Error(), "MISSING_FIELD")
	}
	switch err {
	case ErrUserInactive:
		return NewHTTPError(http.StatusForbidden, err.Error(), "USER_INACTIVE")
	case ErrForbidden:
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case ErrUserNotFound:
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case ErrCourtierNotFound:
		return NewHTTPError(http.StatusNotFound, err.Error(), "COURTIER_NOT_FOUND")
	case ErrEntryNotFound:
		return NewHTTPError(http.StatusNotFound, err.Error(), "ENTRY_NOT_FOUND")
	case ErrNoEntries:
		return NewHTTPError(http.StatusNotFound, err.Error(), "NO_ENTRIES")
	case ErrBackupNotFound:
		return NewHTTPError(http.StatusNotFound, err.Error(), "BACKUP_NOT_FOUND")
	case ErrInvalidExportPeriod:
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_EXPORT_PERIOD")
	case ErrCourtierInactive:
		return NewHTTPError(http.StatusBadRequest, err.Error(), "COURTIER_INACTIVE")
	case ErrInvalidDuration:
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_DURATION")
	case ErrInvalidDate:
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_DATE")
	case ErrInvalidTime:
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_TIME")
	case ErrInvalidActeType:
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_ACTE_TYPE")
	case ErrCourtierExists:
		return NewHTTPError(http.StatusConflict, err.Error(), "COURTIER_EXISTS")
	case ErrCourtierHasEntries:
		return NewHTTPError(http.StatusConflict, err.Error(), "COURTIER_HAS_ENTRIES")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
