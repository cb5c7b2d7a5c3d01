package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199). Rejected before any simulation step
	// runs and never retried.
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidLookback      ErrorCode = 101
	ErrCodeInvalidCapital       ErrorCode = 102
	ErrCodeInvalidCostRate      ErrorCode = 103
	ErrCodeInvalidTimeout       ErrorCode = 104
	ErrCodeNoUsableObservations ErrorCode = 105
	ErrCodeInvalidCostScheme    ErrorCode = 106

	// Data errors (200-299). Fatal to the in-progress run; partial results
	// are discarded rather than returned truncated.
	ErrCodeInsufficientData ErrorCode = 200
	ErrCodeNonPositivePrice ErrorCode = 201
	ErrCodeUnorderedSeries  ErrorCode = 202
	ErrCodeQueryFailed      ErrorCode = 203
	ErrCodeDataNotFound     ErrorCode = 204

	// Collaborator errors (300-399). Fatal to the run; callers may retry the
	// whole run, never individual steps. ErrCodeForecastUnavailable is the
	// benign missing-forecast signal, ErrCodeForecasterFailed the fatal one.
	ErrCodeForecastUnavailable ErrorCode = 300
	ErrCodePolicyUnavailable   ErrorCode = 301
	ErrCodeCollaboratorTimeout ErrorCode = 302
	ErrCodeInvalidAction       ErrorCode = 303
	ErrCodeForecasterFailed    ErrorCode = 304
)

// Category groups error codes into the three run-level failure classes plus
// an unknown bucket.
type Category string

const (
	CategoryUnknown       Category = "unknown"
	CategoryConfiguration Category = "configuration"
	CategoryData          Category = "data"
	CategoryCollaborator  Category = "collaborator"
)

// CategoryOf returns the failure category an error code belongs to.
func CategoryOf(code ErrorCode) Category {
	switch {
	case code >= 100 && code < 200:
		return CategoryConfiguration
	case code >= 200 && code < 300:
		return CategoryData
	case code >= 300 && code < 400:
		return CategoryCollaborator
	default:
		return CategoryUnknown
	}
}
