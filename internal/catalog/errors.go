package catalog

import "time"

// ErrorKind classifies failures for display and retry decisions.
type ErrorKind string

const (
	ErrorValidation ErrorKind = "validation"
	ErrorNetwork    ErrorKind = "network"
	ErrorAPI        ErrorKind = "api"
	ErrorUnknown    ErrorKind = "unknown"
)

// ErrorState is attached to the store's global error slot or to a single
// download record.
type ErrorState struct {
	Kind      ErrorKind
	Message   string
	Details   string
	Retryable bool
	Timestamp time.Time
}

// Error implements error so an ErrorState can travel through error returns.
func (e ErrorState) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}
