package core

// Error codes for domain errors.
const (
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeRoomNotFound     = "room_not_found"
	ErrCodeStoreUnavailable = "store_unavailable"
	ErrCodeInternal         = "internal"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
