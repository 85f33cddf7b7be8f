package dto

// Envelope wraps every Splitrail API response: {success, data?, error?}.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: &data}
}

func Fail(message string) Envelope[struct{}] {
	return Envelope[struct{}]{Success: false, Error: message}
}

// Empty is the envelope of a successful call without payload.
func Empty() Envelope[struct{}] {
	return Envelope[struct{}]{Success: true}
}
