package types

import "fmt"

// CustomError carries the HTTP status and error type reported to API clients.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Err     error  `json:"-"`
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s [type: %s]: %v", e.Code, e.Message, e.Type, e.Err)
	}
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// BadRequest builds a 400 error of the given type.
func BadRequest(kind, format string, args ...interface{}) *CustomError {
	return &CustomError{Code: 400, Message: fmt.Sprintf(format, args...), Type: kind}
}
