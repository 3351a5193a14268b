package model

import "fmt"

// SiteError is a scrape failure with an HTTP-mappable code. Handlers
// return it to the client as {"code": ..., "message": ...}.
type SiteError struct {
	Code    int
	Message string
}

func NewSiteError(code int, format string, args ...any) *SiteError {
	return &SiteError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("[code %d] %s", e.Code, e.Message)
}
