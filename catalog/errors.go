package catalog

import "fmt"

// FetchError indicates the HTTP transfer for a page failed. It is
// propagated to the caller, never retried.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError indicates a document whose expected structure is missing
// or that cannot be parsed at all. A page with zero app headers is a
// valid empty page, not a ParseError.
type ParseError struct {
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.URL, e.Reason)
}
