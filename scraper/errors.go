package scraper

import (
	"context"
	"errors"
	"net"

	"github.com/aluiziolira/fdscrape/acquire"
	"github.com/aluiziolira/fdscrape/catalog"
)

// errorTypeLabel maps an error to a stable metrics/reporting label.
func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connection"
	}

	var layoutErr *acquire.LayoutError
	if errors.As(err, &layoutErr) {
		return "archive_layout"
	}
	var unpackErr *acquire.UnpackError
	if errors.As(err, &unpackErr) {
		return "unpack"
	}
	if errors.Is(err, acquire.ErrArchiveExists) {
		return "already_exists"
	}

	var fetchErr *catalog.FetchError
	if errors.As(err, &fetchErr) {
		return "fetch"
	}
	var parseErr *catalog.ParseError
	if errors.As(err, &parseErr) {
		return "parse"
	}
	return "other"
}

// fatal reports whether an acquisition error must halt the whole run
// rather than skip the current app: archive layout and unpack failures
// signal an upstream format change, cancellation means the operator
// stopped the process.
func fatal(err error) bool {
	var layoutErr *acquire.LayoutError
	if errors.As(err, &layoutErr) {
		return true
	}
	var unpackErr *acquire.UnpackError
	if errors.As(err, &unpackErr) {
		return true
	}
	return errors.Is(err, context.Canceled)
}
