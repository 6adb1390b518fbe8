package raceresult

import (
	"errors"
	"fmt"
	"net"
)

// Normalized error-kind strings recorded in TestResult.ErrorTypes (§7).
const (
	ErrTimeout           = "Timeout"
	ErrConnectionRefused = "Connection refused"
	ErrCancelled         = "Cancelled"
	ErrGlobalTimeout     = "Global timeout"
)

// HTTPErrorKind formats the non-2xx status error string, e.g. "HTTP 503".
func HTTPErrorKind(code int) string {
	return fmt.Sprintf("HTTP %d", code)
}

// BuildErrorKind formats a request-construction failure, e.g. an invalid
// header value supplied in TestConfig.Headers.
func BuildErrorKind(detail string) string {
	return fmt.Sprintf("Build error: %s", detail)
}

// ClassifyTransportError maps a transport-level error from the standard
// library's net/http client into one of the normalized kinds. Any error
// it does not recognize is surfaced via its own string form, per §7's
// "any other transport error is surfaced via its string form".
func ClassifyTransportError(err error) string {
	if err == nil {
		return ""
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if sysErr, ok := opErr.Err.(interface{ Error() string }); ok && isConnRefused(sysErr) {
			return ErrConnectionRefused
		}
	}
	if isConnRefused(err) {
		return ErrConnectionRefused
	}
	return err.Error()
}

// isConnRefused does a string-level check for the common "connection
// refused" transport failure. The standard library does not expose a
// portable typed error for this across all platforms' syscall errors, so
// matching on the message (as net.OpError.Error() renders it) is the
// pragmatic approach, same as what callers of fhttp's client do when
// classifying dial errors for display.
func isConnRefused(err error) bool {
	const marker = "connection refused"
	msg := err.Error()
	if len(msg) < len(marker) {
		return false
	}
	for i := 0; i+len(marker) <= len(msg); i++ {
		if msg[i:i+len(marker)] == marker {
			return true
		}
	}
	return false
}
