package raceresult

import (
	"context"
	"errors"
	"testing"
)

func TestHTTPErrorKind(t *testing.T) {
	if got := HTTPErrorKind(503); got != "HTTP 503" {
		t.Fatalf("got %q", got)
	}
}

func TestClassifyTransportErrorTimeout(t *testing.T) {
	// context.DeadlineExceeded implements net.Error with Timeout() true, so
	// it classifies as "Timeout".
	if got := ClassifyTransportError(context.DeadlineExceeded); got != ErrTimeout {
		t.Fatalf("got %q, want %q", got, ErrTimeout)
	}
}

func TestClassifyTransportErrorConnRefused(t *testing.T) {
	err := errors.New("dial tcp 127.0.0.1:1: connect: connection refused")
	if got := ClassifyTransportError(err); got != ErrConnectionRefused {
		t.Fatalf("got %q, want %q", got, ErrConnectionRefused)
	}
}

func TestClassifyTransportErrorOther(t *testing.T) {
	err := errors.New("something else broke")
	if got := ClassifyTransportError(err); got != "something else broke" {
		t.Fatalf("got %q", got)
	}
}
