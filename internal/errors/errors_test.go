package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorIs_MatchesByCode(t *testing.T) {
	err := Transport("catalog timed out")

	if !Is(err, ErrTransport) {
		t.Errorf("expected transport error to match ErrTransport")
	}
	if Is(err, ErrParse) {
		t.Errorf("transport error must not match ErrParse")
	}
	if !Is(NotConfigured("no api key"), ErrNotConfigured) {
		t.Errorf("expected not-configured error to match ErrNotConfigured")
	}
}

func TestErrorIs_ThroughWrapping(t *testing.T) {
	inner := Parse("bad recommendation payload")
	wrapped := fmt.Errorf("category fetch: %w", inner)

	if !Is(wrapped, ErrParse) {
		t.Errorf("expected wrapped parse error to match ErrParse")
	}
}

func TestWithCause_Unwraps(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := ErrTransport.WithCause(cause)

	if !Is(err, ErrTransport) {
		t.Errorf("expected code match after WithCause")
	}
	if !stderrors.Is(err, cause) {
		t.Errorf("expected cause to be reachable via Unwrap chain")
	}
}

func TestWrapf_CarriesCodeAndCause(t *testing.T) {
	cause := stderrors.New("eof")
	err := Wrapf(cause, CodeParse, "decode %s", "volumes")

	var domainErr *Error
	if !As(err, &domainErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if domainErr.Code != CodeParse {
		t.Errorf("got code %s, want %s", domainErr.Code, CodeParse)
	}
	if got, want := err.Error(), "decode volumes: eof"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestErrorString_WithoutCause(t *testing.T) {
	if got, want := NotConfigured("no api key").Error(), "no api key"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
