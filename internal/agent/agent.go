// Package agent provides the text-generation capability used by the pipeline:
// a Generator interface, a typed error channel that classifies failures as
// rate-limited or fatal, and a Gemini REST adapter.
//
// Classification happens here and only here. The backoff executor upstream
// decides retry-vs-abort purely from the error kind; it never inspects
// message strings.
package agent

import (
	"context"
	"errors"
	"fmt"
)

// Generator produces text from a prompt. One Generator is constructed per
// role at process start and handed to the pipeline engine explicitly; there
// are no shared module-level instances.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrorKind tags a capability failure as retryable or not.
type ErrorKind string

const (
	// KindRateLimited marks transient quota errors; the executor retries
	// these with exponential backoff.
	KindRateLimited ErrorKind = "rate_limited"

	// KindFatal marks everything else; the executor gives up immediately.
	KindFatal ErrorKind = "fatal"
)

// Error is a classified capability failure.
type Error struct {
	Kind ErrorKind
	Op   string // operation that failed, e.g. "gemini.generate"
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err (anywhere in its chain) is a capability
// error classified as rate-limited.
func IsRateLimited(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == KindRateLimited
}
