// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failure.
type ErrorKind string

const (
	// KindConfig is an invalid setting or a missing input file. Fatal.
	KindConfig ErrorKind = "config"

	// KindNetwork is a transport failure or non-success status while fetching.
	KindNetwork ErrorKind = "network"

	// KindExtraction means a required field was not found in fetched content.
	KindExtraction ErrorKind = "extraction"

	// KindOracle is a failed evaluation call.
	KindOracle ErrorKind = "oracle"

	// KindCancelled means the run was cancelled or timed out while the item was pending.
	KindCancelled ErrorKind = "cancelled"
)

// Error carries a classified failure. Error() returns the wrapped message so
// the cause stays readable; Kind is reported alongside it.
type Error struct {
	Kind ErrorKind `json:"kind" yaml:"kind"`
	URL  string    `json:"url,omitempty" yaml:"url,omitempty"`
	Err  error     `json:"-" yaml:"-"`

	// Message mirrors Err.Error() for serialized reports.
	Message string `json:"message" yaml:"message"`
}

// NewError wraps err with a kind. A nil err yields a nil *Error.
func NewError(kind ErrorKind, url string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, URL: url, Err: err, Message: err.Error()}
}

// Configf builds a config error from a format string.
func Configf(format string, args ...any) *Error {
	return NewError(KindConfig, "", fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Context cancellation and deadlines map to
// KindCancelled; a wrapped *Error reports its own kind; anything else
// falls back to the supplied default.
func KindOf(err error, fallback ErrorKind) ErrorKind {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return fallback
}

// Classify returns err as an *Error, keeping an existing classification.
func Classify(err error, url string, fallback ErrorKind) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		if te.URL == "" && url != "" {
			cp := *te
			cp.URL = url
			return &cp
		}
		return te
	}
	return NewError(KindOf(err, fallback), url, err)
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == KindConfig
}
