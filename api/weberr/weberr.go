// Package weberr decorates errors with what the api should answer and log
// for them. Decorations survive wrapping with fmt.Errorf("...: %w", err).
package weberr

import (
	"errors"
	"net/http"
)

type Opt func(error) error

func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

// WithResponse makes the api answer status with body.
func WithResponse(body any, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

// WithFields adds fields to the log entry of the failed request.
func WithFields(fields map[string]any) Opt {
	return func(err error) error {
		return &fieldsError{error: err, fields: fields}
	}
}

type responseError struct {
	error
	body   any
	status int
}

func (e *responseError) Unwrap() error { return e.error }

type fieldsError struct {
	error
	fields map[string]any
}

func (e *fieldsError) Unwrap() error { return e.error }

// Response returns the outermost response attached to err.
func Response(err error) (body any, status int, ok bool) {
	var re *responseError
	if errors.As(err, &re) {
		return re.body, re.status, true
	}
	return nil, 0, false
}

// Status is the status code the api answers err with.
func Status(err error) int {
	if _, status, ok := Response(err); ok {
		return status
	}
	return http.StatusInternalServerError
}

// Fields merges the log fields attached anywhere in the chain of err, outer
// values winning.
func Fields(err error) (map[string]any, bool) {
	var merged map[string]any
	for err != nil {
		if fe, ok := err.(*fieldsError); ok {
			if merged == nil {
				merged = make(map[string]any)
			}
			for k, v := range fe.fields {
				if _, set := merged[k]; !set {
					merged[k] = v
				}
			}
		}
		err = errors.Unwrap(err)
	}
	return merged, merged != nil
}
