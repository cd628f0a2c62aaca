package market

import (
	"context"
	"errors"

	"github.com/zeromicro/go-zero/core/logx"
)

// Result carries either a fetched payload or the reason the fetch failed.
// Callers must check Ok before trusting Value.
type Result[T any] struct {
	value T
	err   *FetchError
}

// Ok wraps a successful payload.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps a failed fetch. A nil err is recorded as an unknown failure.
func Fail[T any](err *FetchError) Result[T] {
	if err == nil {
		err = &FetchError{Kind: KindUnknown}
	}
	return Result[T]{err: err}
}

// Ok reports whether the fetch succeeded.
func (r Result[T]) Ok() bool {
	return r.err == nil
}

// Value returns the payload; the zero value when the fetch failed.
func (r Result[T]) Value() T {
	return r.value
}

// Err returns the failure, or nil on success.
func (r Result[T]) Err() *FetchError {
	return r.err
}

// Unpack converts the result into the conventional (value, error) pair.
func (r Result[T]) Unpack() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// Fetch runs fn and folds its (value, error) pair into a Result. Errors that
// are not already a *FetchError are recorded against source as unknown
// failures. The failure is logged here once, at debug level; callers that
// aggregate results decide what is worth surfacing.
func Fetch[T any](ctx context.Context, source string, fn func(context.Context) (T, error)) Result[T] {
	v, err := fn(ctx)
	if err == nil {
		return Ok(v)
	}
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		ferr = NewFetchError(source, KindUnknown, err)
	}
	if ferr.Source == "" {
		ferr.Source = source
	}
	logx.WithContext(ctx).Debugf("%s: fetch failed: %v", source, ferr)
	return Fail[T](ferr)
}
