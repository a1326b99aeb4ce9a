package utils

import (
	"errors"
	"fmt"
)

// ----------------- cache ------------------
var (
	ErrCacheMiss = errors.New("cache miss")
)

// ----------------- pagination ------------------
var (
	// ErrStaleResult ответ пришел для запроса, который уже вытеснен более новым
	ErrStaleResult     = errors.New("stale result discarded")
	ErrNoMorePages     = errors.New("no more pages")
	ErrNotAccumulating = errors.New("viewport does not accumulate pages")
	ErrWindowFull      = errors.New("accumulated window is full")
	ErrBrowseNotFound  = errors.New("browse state not found")
	ErrFetchInProgress = errors.New("fetch already in progress")
)

// ----------------- upstream ------------------
var (
	ErrUpstreamUnavailable = errors.New("product api unavailable")
	ErrUpstreamBadStatus   = errors.New("product api returned unexpected status")
)

// ----------------- session ------------------
var (
	ErrEmptySession    = errors.New("session id is empty")
	ErrNoSavedFilters  = errors.New("no saved filters")
	ErrInvalidViewport = errors.New("invalid viewport")
)

// StatusError ответ внешнего API с кодом, отличным от 2xx
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("product api status %d", e.StatusCode)
	}
	return fmt.Sprintf("product api status %d: %s", e.StatusCode, e.Body)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrUpstreamBadStatus)
func (e *StatusError) Unwrap() error {
	return ErrUpstreamBadStatus
}

// Retryable стоит ли повторять запрос с таким кодом
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode == 503
}
