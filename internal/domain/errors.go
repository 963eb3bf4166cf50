package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoIdentity is returned when an operation needs a token and tenant id
	ErrNoIdentity = errors.New("no established identity")
	// ErrQueryFailed marks a pull that failed, as opposed to one with no new data
	ErrQueryFailed = errors.New("remote query failed")
	// ErrMalformedPayload is returned for webhook bodies that are not JSON
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrDepthExceeded is matched by *DepthExceededError
	ErrDepthExceeded   = errors.New("nesting depth exceeded")
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrInvalidSignature is returned when webhook signature enforcement rejects a request
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// RemoteError is a non-success response from the remote document store
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote store returned status %d: %s", e.Status, e.Body)
}

// DepthExceededError is returned when a value nests deeper than the codec allows
type DepthExceededError struct {
	Limit int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("value nesting exceeds %d levels", e.Limit)
}

func (e *DepthExceededError) Is(target error) bool {
	return target == ErrDepthExceeded
}
