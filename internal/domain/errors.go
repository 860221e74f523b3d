package domain

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a remote resource (org, repo, user) does not
// exist or was deleted. Callers recover from it per item.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// RemoteError is any other failure of the remote API.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// PaginationError reports pagination metadata that could not be parsed.
type PaginationError struct {
	Link string
	Err  error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("malformed pagination link %q: %v", e.Link, e.Err)
}

func (e *PaginationError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
