package main

import (
	"github.com/hashicorp/go-multierror"
)

// closer is satisfied by every resource ringtapd tears down on exit.
type closer interface {
	Close() error
}

// closeAll runs every closer and aggregates failures with go-multierror, the
// same library the teacher's go.mod already carries (as an indirect
// dependency of go-multierror's own errwrap) for exactly this kind of
// best-effort multi-resource teardown.
func closeAll(closers ...closer) error {
	var result *multierror.Error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
