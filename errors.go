package cacheaside

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unkn0wn-root/cacheaside/authority"
)

var (
	// ErrInvalidArgument: the key or value was rejected before any store was touched.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is the authority's not-found sentinel. Read reports it as ok=false.
	ErrNotFound = authority.ErrNotFound
	// ErrUnavailable: the authority, cache or generation store failed or timed out.
	ErrUnavailable = errors.New("unavailable")
)

// Layer names the collaborator an operation failed in.
type Layer string

const (
	LayerAuthority Layer = "authority"
	LayerCache     Layer = "cache"
	LayerGenStore  Layer = "genstore"
)

// OpError is returned by Store operations. Both Kind (one of the sentinels
// above) and the underlying cause match with errors.Is.
type OpError struct {
	Op    string
	Layer Layer // empty for argument errors
	Key   string
	Kind  error
	Err   error
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString("cacheaside: ")
	b.WriteString(e.Op)
	if e.Key != "" {
		fmt.Fprintf(&b, " %q", e.Key)
	}
	if e.Layer != "" {
		b.WriteString(": ")
		b.WriteString(string(e.Layer))
	}
	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *OpError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// InvalidateError is returned by Delete and Invalidate only when both the
// generation bump and the cache eviction failed, i.e. a stale entry may
// still be served.
type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("invalidate %q failed: gen bump and delete failed: bump=%v; delete=%v",
			e.Key, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("invalidate %q: gen bump failed: %v", e.Key, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("invalidate %q: delete failed: %v", e.Key, e.DelErr)
	default:
		return fmt.Sprintf("invalidate %q: unknown error", e.Key)
	}
}

func (e *InvalidateError) Unwrap() []error {
	errs := []error{ErrUnavailable}
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
