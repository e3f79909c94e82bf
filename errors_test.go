package cacheaside

import (
	"errors"
	"strings"
	"testing"
)

func TestOpErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := error(&OpError{Op: "write", Layer: LayerCache, Key: "42", Kind: ErrUnavailable, Err: cause})

	if got := err.Error(); got != `cacheaside: write "42": cache: unavailable: dial tcp: refused` {
		t.Fatalf("message: %q", got)
	}
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("Is must match both kind and cause")
	}
	if errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("must not match other kinds")
	}

	arg := &OpError{Op: "read", Kind: ErrInvalidArgument, Err: errors.New("empty key")}
	if got := arg.Error(); got != "cacheaside: read: invalid argument: empty key" {
		t.Fatalf("message: %q", got)
	}
}

func TestInvalidateErrorMessages(t *testing.T) {
	b, d := errors.New("b"), errors.New("d")
	cases := []struct {
		err  *InvalidateError
		want string
	}{
		{&InvalidateError{Key: "k", BumpErr: b, DelErr: d}, "gen bump and delete failed"},
		{&InvalidateError{Key: "k", BumpErr: b}, "gen bump failed"},
		{&InvalidateError{Key: "k", DelErr: d}, "delete failed"},
		{&InvalidateError{Key: "k"}, "unknown error"},
	}
	for _, tc := range cases {
		if !strings.Contains(tc.err.Error(), tc.want) {
			t.Fatalf("%q does not contain %q", tc.err.Error(), tc.want)
		}
		if !errors.Is(tc.err, ErrUnavailable) {
			t.Fatalf("InvalidateError must match ErrUnavailable")
		}
	}
	both := &InvalidateError{Key: "k", BumpErr: b, DelErr: d}
	if !errors.Is(both, b) || !errors.Is(both, d) {
		t.Fatalf("causes must unwrap")
	}
}

func TestErrNotFoundIsAuthoritySentinel(t *testing.T) {
	wrapped := &OpError{Op: "read", Err: ErrNotFound}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("ErrNotFound must unwrap")
	}
}
