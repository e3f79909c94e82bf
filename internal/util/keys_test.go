package util

import (
	"fmt"
	"strconv"
	"testing"
)

func TestStorageKey(t *testing.T) {
	if got := StorageKey("users", "42"); got != "entry:users:42" {
		t.Fatalf("got %q", got)
	}
}

func TestStripeDeterministicAndInRange(t *testing.T) {
	for _, n := range []int{1, 7, 256} {
		for _, k := range []string{"", "a", "entry:users:42", "entry:users:43"} {
			s := Stripe(k, n)
			if s < 0 || s >= n {
				t.Fatalf("stripe %d out of range [0,%d)", s, n)
			}
			if s != Stripe(k, n) {
				t.Fatalf("stripe not deterministic for %q", k)
			}
		}
	}
}

type userID struct{ n int }

func (u userID) String() string { return "u-" + strconv.Itoa(u.n) }

func TestFormatKey(t *testing.T) {
	if got := FormatKey(42); got != "42" {
		t.Fatalf("int: got %q", got)
	}
	if got := FormatKey(int64(-7)); got != "-7" {
		t.Fatalf("int64: got %q", got)
	}
	if got := FormatKey(uint8(255)); got != "255" {
		t.Fatalf("uint8: got %q", got)
	}
	if got := FormatKey("alice"); got != "alice" {
		t.Fatalf("string: got %q", got)
	}
	if got := FormatKey(userID{3}); got != "u-3" {
		t.Fatalf("Stringer: got %q", got)
	}
	type region string
	if got := FormatKey(region("eu")); got != "eu" {
		t.Fatalf("named string: got %q", got)
	}
	type shard uint16
	if got := FormatKey(shard(9)); got != "9" {
		t.Fatalf("named uint: got %q", got)
	}
	if got := FormatKey(true); got != "true" {
		t.Fatalf("bool: got %q", got)
	}
}

type pair struct{ A, B string }

func TestKeyFormatterRejectsAmbiguousKinds(t *testing.T) {
	if _, err := KeyFormatter[pair](); err == nil {
		t.Fatalf("struct keys must require an explicit KeyFunc")
	}
	if _, err := KeyFormatter[any](); err == nil {
		t.Fatalf("interface keys must require an explicit KeyFunc")
	}
	if _, err := KeyFormatter[float64](); err == nil {
		t.Fatalf("float keys must require an explicit KeyFunc")
	}
	if _, err := KeyFormatter[*int](); err == nil {
		t.Fatalf("pointer keys must require an explicit KeyFunc")
	}
	for _, ok := range []func() error{
		func() error { _, err := KeyFormatter[int](); return err },
		func() error { _, err := KeyFormatter[string](); return err },
		func() error { _, err := KeyFormatter[userID](); return err },
		func() error { _, err := KeyFormatter[*userID](); return err },
	} {
		if err := ok(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestIsNilKey(t *testing.T) {
	var p *int
	if !IsNilKey(p) {
		t.Fatalf("nil pointer")
	}
	var s fmt.Stringer
	if !IsNilKey(s) {
		t.Fatalf("nil interface")
	}
	n := 1
	if IsNilKey(&n) || IsNilKey(0) || IsNilKey("") {
		t.Fatalf("non-nil keys reported as nil")
	}
}
