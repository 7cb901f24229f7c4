package common

import (
	"errors"
	"fmt"
	"testing"
)

// ---------- NormalizeEmail ----------

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"a@b.com":           "a@b.com",
		"  A@B.Com  ":       "a@b.com",
		"\tUser@Example.ORG": "user@example.org",
		"":                  "",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- sentinels ----------

func TestValidationErrorWrapping(t *testing.T) {
	err := fmt.Errorf("%w: email is required", ErrorValidation)
	if !errors.Is(err, ErrorValidation) {
		t.Fatalf("wrapped error must match ErrorValidation")
	}
	if errors.Is(err, ErrorDuplicateUser) {
		t.Fatalf("wrapped validation error must not match ErrorDuplicateUser")
	}
}
