// Package assert contains helpers for test assertions.
package assert

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func diff(exp, got any) string {
	return cmp.Diff(exp, got, cmpopts.EquateErrors(), cmpopts.EquateEmpty())
}

// Equal asserts exp == got.
func Equal(t testing.TB, name string, exp, got any) {
	t.Helper()

	if d := diff(exp, got); d != "" {
		t.Fatalf("unexpected %v (-want +got):\n%v", name, d)
	}
}

// Success asserts err == nil.
func Success(t testing.TB, err error) {
	t.Helper()

	if err != nil {
		t.Fatal(err)
	}
}

// Error asserts err != nil.
func Error(t testing.TB, err error) {
	t.Helper()

	if err == nil {
		t.Fatal("expected error")
	}
}

// Contains asserts fmt.Sprint(v) contains sub.
func Contains(t testing.TB, v any, sub string) {
	t.Helper()

	s := fmt.Sprint(v)
	if !strings.Contains(s, sub) {
		t.Fatalf("expected %q to contain %q", s, sub)
	}
}

// ErrorIs asserts errors.Is(got, exp).
func ErrorIs(t testing.TB, exp, got error) {
	t.Helper()

	if !errors.Is(got, exp) {
		t.Fatalf("expected %v but got %v", exp, got)
	}
}

// ErrorAs asserts errors.As(err, target).
func ErrorAs(t testing.TB, err error, target any) {
	t.Helper()

	if !errors.As(err, target) {
		t.Fatalf("expected error of type %T but got %v", target, err)
	}
}
