package envutil

import "testing"

func TestInt(t *testing.T) {
	t.Setenv("ENVUTIL_INT", " 12 ")
	if got := Int("ENVUTIL_INT", 3); got != 12 {
		t.Fatalf("got %d want 12", got)
	}
	t.Setenv("ENVUTIL_INT", "nope")
	if got := Int("ENVUTIL_INT", 3); got != 3 {
		t.Fatalf("got %d want default 3", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("ENVUTIL_BOOL", "on")
	if !Bool("ENVUTIL_BOOL", false) {
		t.Fatal("expected true")
	}
	t.Setenv("ENVUTIL_BOOL", "maybe")
	if Bool("ENVUTIL_BOOL", false) {
		t.Fatal("expected default false")
	}
}

func TestString(t *testing.T) {
	t.Setenv("ENVUTIL_STRING", "")
	if got := String("ENVUTIL_STRING", "def"); got != "def" {
		t.Fatalf("got %q", got)
	}
}
