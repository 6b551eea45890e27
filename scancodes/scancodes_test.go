package scancodes

import "testing"

func TestCodeResolvesCanonicalName(t *testing.T) {
	code, err := Code("KEY_A")
	if err != nil || code != 30 {
		t.Fatalf("Code(KEY_A) = %d, %v; want 30, nil", code, err)
	}
}

func TestCodeResolvesAliasAndBareName(t *testing.T) {
	cases := map[string]uint16{
		"LShift": 42,
		"Space":  57,
		"Q":      16,
	}
	for name, want := range cases {
		code, err := Code(name)
		if err != nil || code != want {
			t.Errorf("Code(%q) = %d, %v; want %d, nil", name, code, err, want)
		}
	}
}

func TestCodeResolvesAliasCaseInsensitively(t *testing.T) {
	cases := []string{"LShift", "LSHIFT", "lshift"}
	for _, name := range cases {
		code, err := Code(name)
		if err != nil || code != 42 {
			t.Errorf("Code(%q) = %d, %v; want 42, nil", name, code, err)
		}
	}
}

func TestCodeResolvesQMKStylePrefix(t *testing.T) {
	code, err := Code("KC_A")
	if err != nil || code != 30 {
		t.Fatalf("Code(KC_A) = %d, %v; want 30, nil", code, err)
	}
}

func TestCodeUnknownName(t *testing.T) {
	if _, err := Code("NotAKey"); err == nil {
		t.Fatalf("expected an error for an unknown key name")
	}
}

func TestNameRoundTrip(t *testing.T) {
	if got := Name(30); got != "KEY_A" {
		t.Errorf("Name(30) = %q, want KEY_A", got)
	}
	if got := Name(0xfff); got != "KEY_0xfff" {
		t.Errorf("Name(0xfff) = %q, want a numeric placeholder", got)
	}
}
