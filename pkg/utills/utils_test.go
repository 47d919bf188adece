package utils

import "testing"

func TestValidPIN(t *testing.T) {
	for pin, want := range map[string]bool{
		"1234":      true,
		"12345678":  true,
		"123":       false,
		"123456789": false,
		"12a4":      false,
		"":          false,
	} {
		if got := ValidPIN(pin); got != want {
			t.Fatalf("ValidPIN(%q) = %v, want %v", pin, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	long := ""
	for i := 0; i < 120; i++ {
		long += "ü"
	}
	got := Truncate(long, 100)
	if []rune(got)[99] != 'ü' || len([]rune(got)) != 103 {
		t.Fatalf("expected 100 runes plus ellipsis, got %d runes", len([]rune(got)))
	}
}
