package utils

import "strings"

// IsDigits returns true if s is non-empty and made of ASCII digits only
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidPIN accepts 4 to 8 digits
func ValidPIN(pin string) bool {
	return len(pin) >= 4 && len(pin) <= 8 && IsDigits(pin)
}

// Truncate cuts s to n runes and appends "..." when something was cut
func Truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if n <= 0 || len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
