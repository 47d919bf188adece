package defaults

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBuiltin(t *testing.T) {
	b := Builtin()
	if got := len(b.Analysts()); got != 3 {
		t.Fatalf("expected 3 analysts, got %d", got)
	}
	if b.Analysts()[1].Name != "Carl Jung" {
		t.Fatalf("unexpected second analyst %q", b.Analysts()[1].Name)
	}
	if got := len(b.Questions()); got != 3 {
		t.Fatalf("expected 3 questions, got %d", got)
	}
	if b.DefaultLocale() != "en" {
		t.Fatalf("expected en, got %s", b.DefaultLocale())
	}
}

func TestBuiltinReturnsCopies(t *testing.T) {
	b := Builtin()
	qs := b.Questions()
	qs[0].Options[0] = "changed"
	as := b.Analysts()
	as[0].Name = "changed"
	if b.Questions()[0].Options[0] != "Last night" || b.Analysts()[0].Name != "Sigmund Freud" {
		t.Fatalf("provider state leaked through returned slices")
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestParseTOML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "defaults.toml", `
default_locale = "tr"

[[analysts]]
id = "adler"
name = "Alfred Adler"
badge_color = "#123456"
description = "Individual psychology"
`)
	set, err := Parse(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if set.DefaultLocale() != "tr" {
		t.Fatalf("locale: %s", set.DefaultLocale())
	}
	if len(set.AnalystList) != 1 || set.AnalystList[0].BadgeColor != "#123456" {
		t.Fatalf("analysts: %+v", set.AnalystList)
	}
	if len(set.QuestionList) != 3 {
		t.Fatalf("questions should fall back to built-ins, got %d", len(set.QuestionList))
	}
}

func TestParseYAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "defaults.yaml", `
questions:
  - id: mood
    label: How did you feel on waking?
    type: dropdown
    options: [Calm, Anxious]
`)
	set, err := Parse(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(set.QuestionList) != 1 || set.QuestionList[0].Options[1] != "Anxious" {
		t.Fatalf("questions: %+v", set.QuestionList)
	}
	if len(set.AnalystList) != 3 {
		t.Fatalf("analysts should fall back to built-ins")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "bad.yaml", `
questions:
  - id: mood
    label: Mood
    type: dropdown
`)
	if _, err := Parse(p); err == nil {
		t.Fatalf("expected error for dropdown without options")
	}
	if _, err := Parse(writeFile(t, dir, "x.json", `{}`)); err != ErrUnsupportedFormat {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFileFallsBackToBuiltin(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "missing.toml"), nil)
	if len(f.Analysts()) != 3 {
		t.Fatalf("expected built-in analysts")
	}
}

func TestFileWatchReloads(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "defaults.toml", `default_locale = "en"`)
	f := NewFile(p, nil)
	f.debounce = 10 * time.Millisecond
	if err := f.Watch(); err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer f.Close()

	writeFile(t, dir, "defaults.toml", `default_locale = "tr"`)
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if f.DefaultLocale() == "tr" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected reload to pick up tr, still %s", f.DefaultLocale())
}
