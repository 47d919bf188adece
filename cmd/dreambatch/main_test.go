package main

import (
	"testing"

	"DreamAI/pkg/defaults"
)

func TestParseDreams(t *testing.T) {
	items, err := parseDreams([]byte(`["I was flying", {"dream": " Teeth falling out ", "answers": {"emotions": "Fear"}}, "  ", 42]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[1].Dream != "Teeth falling out" || items[1].Answers["emotions"] != "Fear" {
		t.Fatalf("unexpected item %+v", items[1])
	}
	if _, err := parseDreams([]byte(`[]`)); err == nil {
		t.Fatalf("expected error for empty list")
	}
	if _, err := parseDreams([]byte(`{`)); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestFilterDreams(t *testing.T) {
	items := []DreamItem{{Dream: "I was flying"}, {Dream: "Teeth falling out"}, {Dream: "Lost in a maze"}}
	got := filterDreams(items, "3, teeth")
	if len(got) != 2 || got[0].Dream != "Teeth falling out" || got[1].Dream != "Lost in a maze" {
		t.Fatalf("unexpected filter result %+v", got)
	}
	if got := filterDreams(items, "99,nothing"); len(got) != 3 {
		t.Fatalf("no match should keep everything, got %d", len(got))
	}
}

func TestSelectAnalysts(t *testing.T) {
	all := defaults.Builtin().Analysts()
	if got := selectAnalysts(all, ""); len(got) != len(all) {
		t.Fatalf("empty selection should keep all")
	}
	got := selectAnalysts(all, "jung, nobody")
	if len(got) != 1 || got[0].ID != "jung" {
		t.Fatalf("unexpected selection %+v", got)
	}
}
