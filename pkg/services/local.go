package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Local answers without any network call. It is used when the remote
// provider is disabled and in development.
type Local struct{}

func NewLocal() *Local { return &Local{} }

func (l *Local) InterpretDream(ctx context.Context, dream, analyst string, answers map[string]string) ChatResponse {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	return ChatResponse{Text: localReading(dream, analyst, answers)}
}

func (l *Local) InterpretDreamInThread(ctx context.Context, dream, analyst string, answers map[string]string) ChatResponse {
	r := l.InterpretDream(ctx, dream, analyst, answers)
	if r.OK() {
		r.ThreadID = "local_" + uuid.NewString()
	}
	return r
}

func (l *Local) FollowUp(ctx context.Context, history []string, question, analyst, threadID string) ChatResponse {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	if strings.TrimSpace(threadID) == "" {
		threadID = "local_" + uuid.NewString()
	}
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s, continuing our session (%d earlier messages).\n\n", nameOr(analyst), len(history))
	fmt.Fprintf(b, "On your question \"%s\":\n", truncate(strings.TrimSpace(question), 80))
	fmt.Fprintln(b, "- Relate it to the images from the dream we already discussed.")
	fmt.Fprintln(b, "- Notice which feelings return when you think about it.")
	fmt.Fprintln(b, "\n(Offline interpretation. Enable the AI provider for a full analysis.)")
	return ChatResponse{Text: b.String(), ThreadID: threadID}
}

func localReading(dream, analyst string, answers map[string]string) string {
	d := strings.TrimSpace(dream)
	if d == "" {
		d = "your dream"
	}
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s on: %s\n\n", nameOr(analyst), truncate(d, 60))
	fmt.Fprintln(b, "Reading:")
	fmt.Fprintln(b, "- The central image points to a wish or tension that is active in waking life.")
	fmt.Fprintln(b, "- The setting shows how you currently see your situation.")
	if len(answers) > 0 {
		keys := make([]string, 0, len(answers))
		for k := range answers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(b, "\nContext you gave:")
		for _, k := range keys {
			if v := strings.TrimSpace(answers[k]); v != "" {
				fmt.Fprintf(b, "- %s: %s\n", k, v)
			}
		}
	}
	fmt.Fprintln(b, "\n(Offline interpretation. Enable the AI provider for a full analysis.)")
	return b.String()
}

func nameOr(analyst string) string {
	if a := strings.TrimSpace(analyst); a != "" {
		return a
	}
	return "Your analyst"
}

// truncate cuts s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
