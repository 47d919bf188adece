package main

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"DreamAI/models"
	"DreamAI/pkg/config"
	"DreamAI/pkg/defaults"
	"DreamAI/pkg/logger"
	svc "DreamAI/pkg/services"
)

// DreamItem is one input entry. dreams.json may also hold plain strings.
type DreamItem struct {
	Dream   string            `json:"dream"`
	Answers map[string]string `json:"answers,omitempty"`
}

type ResultItem struct {
	Dream       string `json:"dream"`
	Analyst     string `json:"analyst"`
	Mode        string `json:"mode"` // completion | thread
	Response    string `json:"response"`
	Error       string `json:"error,omitempty"`
	ThreadID    string `json:"thread_id,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
	Model       string `json:"model"`
	Timestamp   string `json:"timestamp"`
	ContentHash string `json:"content_hash"`
}

type RunSummary struct {
	RunID       string       `json:"run_id"`
	RandomSeed  int64        `json:"random_seed"`
	StartedAt   string       `json:"started_at"`
	EndedAt     string       `json:"ended_at"`
	Env         string       `json:"env"`
	OpenAIOn    bool         `json:"openai_enabled"`
	Model       string       `json:"model"`
	Temperature float64      `json:"temperature"`
	Only        string       `json:"only,omitempty"`
	Modes       []string     `json:"modes"`
	TotalDreams int          `json:"total_dreams"`
	Results     []ResultItem `json:"results"`
}

func readDreams() ([]DreamItem, error) {
	candidates := []string{
		os.Getenv("DREAMBATCH_INPUT"),
		"cmd/dreambatch/dreams.json",
		"dreams.json",
		filepath.Join(filepath.Dir(os.Args[0]), "dreams.json"),
	}

	var data []byte
	var err error
	for _, p := range candidates {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if b, e := os.ReadFile(p); e == nil {
			data = b
			err = nil
			break
		} else {
			err = e
		}
	}
	if data == nil {
		return nil, fmt.Errorf("cannot read dreams.json: %w", err)
	}
	return parseDreams(data)
}

// parseDreams accepts ["dream", ...] or [{"dream": "...", "answers": {...}}, ...].
func parseDreams(data []byte) ([]DreamItem, error) {
	var arr []json.RawMessage
	if e := json.Unmarshal(data, &arr); e != nil {
		return nil, fmt.Errorf("invalid dreams.json: %w", e)
	}
	out := make([]DreamItem, 0, len(arr))
	for _, raw := range arr {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, DreamItem{Dream: s})
			}
			continue
		}
		var it DreamItem
		if json.Unmarshal(raw, &it) == nil {
			if it.Dream = strings.TrimSpace(it.Dream); it.Dream != "" {
				out = append(out, it)
			}
		}
	}
	if len(out) == 0 {
		return nil, errors.New("dreams.json is empty or malformed")
	}
	return out, nil
}

// filterDreams keeps entries selected by 1-based index or substring, as in
// DREAMBATCH_ONLY="1,3" or DREAMBATCH_ONLY="flying,teeth".
func filterDreams(items []DreamItem, only string) []DreamItem {
	wanted := map[int]bool{}
	subs := make([]string, 0)
	for _, t := range strings.Split(only, ",") {
		v := strings.ToLower(strings.TrimSpace(t))
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil {
			if n >= 1 && n <= len(items) {
				wanted[n-1] = true
			}
		} else {
			subs = append(subs, v)
		}
	}
	out := make([]DreamItem, 0)
	for i, it := range items {
		if wanted[i] {
			out = append(out, it)
			continue
		}
		dl := strings.ToLower(it.Dream)
		for _, sub := range subs {
			if strings.Contains(dl, sub) {
				out = append(out, it)
				break
			}
		}
	}
	if len(out) == 0 {
		return items
	}
	return out
}

// selectAnalysts keeps the analysts named in DREAMBATCH_ANALYSTS (ids), or all.
func selectAnalysts(all []models.Analyst, ids string) []models.Analyst {
	if strings.TrimSpace(ids) == "" {
		return all
	}
	out := make([]models.Analyst, 0)
	for _, id := range strings.Split(ids, ",") {
		if a, ok := models.FindAnalyst(all, strings.TrimSpace(id)); ok {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return all
	}
	return out
}

func ensureDir(p string) error {
	return os.MkdirAll(p, 0o755)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func writeCSV(path string, items []ResultItem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	_ = w.Write([]string{"dream", "analyst", "mode", "duration_ms", "model", "error", "response"})
	for _, it := range items {
		_ = w.Write([]string{
			it.Dream,
			it.Analyst,
			it.Mode,
			strconv.FormatInt(it.DurationMs, 10),
			it.Model,
			it.Error,
			it.Response,
		})
	}
	w.Flush()
	return w.Error()
}

func main() {
	config.Load()
	lg, err := logger.New(config.AppEnv)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	defer lg.Sync()

	if !config.IsOpenAIEnabled {
		fmt.Println("[warn] IS_OPENAI_ENABLED=0; runner will use local readings.")
	}

	dreams, err := readDreams()
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	only := strings.TrimSpace(os.Getenv("DREAMBATCH_ONLY"))
	if only != "" {
		dreams = filterDreams(dreams, only)
		fmt.Printf("[filter] DREAMBATCH_ONLY active -> running %d dreams\n", len(dreams))
	}

	var provider defaults.Provider = defaults.Builtin()
	if config.DefaultsFile != "" {
		provider = defaults.NewFile(config.DefaultsFile, lg)
	}
	analysts := selectAnalysts(provider.Analysts(), os.Getenv("DREAMBATCH_ANALYSTS"))

	modes := []string{"completion"}
	if config.OpenAIAssistantID != "" || !config.IsOpenAIEnabled {
		modes = append(modes, "thread")
	}

	interp := svc.NewFromConfig(lg)

	timeoutSec := 90
	if v, e := strconv.Atoi(strings.TrimSpace(os.Getenv("DREAMBATCH_TIMEOUT_SEC"))); e == nil && v > 0 {
		timeoutSec = v
	}
	// pause between calls to stay under the provider's rate limit
	sleepMs := 600
	if v, e := strconv.Atoi(strings.TrimSpace(os.Getenv("DREAMBATCH_SLEEP_MS"))); e == nil && v >= 0 {
		sleepMs = v
	}

	started := time.Now()
	seed := started.UnixNano()
	r := rand.New(rand.NewSource(seed))
	runID := fmt.Sprintf("dreamrun-%s-%06d", started.Format("20060102-150405"), r.Intn(1000000))

	results := make([]ResultItem, 0, len(dreams)*len(analysts)*len(modes))
	for _, d := range dreams {
		for _, a := range analysts {
			for _, mode := range modes {
				res := runOnce(interp, d, a, mode, timeoutSec)
				if isRateLimited(res.Error) {
					fmt.Println("   ↪ rate limited; sleeping 20s then retry...")
					time.Sleep(20 * time.Second)
					res = runOnce(interp, d, a, mode, timeoutSec)
				}
				results = append(results, res)
				fmt.Printf("[%s] %s / %s -> %dms error=%v\n", mode, a.Name, truncate(d.Dream, 48), res.DurationMs, res.Error != "")
				time.Sleep(time.Duration(sleepMs) * time.Millisecond)
			}
		}
	}

	outDir := filepath.Join("cmd", "dreambatch", "results")
	if err := ensureDir(outDir); err != nil {
		fmt.Println("failed to create results dir:", err)
		os.Exit(1)
	}
	stamp := time.Now().Format("20060102-150405")
	jsonPath := filepath.Join(outDir, fmt.Sprintf("dreambatch-%s.json", stamp))
	csvPath := filepath.Join(outDir, fmt.Sprintf("dreambatch-%s.csv", stamp))

	summary := RunSummary{
		RunID:       runID,
		RandomSeed:  seed,
		StartedAt:   started.Format(time.RFC3339),
		EndedAt:     time.Now().Format(time.RFC3339),
		Env:         config.AppEnv,
		OpenAIOn:    config.IsOpenAIEnabled,
		Model:       config.OpenAIModel,
		Temperature: config.OpenAITemperature,
		Only:        only,
		Modes:       modes,
		TotalDreams: len(dreams),
		Results:     results,
	}
	if err := writeJSON(jsonPath, summary); err != nil {
		fmt.Println("failed to write JSON:", err)
		os.Exit(1)
	}
	if err := writeCSV(csvPath, results); err != nil {
		fmt.Println("failed to write CSV:", err)
		os.Exit(1)
	}

	fmt.Println("\nSaved:")
	fmt.Println(" -", jsonPath)
	fmt.Println(" -", csvPath)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func runOnce(interp svc.Interpreter, d DreamItem, a models.Analyst, mode string, timeoutSec int) ResultItem {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	t0 := time.Now()
	var resp svc.ChatResponse
	switch mode {
	case "thread":
		resp = interp.InterpretDreamInThread(ctx, d.Dream, a.Name, d.Answers)
	default:
		resp = interp.InterpretDream(ctx, d.Dream, a.Name, d.Answers)
	}
	h := sha256.Sum256([]byte(svc.PersonaPrompt(a.Name) + "\n" + svc.DreamContent(d.Dream, d.Answers)))
	return ResultItem{
		Dream:       d.Dream,
		Analyst:     a.ID,
		Mode:        mode,
		Response:    strings.TrimSpace(resp.Text),
		Error:       resp.Error,
		ThreadID:    resp.ThreadID,
		DurationMs:  time.Since(t0).Milliseconds(),
		Model:       config.OpenAIModel,
		Timestamp:   time.Now().Format(time.RFC3339),
		ContentHash: hex.EncodeToString(h[:]),
	}
}

func isRateLimited(errStr string) bool {
	return strings.Contains(errStr, "status: 429")
}
