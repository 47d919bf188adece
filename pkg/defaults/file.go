package defaults

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"DreamAI/models"
	"DreamAI/pkg/logger"
)

var ErrUnsupportedFormat = errors.New("defaults file must be .toml, .yaml or .yml")

// File is a Provider backed by a TOML or YAML file. Invalid or missing
// content falls back to Builtin. Watch keeps it in sync with the disk.
type File struct {
	path string
	log  *logger.Logger

	mu  sync.RWMutex
	set *Set

	watcher  *fsnotify.Watcher
	debounce time.Duration
	timer    *time.Timer
	timerMu  sync.Mutex
	stop     chan struct{}
}

func NewFile(path string, log *logger.Logger) *File {
	f := &File{
		path:     path,
		log:      logger.OrNop(log),
		set:      Builtin(),
		debounce: 100 * time.Millisecond,
	}
	if err := f.Reload(); err != nil {
		f.log.Warn("defaults file not loaded, using built-ins", "path", path, "error", err)
	}
	return f
}

func (f *File) current() *Set {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.set
}

func (f *File) Analysts() []models.Analyst   { return f.current().Analysts() }
func (f *File) Questions() []models.Question { return f.current().Questions() }
func (f *File) DefaultLocale() string        { return f.current().DefaultLocale() }

// Reload parses the file again. The previous set stays active on error.
func (f *File) Reload() error {
	set, err := Parse(f.path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.set = set
	f.mu.Unlock()
	f.log.Info("defaults loaded", "path", f.path, "analysts", len(set.AnalystList), "questions", len(set.QuestionList))
	return nil
}

// Parse reads a defaults file. Empty sections are filled from Builtin.
func Parse(path string) (*Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set Set
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(b, &set)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &set)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	builtin := Builtin()
	if len(set.AnalystList) == 0 {
		set.AnalystList = builtin.AnalystList
	}
	if len(set.QuestionList) == 0 {
		set.QuestionList = builtin.QuestionList
	}
	for i, a := range set.AnalystList {
		if strings.TrimSpace(a.ID) == "" {
			return nil, fmt.Errorf("analyst %d: missing id", i)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("analyst %q: %w", a.ID, err)
		}
	}
	for i, q := range set.QuestionList {
		if strings.TrimSpace(q.ID) == "" {
			return nil, fmt.Errorf("question %d: missing id", i)
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %q: %w", q.ID, err)
		}
	}
	return &set, nil
}

// Watch reloads the file whenever it changes. The parent directory is
// watched so editors that replace the file are picked up too.
func (f *File) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		w.Close()
		return err
	}
	f.watcher = w
	f.stop = make(chan struct{})
	go f.watchLoop()
	return nil
}

func (f *File) Close() {
	if f.watcher == nil {
		return
	}
	close(f.stop)
	f.watcher.Close()
	f.timerMu.Lock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timerMu.Unlock()
}

func (f *File) watchLoop() {
	target := filepath.Clean(f.path)
	for {
		select {
		case <-f.stop:
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			f.timerMu.Lock()
			if f.timer != nil {
				f.timer.Stop()
			}
			f.timer = time.AfterFunc(f.debounce, func() {
				if err := f.Reload(); err != nil {
					f.log.Warn("defaults reload failed, keeping previous", "path", f.path, "error", err)
				}
			})
			f.timerMu.Unlock()
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Warn("defaults watcher error", "error", err)
		}
	}
}
