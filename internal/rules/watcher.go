package rules

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Watcher polls the rule directories and reloads the RuleSet when the content
// of any rule file changes. It polls instead of using filesystem notifications
// so it behaves the same on every platform the host runs on.
type Watcher struct {
	dirs        []string
	defaultFile string
	interval    time.Duration
	onChange    func(*RuleSet)

	mu       sync.Mutex
	lastSum  [blake2b.Size256]byte
	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher records the current digest of dirs. Call Run to start polling.
func NewWatcher(dirs []string, defaultFile string, onChange func(*RuleSet), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		dirs:        dirs,
		defaultFile: defaultFile,
		interval:    5 * time.Second,
		onChange:    onChange,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	sum, err := DigestDirs(dirs)
	if err != nil {
		return nil, fmt.Errorf("rules: watcher initial digest: %w", err)
	}
	w.lastSum = sum
	return w, nil
}

// Run polls until ctx is cancelled or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Stop stops polling.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

// Check reloads the rules if the directory digest changed since the last
// check. A reload that fails keeps the previous rules.
func (w *Watcher) Check(ctx context.Context) bool {
	sum, err := DigestDirs(w.dirs)
	if err != nil {
		slog.Warn("rules watcher: cannot digest rule directories", "err", err)
		return false
	}

	w.mu.Lock()
	if sum == w.lastSum {
		w.mu.Unlock()
		return false
	}
	w.mu.Unlock()

	rs, err := Load(ctx, w.dirs, w.defaultFile)
	if err != nil {
		slog.Warn("rules watcher: reload failed", "err", err)
		return false
	}

	w.mu.Lock()
	w.lastSum = sum
	w.mu.Unlock()

	slog.Info("rules watcher: rules reloaded", "rules", len(rs.Rules))
	if w.onChange != nil {
		w.onChange(rs)
	}
	return true
}

// DigestDirs hashes the names and contents of every rule file under dirs.
// Missing directories hash as empty.
func DigestDirs(dirs []string) ([blake2b.Size256]byte, error) {
	var zero [blake2b.Size256]byte

	h, err := blake2b.New256(nil)
	if err != nil {
		return zero, err
	}

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return zero, err
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
				names = append(names, e.Name())
			}
		}
		slices.Sort(names)

		for _, name := range names {
			raw, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return zero, err
			}
			h.Write([]byte(filepath.Join(dir, name)))
			h.Write([]byte{0})
			h.Write(raw)
			h.Write([]byte{0})
		}
	}

	var sum [blake2b.Size256]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
