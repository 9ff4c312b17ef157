// Package watch remembers the last traffic-light color of every tracked
// subject and reports transitions between refresh passes.
package watch

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"PremiumSentinel/internal/board"
	"PremiumSentinel/internal/model"
)

// Change is one subject moving from one color to another.
type Change struct {
	Subject string
	From    model.Color
	To      model.Color
	Reason  string
}

// Watcher tracks colors with concurrency safety. An empty file path keeps
// state in memory only.
type Watcher struct {
	mu       sync.Mutex
	state    *State
	filePath string
	log      zerolog.Logger
	now      func() time.Time
}

// NewWatcher creates a Watcher, loading state from disk.
func NewWatcher(filePath string, log zerolog.Logger) (*Watcher, error) {
	state := &State{Colors: map[string]model.Color{}}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, err
		}
	}
	return &Watcher{
		state:    state,
		filePath: filePath,
		log:      log.With().Str("component", "watch").Logger(),
		now:      time.Now,
	}, nil
}

// Colors returns a copy of the last observed colors.
func (w *Watcher) Colors() map[string]model.Color {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]model.Color, len(w.state.Colors))
	for k, v := range w.state.Colors {
		out[k] = v
	}
	return out
}

// Observe records the colors on b and returns the subjects whose color
// differs from the previous pass, sorted by subject. The first sighting of a
// subject and transitions to or from Unknown are recorded but not reported.
// Switching strategy resets the baseline, so no changes are reported for
// that pass.
func (w *Watcher) Observe(b *board.Board) []Change {
	w.mu.Lock()
	defer w.mu.Unlock()

	reset := w.state.Strategy != b.Strategy
	w.state.Strategy = b.Strategy

	var changes []Change
	for subject, to := range b.Colors() {
		from, seen := w.state.Colors[subject]
		w.state.Colors[subject] = to
		if reset || !seen || from == to || from == model.Unknown || to == model.Unknown {
			continue
		}
		light, _ := b.Light(subject)
		changes = append(changes, Change{Subject: subject, From: from, To: to, Reason: light.Reason})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Subject < changes[j].Subject })

	if err := w.save(); err != nil {
		w.log.Error().Err(err).Msg("save watch state")
	}
	return changes
}

func (w *Watcher) save() error {
	if w.filePath == "" {
		return nil
	}
	return SaveState(w.filePath, w.state, w.now())
}
