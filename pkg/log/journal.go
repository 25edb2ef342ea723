package log

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	// EmptyJournal is returned by Flush when nothing was recorded for an entity.
	EmptyJournal = "[No logs recorded]"

	// DefaultTimeZone is the zone journal timestamps are rendered in.
	DefaultTimeZone = "America/Toronto"

	journalTimeLayout = "2006-01-02 15:04"
)

// Journal buffers timestamped lines per entity for a single workflow run.
// A journal must not be shared between runs.
type Journal struct {
	mu       sync.Mutex
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
	entries  map[string][]string
}

type JournalOption func(*Journal)

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) JournalOption {
	return func(j *Journal) {
		j.now = now
	}
}

// WithLogger mirrors every recorded line to logger at debug level.
func WithLogger(logger *slog.Logger) JournalOption {
	return func(j *Journal) {
		j.logger = logger
	}
}

func NewJournal(location *time.Location, opts ...JournalOption) *Journal {
	if location == nil {
		location = time.UTC
	}

	j := &Journal{
		location: location,
		now:      time.Now,
		entries:  make(map[string][]string),
	}

	for _, opt := range opts {
		opt(j)
	}

	return j
}

// LoadLocation resolves a zone name, falling back to UTC when the zone
// database does not know it.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimeZone
	}

	location, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("Unknown time zone, using UTC", "zone", name, "error", err)

		return time.UTC
	}

	return location
}

// Record appends "[YYYY-MM-DD HH:mm] message" to the entity's sequence.
func (j *Journal) Record(entityID, message string) {
	line := "[" + j.now().In(j.location).Format(journalTimeLayout) + "] " + message

	j.mu.Lock()
	j.entries[entityID] = append(j.entries[entityID], line)
	j.mu.Unlock()

	if j.logger != nil {
		j.logger.Log(context.Background(), slog.LevelDebug, message, "entity_id", entityID)
	}
}

// Lines returns a copy of the entity's recorded lines.
func (j *Journal) Lines(entityID string) []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	lines := make([]string, len(j.entries[entityID]))
	copy(lines, j.entries[entityID])

	return lines
}

// Flush joins the entity's lines with newlines. The buffer is left intact.
func (j *Journal) Flush(entityID string) string {
	j.mu.Lock()
	defer j.mu.Unlock()

	lines := j.entries[entityID]
	if len(lines) == 0 {
		return EmptyJournal
	}

	return strings.Join(lines, "\n")
}
