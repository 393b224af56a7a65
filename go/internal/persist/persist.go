// Package persist implements the best-effort crash-recovery snapshot. There
// is deliberately no database: running tournaments are flushed to a single
// JSON file on graceful shutdown and read back once on the next startup so a
// server bounce does not interrupt a game.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/seanmccall/pokerclock/go/internal/push"
)

// FileName is the snapshot file kept under the data directory.
const FileName = "tournaments.json"

// Record is the stored form of one running tournament. The clock is stored as
// an explicit paused flag, absolute remaining, and as-of time rather than the
// wire encoding, which assumes near-instantaneous transit.
type Record struct {
	RoomID        uuid.UUID                       `json:"room_id"`
	Created       time.Time                       `json:"created"`
	Structure     string                          `json:"structure"`
	Level         int                             `json:"level"`
	Paused        bool                            `json:"paused"`
	RemainingMS   int64                           `json:"remaining_ms"`
	AsOf          time.Time                       `json:"asof"`
	OverrideMS    *int64                          `json:"override_ms,omitempty"`
	Subscriptions map[uuid.UUID]push.Subscription `json:"subscriptions"`
}

// Remaining is the stored remaining time.
func (r Record) Remaining() time.Duration {
	return time.Duration(r.RemainingMS) * time.Millisecond
}

// Override is the stored duration override, nil when unset.
func (r Record) Override() *time.Duration {
	if r.OverrideMS == nil {
		return nil
	}
	d := time.Duration(*r.OverrideMS) * time.Millisecond
	return &d
}

// Save writes the records to dir/FileName. Nothing is written when there are
// no records to keep.
func Save(dir string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal tournament records: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Info().Int("tournaments", len(records)).Str("path", path).Msg("saved running tournaments")
	return nil
}

// Load reads the snapshot file once and moves it aside so it is not consulted
// again until the next shutdown. A missing file is not an error; a corrupt
// file is reported and treated as empty.
func Load(dir string) ([]Record, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		log.Error().Err(err).Str("path", path).Msg("bad tournaments file, punting")
		records = nil
	}

	backup := path + ".backup"
	if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale backup: %w", err)
	}
	if err := os.Rename(path, backup); err != nil {
		return nil, fmt.Errorf("failed to move snapshot aside: %w", err)
	}
	return records, nil
}
