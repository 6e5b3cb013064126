package records

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML inventory seed format.
type SeedFile struct {
	EventID   string       `yaml:"event_id"`
	EventName string       `yaml:"event_name"`
	Records   []SeedRecord `yaml:"records"`
}

// SeedRecord is one seeded inventory row.
type SeedRecord struct {
	ID         string `yaml:"id"`
	Holder     string `yaml:"holder"`
	Assigned   bool   `yaml:"assigned"`
	Returnable *bool  `yaml:"returnable"` // nil defaults to true
	DueAt      string `yaml:"due_at"`     // RFC 3339, optional
}

// LoadSeedFile parses a YAML seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if seed.EventID == "" {
		return nil, fmt.Errorf("seed file %s: event_id is required", path)
	}
	return &seed, nil
}

// Seed writes every seed record into the store.
// Returns the number of records written.
func (s *Store) Seed(ctx context.Context, seed *SeedFile) (int, error) {
	for i, sr := range seed.Records {
		if sr.ID == "" {
			return i, fmt.Errorf("seed record %d: id is required", i)
		}

		rec := Record{
			ID:         sr.ID,
			EventID:    seed.EventID,
			EventName:  seed.EventName,
			Holder:     sr.Holder,
			Assigned:   sr.Assigned,
			Returnable: sr.Returnable == nil || *sr.Returnable,
		}
		if sr.DueAt != "" {
			ts, err := time.Parse(time.RFC3339, sr.DueAt)
			if err != nil {
				return i, fmt.Errorf("seed record %s: bad due_at: %w", sr.ID, err)
			}
			rec.DueAt = &ts
		}

		if err := s.Put(ctx, rec); err != nil {
			return i, fmt.Errorf("seed record %s: %w", sr.ID, err)
		}
	}
	return len(seed.Records), nil
}
