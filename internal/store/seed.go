package store

import (
	"context"
	"fmt"
	"os"

	"github.com/rbright/intervu/internal/interview"
	"gopkg.in/yaml.v3"
)

// SeedEntry is one question set keyed by candidate email in a seed file.
type SeedEntry struct {
	Email         string `yaml:"email"`
	interview.Set `yaml:",inline"`
}

type seedFile struct {
	Sets []SeedEntry `yaml:"sets"`
}

// LoadSeed reads and validates a YAML question-bank seed file.
func LoadSeed(path string) ([]SeedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes seed YAML. Every set must validate and carry at least one question.
func ParseSeed(data []byte) ([]SeedEntry, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	if len(file.Sets) == 0 {
		return nil, fmt.Errorf("seed file has no sets")
	}

	for i := range file.Sets {
		entry := &file.Sets[i]
		entry.Email = normalizeEmail(entry.Email)
		if len(entry.Questions) == 0 {
			return nil, fmt.Errorf("seed set %d (%s) has no questions", i+1, entry.Email)
		}
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("seed set %d (%s): %w", i+1, entry.Email, err)
		}
	}
	return file.Sets, nil
}

// Seed writes every entry into s in file order.
func Seed(ctx context.Context, s Store, entries []SeedEntry) error {
	for _, entry := range entries {
		if err := s.SaveSet(ctx, entry.Email, entry.Set); err != nil {
			return fmt.Errorf("seed %s: %w", entry.Email, err)
		}
	}
	return nil
}
