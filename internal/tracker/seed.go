package tracker

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Jobs []JobRecord `yaml:"jobs"`
}

// ParseSeed decodes a seed list. Every record starts untouched; ids must be
// unique and company and position must be set.
func ParseSeed(data []byte) ([]JobRecord, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}

	seen := make(map[int]bool, len(f.Jobs))
	for i := range f.Jobs {
		r := &f.Jobs[i]
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = true
		if strings.TrimSpace(r.CompanyName) == "" || strings.TrimSpace(r.Position) == "" {
			return nil, fmt.Errorf("job %d: company name and position are required", r.ID)
		}
		r.Status = StatusNone
	}
	return f.Jobs, nil
}

// LoadSeed reads a seed list from path, or the built-in list when path is
// empty.
func LoadSeed(path string) ([]JobRecord, error) {
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

func DefaultSeed() ([]JobRecord, error) {
	return ParseSeed(defaultSeed)
}
