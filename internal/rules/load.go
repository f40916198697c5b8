package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Load reads and compiles a ruleset from a TOML file.
func Load(path string) (*Ruleset, error) {
	var rs Ruleset
	if _, err := toml.DecodeFile(path, &rs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := rs.Compile(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return &rs, nil
}

// EnsureFile writes the default ruleset to path if no file exists yet, then
// loads whatever is there. First run seeds the editable tables; later runs
// pick up local edits.
func EnsureFile(path string) (*Ruleset, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create rules dir: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		enc := toml.NewEncoder(f)
		if err := enc.Encode(DefaultRuleset()); err != nil {
			f.Close()
			return nil, fmt.Errorf("write default rules: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
	return Load(path)
}
