package config

import (
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
)

// credentialsKey is stripped from runtime updates so secrets are never
// persisted to the config file.
const credentialsKey = "credentials"

// Manager guards a Config for concurrent readers and writers and persists
// runtime updates back to the file it was loaded from.
type Manager struct {
	mu   sync.RWMutex
	path string
	cfg  *Config
}

// NewManager wraps an already loaded configuration. path is where updates
// are written back.
func NewManager(path string, cfg *Config) *Manager {
	return &Manager{path: path, cfg: cfg}
}

// Get returns a copy of the current configuration. The copy is safe to
// read after later updates.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp := *m.cfg
	if m.cfg.Fonts.SearchDirs != nil {
		cp.Fonts.SearchDirs = append([]string(nil), m.cfg.Fonts.SearchDirs...)
	}
	return cp
}

// Update merges a partial update into the current configuration, validates
// the result, persists it, and returns the new state. Section objects merge
// field-wise; scalar values replace. Credential keys are dropped.
func (m *Manager) Update(updates map[string]any) (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(updates, credentialsKey)

	// Round-trip through JSON maps for a shallow section merge, then decode
	// back into the typed config.
	raw, err := sonic.Marshal(m.cfg)
	if err != nil {
		return Config{}, fmt.Errorf("encoding current config: %w", err)
	}
	var current map[string]any
	if err := sonic.Unmarshal(raw, &current); err != nil {
		return Config{}, fmt.Errorf("decoding current config: %w", err)
	}

	for key, value := range updates {
		section, ok := value.(map[string]any)
		existing, haveSection := current[key].(map[string]any)
		if ok && haveSection {
			for k, v := range section {
				existing[k] = v
			}
			continue
		}
		current[key] = value
	}

	merged, err := sonic.Marshal(current)
	if err != nil {
		return Config{}, fmt.Errorf("encoding merged config: %w", err)
	}
	var next Config
	if err := sonic.Unmarshal(merged, &next); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := next.Validate(); err != nil {
		return Config{}, err
	}
	if err := Save(m.path, &next); err != nil {
		return Config{}, err
	}

	m.cfg = &next
	return next, nil
}
