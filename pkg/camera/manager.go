package camera

import (
	"fmt"
	"strings"
	"sync"
)

// Update is a partial settings change. Nil fields are left as they are;
// Preset, when set, replaces the capture settings before the other fields
// apply. Source and device are fixed at startup.
type Update struct {
	Preset        string `json:"preset,omitempty"`
	Width         *int   `json:"width,omitempty"`
	Height        *int   `json:"height,omitempty"`
	Framerate     *int   `json:"framerate,omitempty"`
	Quality       *int   `json:"quality,omitempty"`
	MaxFrameAgeMs *int   `json:"max_frame_age_ms,omitempty"`
}

// Manager owns the live camera settings. Changes go through OnConfigChange
// first and are only stored once the active source accepted them.
type Manager struct {
	applyMu sync.Mutex

	mu     sync.RWMutex
	config Config

	// OnConfigChange pushes accepted settings to the active source.
	OnConfigChange func(cfg Config) error
}

// NewManager creates a manager seeded with cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// Config returns the current settings.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Apply merges u into the current settings and stores the result.
func (m *Manager) Apply(u Update) (Config, error) {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	cfg := m.Config()
	if u.Preset != "" {
		p := GetPreset(u.Preset)
		if p == nil {
			return cfg, fmt.Errorf("camera: unknown preset %q", u.Preset)
		}
		cfg.Width, cfg.Height = p.Width, p.Height
		cfg.Framerate, cfg.Quality = p.Framerate, p.Quality
	}

	for dst, src := range map[*int]*int{
		&cfg.Width:         u.Width,
		&cfg.Height:        u.Height,
		&cfg.Framerate:     u.Framerate,
		&cfg.Quality:       u.Quality,
		&cfg.MaxFrameAgeMs: u.MaxFrameAgeMs,
	} {
		if src != nil {
			*dst = *src
		}
	}

	if err := m.setLocked(cfg); err != nil {
		return m.Config(), err
	}
	return cfg, nil
}

// setLocked validates cfg, hands it to OnConfigChange and stores it.
func (m *Manager) setLocked(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: invalid settings: %s", strings.Join(errs, "; "))
	}
	if m.OnConfigChange != nil {
		if err := m.OnConfigChange(cfg); err != nil {
			return fmt.Errorf("camera: apply settings: %w", err)
		}
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}
