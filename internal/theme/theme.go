package theme

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Theme is a named colour palette
type Theme struct {
	Name          string
	Primary       string
	Secondary     string
	Accent        string
	Background    string
	Surface       string
	Text          string
	TextSecondary string
	Border        string
	Shadow        string
	Gradient      string
	Glass         string
	GlassStroke   string
	Transition    string
}

// IsDark reports whether this is the dark palette
func (t Theme) IsDark() bool {
	return t.Name == Dark.Name
}

var Light = Theme{
	Name:          "light",
	Primary:       "#00c2ff",
	Secondary:     "#6e00ff",
	Accent:        "#ff0099",
	Background:    "#f8f9fc",
	Surface:       "#ffffff",
	Text:          "#1a1a2e",
	TextSecondary: "#4a4a68",
	Border:        "rgba(0, 0, 0, 0.08)",
	Shadow:        "0 8px 30px rgba(0, 0, 0, 0.12)",
	Gradient:      "linear-gradient(135deg, #00c2ff 0%, #6e00ff 100%)",
	Glass:         "rgba(255, 255, 255, 0.7)",
	GlassStroke:   "rgba(255, 255, 255, 0.5)",
	Transition:    "0.3s ease-out",
}

var Dark = Theme{
	Name:          "dark",
	Primary:       "#00c2ff",
	Secondary:     "#6e00ff",
	Accent:        "#ff0099",
	Background:    "#0f1021",
	Surface:       "#1a1b36",
	Text:          "#ffffff",
	TextSecondary: "#a0a0c8",
	Border:        "rgba(255, 255, 255, 0.08)",
	Shadow:        "0 8px 30px rgba(0, 0, 0, 0.3)",
	Gradient:      "linear-gradient(135deg, #00c2ff 0%, #6e00ff 100%)",
	Glass:         "rgba(26, 27, 54, 0.7)",
	GlassStroke:   "rgba(255, 255, 255, 0.1)",
	Transition:    "0.3s ease-out",
}

// ByName returns the palette with the given name
func ByName(name string) (Theme, bool) {
	switch name {
	case Light.Name:
		return Light, true
	case Dark.Name:
		return Dark, true
	}
	return Theme{}, false
}

// Storage persists a visitor's chosen theme name
type Storage interface {
	// Get returns the saved theme name, or "" when the visitor has none
	Get(ctx context.Context, visitor string) (string, error)
	Set(ctx context.Context, visitor, name string) error
}

// Service resolves and toggles the theme of a visitor
type Service struct {
	storage Storage
}

// NewService creates a theme service backed by storage
func NewService(storage Storage) *Service {
	return &Service{storage: storage}
}

// Current returns the saved theme, or the system preference when nothing
// valid is saved. Storage failures fall back to the system preference.
func (s *Service) Current(ctx context.Context, visitor string, prefersDark bool) Theme {
	name, err := s.storage.Get(ctx, visitor)
	if err != nil {
		log.Printf("Theme: failed to load preference for %s: %v", visitor, err)
	}
	if t, ok := ByName(name); ok {
		return t
	}
	if prefersDark {
		return Dark
	}
	return Light
}

// Toggle switches the visitor to the other palette and saves the choice
func (s *Service) Toggle(ctx context.Context, visitor string, prefersDark bool) (Theme, error) {
	next := Dark
	if s.Current(ctx, visitor, prefersDark).IsDark() {
		next = Light
	}
	if err := s.storage.Set(ctx, visitor, next.Name); err != nil {
		return next, fmt.Errorf("failed to save theme: %w", err)
	}
	return next, nil
}

// MemoryStorage keeps preferences in process memory
type MemoryStorage struct {
	mu    sync.Mutex
	names map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{names: make(map[string]string)}
}

func (m *MemoryStorage) Get(ctx context.Context, visitor string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.names[visitor], nil
}

func (m *MemoryStorage) Set(ctx context.Context, visitor, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[visitor] = name
	return nil
}
