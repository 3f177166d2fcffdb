package config

import (
	"fmt"
	"sync"
)

// Section is a named group of settings persisted under its ID.
type Section interface {
	// ID is the key the section's data is stored under
	ID() string

	// Data returns the section's persistable settings
	Data() map[string]interface{}

	// SetData replaces settings from stored data, ignoring unknown keys
	SetData(data map[string]interface{}) error

	// Validate reports whether the current settings can be saved
	Validate() error

	// Reset restores defaults
	Reset()
}

// Manager owns a set of sections and moves their data to and from a Store.
type Manager struct {
	store    Store
	sections map[string]Section
	order    []string
	mu       sync.RWMutex
}

// NewManager creates a manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sections: make(map[string]Section),
	}
}

// Store returns the backing store.
func (m *Manager) Store() Store {
	return m.store
}

// RegisterSection adds a section. IDs must be unique.
func (m *Manager) RegisterSection(section Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := section.ID()
	if _, exists := m.sections[id]; exists {
		return fmt.Errorf("section %q already registered", id)
	}

	m.sections[id] = section
	m.order = append(m.order, id)
	return nil
}

// GetSection returns the section registered under id.
func (m *Manager) GetSection(id string) (Section, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	section, ok := m.sections[id]
	return section, ok
}

// GetSections returns all sections in registration order.
func (m *Manager) GetSections() []Section {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sections := make([]Section, 0, len(m.order))
	for _, id := range m.order {
		sections = append(sections, m.sections[id])
	}
	return sections
}

// LoadAll reloads the store and pushes stored data into every section.
func (m *Manager) LoadAll() error {
	if err := m.store.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	for _, section := range m.GetSections() {
		data, err := m.store.GetSection(section.ID())
		if err != nil {
			return fmt.Errorf("failed to read section %q: %w", section.ID(), err)
		}
		if len(data) == 0 {
			continue
		}
		if err := section.SetData(data); err != nil {
			return fmt.Errorf("failed to apply section %q: %w", section.ID(), err)
		}
	}
	return nil
}

// SaveSection validates and persists a single section.
func (m *Manager) SaveSection(id string) error {
	section, ok := m.GetSection(id)
	if !ok {
		return fmt.Errorf("section %q not registered", id)
	}

	if err := section.Validate(); err != nil {
		return fmt.Errorf("invalid section %q: %w", id, err)
	}
	if err := m.store.SetSection(id, section.Data()); err != nil {
		return fmt.Errorf("failed to store section %q: %w", id, err)
	}
	if err := m.store.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

// ResetSection restores a section's defaults and persists them.
func (m *Manager) ResetSection(id string) error {
	section, ok := m.GetSection(id)
	if !ok {
		return fmt.Errorf("section %q not registered", id)
	}

	section.Reset()
	return m.SaveSection(id)
}
