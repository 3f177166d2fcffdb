package config

import (
	"errors"
	"strings"
	"sync"
)

const (
	// SectionIDCredential is the identifier for the credential section
	SectionIDCredential = "credential"

	// CredentialKey is the stored key holding the Groq API key
	CredentialKey = "groq_api_key"

	// CredentialPrefix is the prefix every Groq API key carries
	CredentialPrefix = "gsk_"
)

// ErrCredentialInvalid is returned for keys that do not look like Groq API keys.
var ErrCredentialInvalid = errors.New("please enter a valid Groq API key (starts with 'gsk_')")

// ValidateCredential checks the shape of a Groq API key.
func ValidateCredential(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || !strings.HasPrefix(key, CredentialPrefix) {
		return ErrCredentialInvalid
	}
	return nil
}

// CredentialSection holds the user's API key.
//
// A key supplied by flag or environment is kept as an override: it is used
// for requests but never written to the store.
type CredentialSection struct {
	apiKey   string
	override string
	mu       sync.RWMutex
}

// NewCredentialSection creates an empty credential section.
func NewCredentialSection() *CredentialSection {
	return &CredentialSection{}
}

// ID returns the section identifier.
func (s *CredentialSection) ID() string {
	return SectionIDCredential
}

// Data returns the persisted key. Overrides are not included.
func (s *CredentialSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.apiKey == "" {
		return map[string]interface{}{}
	}
	return map[string]interface{}{CredentialKey: s.apiKey}
}

// SetData updates the stored key from data.
func (s *CredentialSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := data[CredentialKey].(string); ok {
		s.apiKey = strings.TrimSpace(key)
	}
	return nil
}

// Validate accepts an empty key or a well-formed one.
func (s *CredentialSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.apiKey == "" {
		return nil
	}
	return ValidateCredential(s.apiKey)
}

// Reset forgets both the stored key and any override.
func (s *CredentialSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = ""
	s.override = ""
}

// APIKey returns the key to use: the override if set, else the stored key.
func (s *CredentialSection) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.override != "" {
		return s.override
	}
	return s.apiKey
}

// StoredKey returns the persisted key, ignoring any override.
func (s *CredentialSection) StoredKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// SetAPIKey sets the stored key.
func (s *CredentialSection) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = strings.TrimSpace(key)
}

// SetOverride sets a key that takes precedence over the stored one without being persisted.
func (s *CredentialSection) SetOverride(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = strings.TrimSpace(key)
}

// HasOverride reports whether the key in use came from a flag or the environment.
func (s *CredentialSection) HasOverride() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.override != ""
}
