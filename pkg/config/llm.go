package config

import (
	"fmt"
	"net/url"
	"sync"
)

const (
	// SectionIDLLM is the identifier for the LLM settings section
	SectionIDLLM = "llm"
)

// LLMSection selects the completion endpoint and model.
// Empty values fall back to the provider defaults (Groq, llama3-8b-8192).
type LLMSection struct {
	Model   string
	BaseURL string

	modelOverride   string
	baseURLOverride string
	mu              sync.RWMutex
}

// NewLLMSection creates a new LLM section with default settings.
func NewLLMSection() *LLMSection {
	return &LLMSection{}
}

// ID returns the section identifier.
func (s *LLMSection) ID() string {
	return SectionIDLLM
}

// Data returns the current configuration data.
func (s *LLMSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"model":    s.Model,
		"base_url": s.BaseURL,
	}
}

// SetData updates the configuration from the provided data.
func (s *LLMSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if model, ok := data["model"].(string); ok {
		s.Model = model
	}

	if baseURL, ok := data["base_url"].(string); ok {
		s.BaseURL = baseURL
	}

	return nil
}

// Validate checks that the base URL in effect, stored or overridden, is absolute.
func (s *LLMSection) Validate() error {
	baseURL := s.GetBaseURL()
	if baseURL == "" {
		return nil
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", baseURL)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *LLMSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model = ""
	s.BaseURL = ""
	s.modelOverride = ""
	s.baseURLOverride = ""
}

// GetModel returns the model in effect.
func (s *LLMSection) GetModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.modelOverride != "" {
		return s.modelOverride
	}
	return s.Model
}

// GetBaseURL returns the base URL in effect.
func (s *LLMSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.baseURLOverride != "" {
		return s.baseURLOverride
	}
	return s.BaseURL
}

// SetOverrides sets non-persisted values that win over the stored ones.
// Empty arguments leave the stored values in effect.
func (s *LLMSection) SetOverrides(model, baseURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelOverride = model
	s.baseURLOverride = baseURL
}
