// Package config persists Suzzy's settings in sections: the credential, the
// completion endpoint and the browser driver.
//
// Values resolve with the precedence CLI flags > environment > config file >
// defaults. Flag and environment values are held as in-memory overrides so
// they never leak into the file.
package config

import (
	"fmt"
	"strings"
)

const (
	// EnvAPIKey supplies the Groq API key
	EnvAPIKey = "GROQ_API_KEY"

	// EnvBaseURL supplies an OpenAI-compatible base URL
	EnvBaseURL = "GROQ_BASE_URL"
)

// Config bundles the manager with its typed sections.
type Config struct {
	Manager    *Manager
	Credential *CredentialSection
	LLM        *LLMSection
	Browser    *BrowserSection
}

// Overrides are values supplied on the command line.
type Overrides struct {
	APIKey  string
	Model   string
	BaseURL string
	Browser BrowserSettings
}

// Open loads the configuration at path (default ~/.suzzy/config.json).
func Open(path string) (*Config, error) {
	store, err := NewFileStore(path)
	if err != nil {
		return nil, err
	}
	return New(store)
}

// New registers the default sections on store and loads them.
func New(store Store) (*Config, error) {
	c := &Config{
		Manager:    NewManager(store),
		Credential: NewCredentialSection(),
		LLM:        NewLLMSection(),
		Browser:    NewBrowserSection(),
	}

	for _, section := range []Section{c.Credential, c.LLM, c.Browser} {
		if err := c.Manager.RegisterSection(section); err != nil {
			return nil, err
		}
	}

	if err := c.Manager.LoadAll(); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply layers environment and flag values over the loaded file values.
// getenv is usually os.Getenv.
func (c *Config) Apply(o Overrides, getenv func(string) string) error {
	apiKey := firstNonEmpty(o.APIKey, getenv(EnvAPIKey))
	if apiKey != "" {
		if err := ValidateCredential(apiKey); err != nil {
			return fmt.Errorf("api key from flag or %s: %w", EnvAPIKey, err)
		}
		c.Credential.SetOverride(apiKey)
	}

	c.LLM.SetOverrides(o.Model, firstNonEmpty(o.BaseURL, getenv(EnvBaseURL)))
	c.Browser.Apply(o.Browser)

	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm settings: %w", err)
	}
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser settings: %w", err)
	}
	return nil
}

// APIKey returns the key in effect, or "" when none is configured.
func (c *Config) APIKey() string {
	return c.Credential.APIKey()
}

// SaveCredential validates and persists key.
func (c *Config) SaveCredential(key string) error {
	if err := ValidateCredential(key); err != nil {
		return err
	}

	previous := c.Credential.StoredKey()
	c.Credential.SetAPIKey(key)
	if err := c.Manager.SaveSection(SectionIDCredential); err != nil {
		c.Credential.SetAPIKey(previous)
		return err
	}
	return nil
}

// DeleteCredential removes the stored key and any override.
func (c *Config) DeleteCredential() error {
	return c.Manager.ResetSection(SectionIDCredential)
}

// CredentialOverridden reports whether the key in use came from a flag or
// the environment rather than the config file.
func (c *Config) CredentialOverridden() bool {
	return c.Credential.HasOverride()
}

// Path returns the config file location, or "" for stores not backed by a file.
func (c *Config) Path() string {
	if fs, ok := c.Manager.Store().(interface{ Path() string }); ok {
		return fs.Path()
	}
	return ""
}

// Endpoint returns the model and base URL in effect; empty means provider default.
func (c *Config) Endpoint() (model, baseURL string) {
	return c.LLM.GetModel(), c.LLM.GetBaseURL()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
