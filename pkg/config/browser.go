package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/gobwas/glob"
)

const (
	// SectionIDBrowser is the identifier for the browser section
	SectionIDBrowser = "browser"

	DriverStatic     = "static"
	DriverPlaywright = "playwright"
	DriverRod        = "rod"

	defaultDriver            = DriverRod
	defaultDebuggerURL       = "http://127.0.0.1:9222"
	defaultTabPattern        = "http*://*"
	defaultNavigationTimeout = 30 * time.Second
)

// BrowserSection selects how Suzzy reaches the page it reads.
type BrowserSection struct {
	// Driver is one of static, playwright or rod
	Driver string

	// Headless applies to browsers Suzzy launches itself
	Headless bool

	// DebuggerURL is the DevTools endpoint of a running Chrome (rod driver);
	// empty launches a local Chrome instead
	DebuggerURL string

	// StartURL is loaded by the static and playwright drivers
	StartURL string

	// TabPattern is a glob over tab URLs used to pick the active tab (rod driver)
	TabPattern string

	// NavigationTimeout bounds page loads
	NavigationTimeout time.Duration

	mu sync.RWMutex
}

// NewBrowserSection creates a browser section with defaults.
func NewBrowserSection() *BrowserSection {
	return &BrowserSection{
		Driver:            defaultDriver,
		DebuggerURL:       defaultDebuggerURL,
		TabPattern:        defaultTabPattern,
		NavigationTimeout: defaultNavigationTimeout,
	}
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"driver":             s.Driver,
		"headless":           s.Headless,
		"debugger_url":       s.DebuggerURL,
		"start_url":          s.StartURL,
		"tab_pattern":        s.TabPattern,
		"navigation_timeout": s.NavigationTimeout.String(),
	}
}

// SetData updates the configuration from the provided data.
//
// navigation_timeout accepts a duration string ("45s") or a number of seconds.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["driver"].(string); ok {
		s.Driver = v
	}
	if v, ok := data["headless"].(bool); ok {
		s.Headless = v
	}
	if v, ok := data["debugger_url"].(string); ok {
		s.DebuggerURL = v
	}
	if v, ok := data["start_url"].(string); ok {
		s.StartURL = v
	}
	if v, ok := data["tab_pattern"].(string); ok {
		s.TabPattern = v
	}

	switch v := data["navigation_timeout"].(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid navigation_timeout %q: %w", v, err)
		}
		s.NavigationTimeout = d
	case float64:
		s.NavigationTimeout = time.Duration(v * float64(time.Second))
	case int:
		s.NavigationTimeout = time.Duration(v) * time.Second
	}

	return nil
}

// Validate checks the driver name and the tab pattern.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.Driver {
	case DriverStatic, DriverPlaywright, DriverRod:
	default:
		return fmt.Errorf("unknown driver %q (want %s, %s or %s)", s.Driver, DriverStatic, DriverPlaywright, DriverRod)
	}

	if s.TabPattern != "" {
		if _, err := glob.Compile(s.TabPattern); err != nil {
			return fmt.Errorf("invalid tab_pattern %q: %w", s.TabPattern, err)
		}
	}

	if s.NavigationTimeout < 0 {
		return fmt.Errorf("navigation_timeout must not be negative")
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Driver = defaultDriver
	s.Headless = false
	s.DebuggerURL = defaultDebuggerURL
	s.StartURL = ""
	s.TabPattern = defaultTabPattern
	s.NavigationTimeout = defaultNavigationTimeout
}

// Snapshot returns a copy of the settings safe to read without locking.
func (s *BrowserSection) Snapshot() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BrowserSettings{
		Driver:            s.Driver,
		Headless:          s.Headless,
		DebuggerURL:       s.DebuggerURL,
		StartURL:          s.StartURL,
		TabPattern:        s.TabPattern,
		NavigationTimeout: s.NavigationTimeout,
	}
}

// Apply overwrites settings with the non-zero fields of o.
func (s *BrowserSection) Apply(o BrowserSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.Driver != "" {
		s.Driver = o.Driver
	}
	if o.Headless {
		s.Headless = true
	}
	if o.DebuggerURL != "" {
		s.DebuggerURL = o.DebuggerURL
	}
	if o.StartURL != "" {
		s.StartURL = o.StartURL
	}
	if o.TabPattern != "" {
		s.TabPattern = o.TabPattern
	}
	if o.NavigationTimeout > 0 {
		s.NavigationTimeout = o.NavigationTimeout
	}
}

// BrowserSettings is a plain copy of BrowserSection's values.
type BrowserSettings struct {
	Driver            string
	Headless          bool
	DebuggerURL       string
	StartURL          string
	TabPattern        string
	NavigationTimeout time.Duration
}
