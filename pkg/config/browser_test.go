package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserSection_Defaults(t *testing.T) {
	s := NewBrowserSection()
	assert.Equal(t, SectionIDBrowser, s.ID())
	assert.NoError(t, s.Validate())

	got := s.Snapshot()
	assert.Equal(t, DriverRod, got.Driver)
	assert.Equal(t, "http://127.0.0.1:9222", got.DebuggerURL)
	assert.Equal(t, "http*://*", got.TabPattern)
	assert.Equal(t, 30*time.Second, got.NavigationTimeout)
	assert.Equal(t, "30s", s.Data()["navigation_timeout"])
}

func TestBrowserSection_SetData(t *testing.T) {
	tests := []struct {
		name    string
		timeout interface{}
		want    time.Duration
		wantErr bool
	}{
		{name: "duration string", timeout: "45s", want: 45 * time.Second},
		{name: "float seconds", timeout: float64(1.5), want: 1500 * time.Millisecond},
		{name: "int seconds", timeout: 10, want: 10 * time.Second},
		{name: "bad string", timeout: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewBrowserSection()
			err := s.SetData(map[string]interface{}{
				"driver":             DriverPlaywright,
				"headless":           true,
				"start_url":          "https://example.com",
				"navigation_timeout": tt.timeout,
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			got := s.Snapshot()
			assert.Equal(t, DriverPlaywright, got.Driver)
			assert.True(t, got.Headless)
			assert.Equal(t, "https://example.com", got.StartURL)
			assert.Equal(t, tt.want, got.NavigationTimeout)
		})
	}
}

func TestBrowserSection_Validate(t *testing.T) {
	s := NewBrowserSection()
	s.Apply(BrowserSettings{Driver: "firefox"})
	assert.ErrorContains(t, s.Validate(), "unknown driver")

	s.Reset()
	s.Apply(BrowserSettings{TabPattern: "https://[docs*"})
	assert.ErrorContains(t, s.Validate(), "invalid tab_pattern")

	s.Reset()
	s.NavigationTimeout = -time.Second
	assert.Error(t, s.Validate())
}

func TestBrowserSection_Apply(t *testing.T) {
	s := NewBrowserSection()
	s.Apply(BrowserSettings{Driver: DriverStatic, StartURL: "./page.html"})

	got := s.Snapshot()
	assert.Equal(t, DriverStatic, got.Driver)
	assert.Equal(t, "./page.html", got.StartURL)
	assert.Equal(t, "http://127.0.0.1:9222", got.DebuggerURL, "zero fields leave values alone")
	assert.False(t, got.Headless)
}
