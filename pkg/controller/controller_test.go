package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/entrhq/suzzy/pkg/assistant"
	"github.com/entrhq/suzzy/pkg/config"
	"github.com/entrhq/suzzy/pkg/page"
	"github.com/entrhq/suzzy/pkg/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoHTML = `<html><head><title>Demo</title></head><body>
<h1 id="intro">Introduction</h1>
<p>xxxxxxxxxxxxxxxxxxxxxxxxx</p>
<p>Pricing starts at ten dollars a month for everyone.</p>
<a href="/pricing">Pricing</a>
</body></html>`

// memStore is an in-memory CredentialStore.
type memStore struct {
	mu         sync.Mutex
	key        string
	deletes    int
	overridden bool
}

func (s *memStore) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

func (s *memStore) SaveCredential(key string) error {
	if err := config.ValidateCredential(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	return nil
}

func (s *memStore) DeleteCredential() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""
	s.deletes++
	return nil
}

func (s *memStore) CredentialOverridden() bool { return s.overridden }

func (s *memStore) Endpoint() (string, string) { return "", "" }

// askerFunc adapts a function to Asker.
type askerFunc func(ctx context.Context, query string, snap page.Snapshot, settings assistant.Settings) assistant.Response

func (f askerFunc) Query(ctx context.Context, query string, snap page.Snapshot, settings assistant.Settings) assistant.Response {
	return f(ctx, query, snap, settings)
}

func answer(resp assistant.Response) Asker {
	return askerFunc(func(context.Context, string, page.Snapshot, assistant.Settings) assistant.Response {
		return resp
	})
}

// recordingRelay wraps a relay and records the commands sent through it.
type recordingRelay struct {
	next Relay
	mu   sync.Mutex
	sent []relay.Command
}

func (r *recordingRelay) Send(ctx context.Context, cmd relay.Command) relay.Outcome {
	r.mu.Lock()
	r.sent = append(r.sent, cmd)
	r.mu.Unlock()
	return r.next.Send(ctx, cmd)
}

func (r *recordingRelay) commands() []relay.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]relay.Command(nil), r.sent...)
}

func newDocument(t *testing.T) *page.Document {
	t.Helper()
	doc, err := page.NewDocument(strings.NewReader(demoHTML), "https://example.com/docs")
	require.NoError(t, err)
	return doc
}

func documentRelay(t *testing.T, doc *page.Document) *recordingRelay {
	t.Helper()
	return &recordingRelay{next: relay.New(page.Fixed(doc))}
}

func TestStart(t *testing.T) {
	t.Run("no credential shows setup", func(t *testing.T) {
		r := documentRelay(t, newDocument(t))
		c := New(r, answer(assistant.Response{}), &memStore{})

		require.NoError(t, c.Start(context.Background()))
		assert.Equal(t, NoCredential, c.State())
		assert.Empty(t, r.commands(), "nothing is extracted before a key exists")
	})

	t.Run("credential present extracts the page", func(t *testing.T) {
		r := documentRelay(t, newDocument(t))
		c := New(r, answer(assistant.Response{}), &memStore{key: "gsk_test"})

		require.NoError(t, c.Start(context.Background()))
		assert.Equal(t, Idle, c.State())

		v := c.View()
		require.NotNil(t, v.Snapshot)
		assert.Equal(t, "Demo", v.Snapshot.Title)
		assert.Equal(t, "https://example.com/docs", v.Snapshot.URL)
		assert.Len(t, v.Snapshot.Paragraphs, 2)
	})

	t.Run("unreachable page leaves no snapshot", func(t *testing.T) {
		c := New(relay.New(page.Fixed(nil)), answer(assistant.Response{}), &memStore{key: "gsk_test"})

		err := c.Start(context.Background())
		assert.ErrorIs(t, err, ErrExtractionUnavailable)
		assert.Equal(t, Idle, c.State())
		assert.Nil(t, c.View().Snapshot)

		_, err = c.Submit(context.Background(), "What is this?")
		assert.ErrorIs(t, err, ErrNotReady)
		assert.Equal(t, Idle, c.State())
	})
}

func TestSetCredential(t *testing.T) {
	store := &memStore{}
	c := New(documentRelay(t, newDocument(t)), answer(assistant.Response{}), store)
	require.NoError(t, c.Start(context.Background()))

	err := c.SetCredential(context.Background(), "sk-not-groq")
	assert.ErrorIs(t, err, config.ErrCredentialInvalid)
	assert.Equal(t, NoCredential, c.State())
	assert.Empty(t, store.APIKey())

	require.NoError(t, c.SetCredential(context.Background(), "  gsk_valid  "))
	assert.Equal(t, "gsk_valid", store.APIKey())
	assert.Equal(t, Idle, c.State())
	assert.NotNil(t, c.View().Snapshot)
}

func TestSubmit_NotReady(t *testing.T) {
	c := New(documentRelay(t, newDocument(t)), answer(assistant.Response{}), &memStore{key: "gsk_test"})

	_, err := c.Submit(context.Background(), "before start")
	assert.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, c.Start(context.Background()))
	_, err = c.Submit(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, Idle, c.State())
}

func TestSubmit_EndToEnd(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"answer\":\"It's a demo\",\"confidence\":0.9,\"sources\":[]}"}}]}`))
	}))
	defer server.Close()

	store := &endpointStore{memStore: memStore{key: "gsk_test"}, baseURL: server.URL}
	c := New(documentRelay(t, newDocument(t)), assistant.NewClient(), store)
	require.NoError(t, c.Start(context.Background()))

	turn, err := c.Submit(context.Background(), "What is this?")
	require.NoError(t, err)

	assert.Equal(t, "It's a demo", turn.Response.Answer)
	assert.Equal(t, 90, turn.Response.ConfidencePercent())
	assert.Nil(t, turn.Actuation)
	assert.Equal(t, ShowingAnswer, c.State())
	assert.Equal(t, "It's a demo", c.View().Turn.Response.Answer)
	assert.Equal(t, "llama3-8b-8192", gotBody["model"])
}

type endpointStore struct {
	memStore
	baseURL string
}

func (s *endpointStore) Endpoint() (string, string) { return "", s.baseURL }

func TestSubmit_Actuation(t *testing.T) {
	t.Run("highlight is awaited and surfaced", func(t *testing.T) {
		doc := newDocument(t)
		r := documentRelay(t, doc)
		c := New(r, answer(assistant.Response{
			Answer: "See the pricing paragraph", Confidence: 0.8, Sources: []string{},
			Action: assistant.ActionHighlight, Target: "ten dollars",
		}), &memStore{key: "gsk_test"})
		require.NoError(t, c.Start(context.Background()))

		turn, err := c.Submit(context.Background(), "How much?")
		require.NoError(t, err)

		require.NotNil(t, turn.Command)
		assert.Equal(t, relay.HighlightText("ten dollars"), *turn.Command)
		require.NotNil(t, turn.Actuation)
		assert.True(t, turn.Actuation.OK())
		require.NotNil(t, turn.Actuation.Result.Matches)
		assert.Greater(t, *turn.Actuation.Result.Matches, 0)
		assert.Greater(t, doc.Highlighted().Length(), 0)
		assert.Equal(t, turn.Actuation, c.View().Turn.Actuation)
	})

	t.Run("navigate to a link target", func(t *testing.T) {
		doc := newDocument(t)
		c := New(documentRelay(t, doc), answer(assistant.Response{
			Answer: "Pricing is linked", Confidence: 0.7, Sources: []string{},
			Action: assistant.ActionNavigate, Target: "https://example.com/pricing",
		}), &memStore{key: "gsk_test"})
		require.NoError(t, c.Start(context.Background()))

		turn, err := c.Submit(context.Background(), "Where is pricing?")
		require.NoError(t, err)
		require.NotNil(t, turn.Actuation)
		assert.True(t, turn.Actuation.OK(), turn.Actuation.Describe())
		assert.Equal(t, 1, doc.ScrollCount())
	})

	t.Run("missing element is reported, not dropped", func(t *testing.T) {
		doc := newDocument(t)
		c := New(documentRelay(t, doc), answer(assistant.Response{
			Answer: "Go to the footer", Confidence: 0.6, Sources: []string{},
			Action: assistant.ActionNavigate, Target: "#footer",
		}), &memStore{key: "gsk_test"})
		require.NoError(t, c.Start(context.Background()))

		turn, err := c.Submit(context.Background(), "Where is the footer?")
		require.NoError(t, err)
		require.NotNil(t, turn.Actuation)
		assert.Equal(t, relay.Delivered, turn.Actuation.Status)
		assert.False(t, turn.Actuation.Result.Success)
		assert.Equal(t, "Element not found", turn.Actuation.Result.Error)
		assert.Equal(t, 0, doc.ScrollCount())
		assert.Equal(t, ShowingAnswer, c.State())
	})
}

func TestSubmit_Superseded(t *testing.T) {
	started := make(chan struct{})
	asker := askerFunc(func(ctx context.Context, query string, _ page.Snapshot, _ assistant.Settings) assistant.Response {
		if query == "slow" {
			close(started)
			<-ctx.Done()
			return assistant.ServiceFailure()
		}
		return assistant.Response{Answer: "fast answer", Confidence: 0.9, Sources: []string{}}
	})

	c := New(documentRelay(t, newDocument(t)), asker, &memStore{key: "gsk_test"})
	require.NoError(t, c.Start(context.Background()))

	slowErr := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), "slow")
		slowErr <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("slow query never started")
	}

	turn, err := c.Submit(context.Background(), "fast")
	require.NoError(t, err)
	assert.Equal(t, "fast answer", turn.Response.Answer)

	select {
	case err := <-slowErr:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded query was not canceled")
	}

	assert.Equal(t, "fast answer", c.View().Turn.Response.Answer)
	assert.Equal(t, ShowingAnswer, c.State())
}

func TestResetCredential(t *testing.T) {
	store := &memStore{key: "gsk_test"}
	c := New(documentRelay(t, newDocument(t)), answer(assistant.Response{Answer: "ok", Sources: []string{}}), store)
	require.NoError(t, c.Start(context.Background()))
	_, err := c.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, c.ToggleSettings())

	require.NoError(t, c.ResetCredential())

	v := c.View()
	assert.Equal(t, NoCredential, v.State)
	assert.Nil(t, v.Snapshot)
	assert.Nil(t, v.Turn)
	assert.False(t, v.SettingsOpen)
	assert.Empty(t, v.Credential)
	assert.Empty(t, store.APIKey())
	assert.Equal(t, 1, store.deletes)

	_, err = c.Submit(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrNotReady)
}

func TestRefresh_DropsAnswer(t *testing.T) {
	c := New(documentRelay(t, newDocument(t)), answer(assistant.Response{Answer: "ok", Sources: []string{}}), &memStore{key: "gsk_test"})
	require.NoError(t, c.Start(context.Background()))
	_, err := c.Submit(context.Background(), "hi")
	require.NoError(t, err)

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, Idle, c.State())
	assert.Nil(t, c.View().Turn)
	assert.NotNil(t, c.View().Snapshot)
}

func TestToggleSettings(t *testing.T) {
	c := New(documentRelay(t, newDocument(t)), answer(assistant.Response{}), &memStore{key: "gsk_abcdefgh1234"})
	assert.True(t, c.ToggleSettings())
	assert.False(t, c.ToggleSettings())
	assert.Equal(t, NoCredential, c.State(), "settings are orthogonal to the state machine")
	assert.Equal(t, "gsk_abc...", c.View().Credential)
	assert.False(t, c.View().CredentialOverride)
}

func TestView_CredentialOverride(t *testing.T) {
	store := &memStore{key: "gsk_abcdefgh1234", overridden: true}
	c := New(documentRelay(t, newDocument(t)), answer(assistant.Response{}), store)
	assert.True(t, c.View().CredentialOverride)

	store.key = ""
	assert.False(t, c.View().CredentialOverride, "no key means nothing is overridden")
}

func TestActionCommand(t *testing.T) {
	tests := []struct {
		name   string
		resp   assistant.Response
		want   relay.Command
		wantOK bool
	}{
		{
			name: "no action",
			resp: assistant.Response{Answer: "plain"},
		},
		{
			name: "action without target",
			resp: assistant.Response{Action: assistant.ActionHighlight},
		},
		{
			name:   "highlight",
			resp:   assistant.Response{Action: assistant.ActionHighlight, Target: "pricing"},
			want:   relay.HighlightText("pricing"),
			wantOK: true,
		},
		{
			name:   "navigate selector",
			resp:   assistant.Response{Action: assistant.ActionNavigate, Target: "#intro"},
			want:   relay.NavigateToElement("#intro"),
			wantOK: true,
		},
		{
			name: "unknown action",
			resp: assistant.Response{Action: "print", Target: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ActionCommand(tt.resp, "https://example.com/")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaskCredential(t *testing.T) {
	assert.Equal(t, "", MaskCredential(""))
	assert.Equal(t, "gsk_x", MaskCredential("gsk_x"))
	assert.Equal(t, "gsk_012...", MaskCredential("gsk_0123456789wxyz"))
}
