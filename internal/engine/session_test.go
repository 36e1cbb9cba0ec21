package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/publicvector/courtsearch/internal/config"
	"github.com/publicvector/courtsearch/internal/profile"
)

func TestOpenHTTPSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>hello</body></html>`)
	}))
	defer server.Close()

	manager := NewSessionManager(config.BrowserConfig{PageTimeout: 5 * time.Second}, "", testLogger())
	p := &profile.PortalProfile{Name: "http-portal", Engine: profile.EngineHTTP, SearchURL: server.URL}

	session, err := manager.Open(context.Background(), p)
	require.NoError(t, err)
	defer session.Close()

	require.Equal(t, profile.EngineHTTP, session.Engine)
	require.NotEmpty(t, session.ID)

	require.NoError(t, session.Page.Navigate(context.Background(), server.URL))
	content, err := session.Page.Content(context.Background())
	require.NoError(t, err)
	require.Contains(t, content, "hello")

	// Close is idempotent.
	session.Close()
	session.Close()
}

func TestOpenUnknownEngine(t *testing.T) {
	manager := NewSessionManager(config.BrowserConfig{}, "", testLogger())
	_, err := manager.Open(context.Background(), &profile.PortalProfile{Name: "x", Engine: "carrier-pigeon"})
	require.Error(t, err)
}

func TestOpenAfterClose(t *testing.T) {
	manager := NewSessionManager(config.BrowserConfig{}, "", testLogger())
	manager.Close()

	_, err := manager.Open(context.Background(), &profile.PortalProfile{Name: "x", Engine: profile.EngineHTTP})
	require.Error(t, err)
}

func TestSaveDiagnostics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>diagnostic content</body></html>`)
	}))
	defer server.Close()

	diagDir := t.TempDir()
	manager := NewSessionManager(config.BrowserConfig{PageTimeout: 5 * time.Second}, diagDir, testLogger())
	p := &profile.PortalProfile{Name: "http-portal", Engine: profile.EngineHTTP, SearchURL: server.URL}

	session, err := manager.Open(context.Background(), p)
	require.NoError(t, err)
	defer session.Close()
	require.NoError(t, session.Page.Navigate(context.Background(), server.URL))

	session.SaveDiagnostics(context.Background(), "blocked-http-portal")

	matches, err := filepath.Glob(filepath.Join(diagDir, "blocked-http-portal-*.html"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	require.Contains(t, string(data), "diagnostic content")
}

func TestUserAgentSelection(t *testing.T) {
	manager := NewSessionManager(config.BrowserConfig{}, "", testLogger())

	pinned := &profile.PortalProfile{UserAgent: "custom-agent/1.0"}
	require.Equal(t, "custom-agent/1.0", manager.userAgent(pinned))

	plain := &profile.PortalProfile{}
	require.Equal(t, defaultUserAgent, manager.userAgent(plain))

	stealth := &profile.PortalProfile{Stealth: true}
	require.NotEmpty(t, manager.userAgent(stealth))
}
