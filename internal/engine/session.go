package engine

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"sync"
	"time"

	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"

	"github.com/publicvector/courtsearch/internal/config"
	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/profile"
)

// stealthScript hides the most common automation tells before any portal
// script runs. Injected on every new document in stealth sessions.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
Object.defineProperty(navigator, 'languages', {get: () => ['en-US', 'en']});
Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3, 4, 5]});
window.chrome = window.chrome || {runtime: {}};
`

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"

// SessionManager opens automation sessions against portals. Browser-engine
// portals get a dedicated Chrome process per session; HTTP-engine portals get
// a cookie-carrying resty client with the Cloudflare bypass transport.
type SessionManager struct {
	config config.BrowserConfig
	logger *logrus.Logger

	diagDir string

	mu     sync.Mutex
	closed bool
}

// NewSessionManager creates a session manager. diagDir may be empty to
// disable failure diagnostics.
func NewSessionManager(cfg config.BrowserConfig, diagDir string, logger *logrus.Logger) *SessionManager {
	return &SessionManager{
		config:  cfg,
		logger:  logger,
		diagDir: diagDir,
	}
}

// Session is one live automation session: a page plus its teardown.
type Session struct {
	ID      string
	Page    Page
	Engine  profile.EngineKind
	manager *SessionManager

	consentCleared bool

	closeOnce sync.Once
	closeFns  []func()
}

// Open launches a session appropriate for the portal's engine kind. Launch
// failures come back as SessionError so callers can distinguish an engine
// that never started from a portal that misbehaved.
func (m *SessionManager) Open(ctx context.Context, p *profile.PortalProfile) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("session manager is closed")
	}
	m.mu.Unlock()

	switch p.Engine {
	case profile.EngineBrowser:
		return m.openBrowser(ctx, p)
	case profile.EngineHTTP:
		return m.openHTTP(p)
	default:
		return nil, fmt.Errorf("unknown engine kind %q", p.Engine)
	}
}

func (m *SessionManager) openBrowser(ctx context.Context, p *profile.PortalProfile) (*Session, error) {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(m.userAgent(p)),
	}
	if p.Stealth {
		opts = append(opts, chromedp.Flag("disable-blink-features", "AutomationControlled"))
	}
	if m.config.Headless {
		opts = append(opts, chromedp.Headless)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	session := &Session{
		ID:      fmt.Sprintf("session-%d", time.Now().UnixNano()),
		Engine:  profile.EngineBrowser,
		manager: m,
		closeFns: []func(){
			browserCancel,
			allocCancel,
		},
	}

	// Health check: prove the process actually launched before handing
	// the session out.
	testCtx, testCancel := context.WithTimeout(browserCtx, m.config.BrowserTimeout)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		session.closeAll()
		return nil, &models.SessionError{
			Kind: models.SessionLaunchFailed,
			Err:  fmt.Errorf("browser health check failed: %w", err),
		}
	}

	page, err := newChromePage(browserCtx, p, m.logger)
	if err != nil {
		session.closeAll()
		return nil, &models.SessionError{Kind: models.SessionLaunchFailed, Err: err}
	}
	session.Page = page

	m.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"portal":     p.Name,
		"stealth":    p.Stealth,
	}).Debug("Browser session created")
	return session, nil
}

func (m *SessionManager) openHTTP(p *profile.PortalProfile) (*Session, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, &models.SessionError{Kind: models.SessionLaunchFailed, Err: err}
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("User-Agent", m.userAgent(p))
	client.SetTimeout(m.config.PageTimeout)

	page, err := newHTTPPage(client, p)
	if err != nil {
		return nil, &models.SessionError{Kind: models.SessionLaunchFailed, Err: err}
	}

	session := &Session{
		ID:      fmt.Sprintf("session-%d", time.Now().UnixNano()),
		Engine:  profile.EngineHTTP,
		Page:    page,
		manager: m,
	}
	m.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"portal":     p.Name,
	}).Debug("HTTP session created")
	return session, nil
}

func (m *SessionManager) userAgent(p *profile.PortalProfile) string {
	if p.UserAgent != "" {
		return p.UserAgent
	}
	if p.Stealth {
		if ua := browser.Chrome(); ua != "" {
			return ua
		}
	}
	return defaultUserAgent
}

// Close marks the manager closed; sessions already open keep running until
// their own Close.
func (m *SessionManager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.Page != nil {
			s.Page.Close()
		}
		s.closeAll()
	})
}

func (s *Session) closeAll() {
	for _, fn := range s.closeFns {
		fn()
	}
	s.closeFns = nil
}

// SaveDiagnostics dumps the session's current page content, and a screenshot
// for browser sessions, into the manager's diagnostics directory. Failures
// here are logged and swallowed: diagnostics never fail a search.
func (s *Session) SaveDiagnostics(ctx context.Context, tag string) {
	m := s.manager
	if m == nil || m.diagDir == "" {
		return
	}
	if err := os.MkdirAll(m.diagDir, 0o755); err != nil {
		m.logger.WithError(err).Warn("Failed to create diagnostics directory")
		return
	}

	stamp := time.Now().Format("20060102-150405")
	base := fmt.Sprintf("%s-%s", tag, stamp)

	if content, err := s.Page.Content(ctx); err == nil {
		path := filepath.Join(m.diagDir, base+".html")
		if werr := os.WriteFile(path, []byte(content), 0o644); werr != nil {
			m.logger.WithError(werr).Warn("Failed to write page dump")
		}
	}
	if shot, err := s.Page.Screenshot(ctx); err == nil && len(shot) > 0 {
		path := filepath.Join(m.diagDir, base+".png")
		if werr := os.WriteFile(path, shot, 0o644); werr != nil {
			m.logger.WithError(werr).Warn("Failed to write screenshot")
		}
	}
}
