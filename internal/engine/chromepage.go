package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/profile"
)

// chromePage drives one rendered browser tab via chromedp.
type chromePage struct {
	ctx     context.Context
	profile *profile.PortalProfile
	logger  *logrus.Logger

	mu      sync.Mutex
	lastURL string
}

func newChromePage(ctx context.Context, p *profile.PortalProfile, logger *logrus.Logger) (*chromePage, error) {
	if p.Stealth {
		err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}))
		if err != nil {
			return nil, fmt.Errorf("failed to install stealth script: %w", err)
		}
	}
	return &chromePage{ctx: ctx, profile: p, logger: logger}, nil
}

func (c *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := runContext(c.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// runContext derives an operation context from the tab context that also
// honors the caller's deadline and cancellation. The tab context carries the
// chromedp session, so the caller's ctx cannot be passed to Run directly.
func runContext(tab, caller context.Context) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if deadline, ok := caller.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(tab, deadline)
	} else {
		runCtx, cancel = context.WithCancel(tab)
	}
	stop := context.AfterFunc(caller, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (c *chromePage) Navigate(ctx context.Context, url string) error {
	err := c.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	settle(ctx, c.profile.SettleWait)
	c.refreshLocation(ctx)
	return nil
}

func (c *chromePage) Content(ctx context.Context) (string, error) {
	var content string
	if err := c.run(ctx, chromedp.OuterHTML("html", &content, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	c.refreshLocation(ctx)
	return content, nil
}

func (c *chromePage) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastURL
}

func (c *chromePage) refreshLocation(ctx context.Context) {
	var loc string
	if err := c.run(ctx, chromedp.Location(&loc)); err == nil && loc != "" {
		c.mu.Lock()
		c.lastURL = loc
		c.mu.Unlock()
	}
}

func (c *chromePage) Fill(ctx context.Context, ref ControlRef, value string) error {
	return c.run(ctx,
		chromedp.WaitVisible(ref.Selector, chromedp.ByQuery),
		chromedp.Clear(ref.Selector, chromedp.ByQuery),
		chromedp.SendKeys(ref.Selector, value, chromedp.ByQuery),
	)
}

// Select assigns the option and fires a change event so rerendering portals
// react the way they would to a human pick.
func (c *chromePage) Select(ctx context.Context, ref ControlRef, optionValue string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.value = %q;
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, ref.Selector, optionValue)

	var ok bool
	if err := c.run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("select control %s not found", ref.Selector)
	}
	return nil
}

func (c *chromePage) Check(ctx context.Context, ref ControlRef, _ string) error {
	return c.run(ctx, chromedp.Click(ref.Selector, chromedp.ByQuery))
}

func (c *chromePage) Submit(ctx context.Context, selector string) error {
	candidates := []string{selector}
	if selector == "" {
		candidates = []string{
			"input[type=submit]",
			"button[type=submit]",
			"form button",
		}
	}
	for _, cand := range candidates {
		clicked, err := c.clickFirst(ctx, cand)
		if err != nil {
			return err
		}
		if clicked {
			settle(ctx, c.profile.SettleWait)
			return nil
		}
	}
	return fmt.Errorf("no submit control matched")
}

// SubmitFallback sends Enter to the focused element, the keyboard path every
// browser form honors.
func (c *chromePage) SubmitFallback(ctx context.Context) error {
	if err := c.run(ctx, chromedp.KeyEvent(kb.Enter)); err != nil {
		return fmt.Errorf("keyboard submit failed: %w", err)
	}
	settle(ctx, c.profile.SettleWait)
	return nil
}

func (c *chromePage) clickFirst(ctx context.Context, selector string) (bool, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.click();
		return true;
	})()`, selector)

	var clicked bool
	if err := c.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, err
	}
	return clicked, nil
}

func (c *chromePage) ClickText(ctx context.Context, text string) (bool, error) {
	script := fmt.Sprintf(`(() => {
		const want = %q.toLowerCase();
		const els = document.querySelectorAll('a, button, input[type=submit], input[type=button]');
		for (const el of els) {
			const label = (el.innerText || el.value || '').trim().toLowerCase();
			if (label && label.includes(want)) {
				el.click();
				return true;
			}
		}
		return false;
	})()`, strings.TrimSpace(text))

	var clicked bool
	if err := c.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, err
	}
	if clicked {
		settle(ctx, c.profile.SettleWait)
		c.refreshLocation(ctx)
	}
	return clicked, nil
}

func (c *chromePage) NextPage(ctx context.Context, spec profile.PaginationSpec) (bool, error) {
	if spec.NextSelector != "" {
		clicked, err := c.clickFirst(ctx, spec.NextSelector)
		if err != nil || !clicked {
			return false, err
		}
		settle(ctx, c.profile.SettleWait)
		c.refreshLocation(ctx)
		return true, nil
	}
	if spec.NextText != "" {
		return c.ClickText(ctx, spec.NextText)
	}
	return false, nil
}

func (c *chromePage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := c.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close is a no-op: the owning session cancels the browser context.
func (c *chromePage) Close() error {
	return nil
}
