package engine

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/publicvector/courtsearch/internal/profile"
)

// httpPage walks plain-HTTP portals by replaying their form posts directly.
// It keeps the parsed page, the active form's action and hidden fields, and
// the values the resolver has set, then builds the submit request itself.
type httpPage struct {
	client  *resty.Client
	profile *profile.PortalProfile

	mu      sync.Mutex
	current *url.URL
	content string
	doc     *goquery.Document

	formAction *url.URL
	formMethod string
	hidden     url.Values
	values     url.Values

	// last submitted search, replayed with a bumped page number
	lastAction *url.URL
	lastMethod string
	lastValues url.Values
	pageNo     int
}

func newHTTPPage(client *resty.Client, p *profile.PortalProfile) (*httpPage, error) {
	return &httpPage{
		client:  client,
		profile: p,
		hidden:  url.Values{},
		values:  url.Values{},
	}, nil
}

func (h *httpPage) Navigate(ctx context.Context, rawURL string) error {
	resp, err := h.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	if resp.StatusCode() >= 500 {
		return fmt.Errorf("portal returned %d for %s", resp.StatusCode(), rawURL)
	}
	return h.load(resp)
}

// load absorbs a response: current location, markup, parsed document and the
// search form's action, method and hidden fields.
func (h *httpPage) load(resp *resty.Response) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = resp.RawResponse.Request.URL
	h.content = string(resp.Body())

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(h.content))
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}
	h.doc = doc
	h.values = url.Values{}
	h.captureForm()
	return nil
}

// captureForm picks the first form that carries visible controls and records
// its action, method and hidden inputs. Portals without a form fall back to
// the profile's search URL.
func (h *httpPage) captureForm() {
	h.formAction = h.current
	h.formMethod = h.profile.SubmitMethod
	if h.formMethod == "" {
		h.formMethod = "POST"
	}
	h.hidden = url.Values{}

	var form *goquery.Selection
	h.doc.Find("form").EachWithBreak(func(_ int, f *goquery.Selection) bool {
		if f.Find("input:not([type=hidden]), select, textarea").Length() > 0 {
			form = f
			return false
		}
		if form == nil {
			form = f
		}
		return true
	})
	if form == nil {
		return
	}

	if action, ok := form.Attr("action"); ok && action != "" {
		if resolved, err := h.current.Parse(action); err == nil {
			h.formAction = resolved
		}
	}
	if method, ok := form.Attr("method"); ok && method != "" && h.profile.SubmitMethod == "" {
		h.formMethod = strings.ToUpper(method)
	}
	form.Find("input[type=hidden]").Each(func(_ int, in *goquery.Selection) {
		name, _ := in.Attr("name")
		if name == "" {
			return
		}
		value, _ := in.Attr("value")
		h.hidden.Set(name, value)
	})
}

func (h *httpPage) Content(_ context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.content == "" {
		return "", fmt.Errorf("no page loaded")
	}
	return h.content, nil
}

func (h *httpPage) URL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return ""
	}
	return h.current.String()
}

func (h *httpPage) Fill(_ context.Context, ref ControlRef, value string) error {
	return h.setValue(ref, value)
}

func (h *httpPage) Select(_ context.Context, ref ControlRef, optionValue string) error {
	return h.setValue(ref, optionValue)
}

func (h *httpPage) Check(_ context.Context, ref ControlRef, value string) error {
	return h.setValue(ref, value)
}

func (h *httpPage) setValue(ref ControlRef, value string) error {
	if ref.Name == "" {
		return fmt.Errorf("control %s has no name to post", ref.Selector)
	}
	h.mu.Lock()
	h.values.Set(ref.Name, value)
	h.mu.Unlock()
	return nil
}

// Submit replays the captured form with hidden defaults plus the values the
// resolver set. The selector is ignored: plain-HTTP submission never clicks.
func (h *httpPage) Submit(ctx context.Context, _ string) error {
	h.mu.Lock()
	action := h.formAction
	method := h.formMethod
	payload := mergeValues(h.hidden, h.values)
	h.mu.Unlock()

	if action == nil {
		return fmt.Errorf("no form captured to submit")
	}
	if err := h.request(ctx, method, action, payload); err != nil {
		return err
	}

	h.mu.Lock()
	h.lastAction = action
	h.lastMethod = method
	h.lastValues = payload
	h.pageNo = 1
	h.mu.Unlock()
	return nil
}

// SubmitFallback issues the request straight at the profile's search URL for
// portals whose landing page carries no form markup.
func (h *httpPage) SubmitFallback(ctx context.Context) error {
	target, err := url.Parse(h.profile.SearchURL)
	if err != nil {
		return fmt.Errorf("invalid search URL: %w", err)
	}

	h.mu.Lock()
	method := h.formMethod
	payload := mergeValues(h.hidden, h.values)
	h.mu.Unlock()

	if err := h.request(ctx, method, target, payload); err != nil {
		return err
	}

	h.mu.Lock()
	h.lastAction = target
	h.lastMethod = method
	h.lastValues = payload
	h.pageNo = 1
	h.mu.Unlock()
	return nil
}

func (h *httpPage) request(ctx context.Context, method string, target *url.URL, payload url.Values) error {
	req := h.client.R().SetContext(ctx)

	var resp *resty.Response
	var err error
	switch method {
	case "GET", "":
		merged := *target
		q := merged.Query()
		for key, vals := range payload {
			for _, v := range vals {
				q.Set(key, v)
			}
		}
		merged.RawQuery = q.Encode()
		resp, err = req.Get(merged.String())
	default:
		resp, err = req.
			SetHeader("Content-Type", "application/x-www-form-urlencoded").
			SetBody(payload.Encode()).
			Post(target.String())
	}
	if err != nil {
		return fmt.Errorf("form submit failed: %w", err)
	}
	if resp.StatusCode() >= 500 {
		return fmt.Errorf("portal returned %d on submit", resp.StatusCode())
	}
	return h.load(resp)
}

// ClickText follows the first anchor whose text contains the given phrase.
// Non-anchor affordances cannot be activated over plain HTTP.
func (h *httpPage) ClickText(ctx context.Context, text string) (bool, error) {
	h.mu.Lock()
	doc := h.doc
	base := h.current
	h.mu.Unlock()
	if doc == nil {
		return false, nil
	}

	want := strings.ToLower(strings.TrimSpace(text))
	var href string
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		label := strings.ToLower(strings.TrimSpace(a.Text()))
		if label == "" || !strings.Contains(label, want) {
			return true
		}
		if v, ok := a.Attr("href"); ok && v != "" && !strings.HasPrefix(v, "javascript:") {
			href = v
			return false
		}
		return true
	})
	if href == "" {
		return false, nil
	}

	target, err := base.Parse(href)
	if err != nil {
		return false, nil
	}
	if err := h.Navigate(ctx, target.String()); err != nil {
		return false, err
	}
	return true, nil
}

// NextPage advances by the profile's page parameter when one is declared,
// gated on the next affordance still being offered; otherwise it follows the
// next link by text.
func (h *httpPage) NextPage(ctx context.Context, spec profile.PaginationSpec) (bool, error) {
	if spec.PageParam != "" {
		h.mu.Lock()
		action := h.lastAction
		method := h.lastMethod
		payload := mergeValues(h.lastValues, nil)
		page := h.pageNo
		offered := spec.NextText == "" || strings.Contains(h.content, spec.NextText)
		h.mu.Unlock()

		if action == nil || !offered {
			return false, nil
		}
		payload.Set(spec.PageParam, strconv.Itoa(page+1))
		if err := h.request(ctx, method, action, payload); err != nil {
			return false, err
		}
		h.mu.Lock()
		h.pageNo = page + 1
		h.lastValues = payload
		h.mu.Unlock()
		return true, nil
	}
	if spec.NextText != "" {
		return h.ClickText(ctx, spec.NextText)
	}
	return false, nil
}

func (h *httpPage) Screenshot(_ context.Context) ([]byte, error) {
	return nil, nil
}

func (h *httpPage) Close() error {
	return nil
}

func mergeValues(base, overlay url.Values) url.Values {
	merged := url.Values{}
	for key, vals := range base {
		for _, v := range vals {
			merged.Add(key, v)
		}
	}
	for key, vals := range overlay {
		merged.Del(key)
		for _, v := range vals {
			merged.Add(key, v)
		}
	}
	return merged
}
