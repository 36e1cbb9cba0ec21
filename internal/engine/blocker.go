package engine

import (
	"strings"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/profile"
)

// blockerClass pairs one blocker kind with its trigger phrases. Classes are
// checked in declaration order, which fixes the detection priority:
// Captcha > WAF > LoginRequired > RateLimited.
type blockerClass struct {
	kind    models.BlockerKind
	key     string
	phrases []string
}

var blockerClasses = []blockerClass{
	{models.BlockerCaptcha, "captcha", []string{
		"recaptcha",
		"hcaptcha",
		"captcha",
		"verify you are human",
		"are you a robot",
	}},
	{models.BlockerWAF, "waf", []string{
		"incapsula",
		"incident id",
		"pardon our interruption",
		"access denied",
		"attention required",
		"request unsuccessful",
	}},
	{models.BlockerLoginRequired, "login_required", []string{
		"login required",
		"sign in to continue",
		"please log in",
		"session has expired",
	}},
	{models.BlockerRateLimited, "rate_limited", []string{
		"too many requests",
		"rate limit exceeded",
		"requests from your network",
	}},
}

// ClassifyBlocker scans page content for access-denial signals and returns
// the first matching class in priority order, ties within a class broken by
// declaration order. Portal-specific phrases from the profile are appended
// after the built-in ones for their class. Pure function of the content.
func ClassifyBlocker(content string, p *profile.PortalProfile) *models.BlockerEvent {
	if content == "" {
		return nil
	}
	lowered := strings.ToLower(content)
	for _, class := range blockerClasses {
		phrases := class.phrases
		if p != nil {
			phrases = append(append([]string{}, phrases...), p.BlockerPhrases[class.key]...)
		}
		for _, phrase := range phrases {
			if strings.Contains(lowered, strings.ToLower(phrase)) {
				return &models.BlockerEvent{Kind: class.kind, Evidence: phrase}
			}
		}
	}
	return nil
}

var defaultEmptyPhrases = []string{
	"no records found",
	"no results found",
	"no cases found",
	"no matches found",
	"your search returned no results",
}

// MatchesEmpty reports whether the settled page declares a clean empty
// result set.
func MatchesEmpty(content string, p *profile.PortalProfile) bool {
	lowered := strings.ToLower(content)
	phrases := defaultEmptyPhrases
	if p != nil {
		phrases = append(append([]string{}, phrases...), p.EmptyPhrases...)
	}
	for _, phrase := range phrases {
		if strings.Contains(lowered, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
