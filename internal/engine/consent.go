package engine

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/profile"
)

// defaultAcceptTexts are tried against consent affordances when the profile
// does not name its own, most specific first.
var defaultAcceptTexts = []string{
	"I Agree",
	"I Accept",
	"Agree",
	"Accept",
	"Continue",
}

// ClearConsent accepts a disclaimer or terms-of-use interstitial if one is
// present, at most once per session. An absent interstitial is the normal
// case and never an error; a failed acceptance is reported so the caller can
// surface it, but the search proceeds either way.
func ClearConsent(ctx context.Context, session *Session, p *profile.PortalProfile, log *logrus.Entry) (bool, error) {
	if session.consentCleared {
		return false, nil
	}
	session.consentCleared = true

	var spec profile.ConsentSpec
	if p.Consent != nil {
		spec = *p.Consent
	}

	// Some portals gate entry on a dedicated acceptance endpoint rather
	// than an on-page control.
	if spec.AcceptURL != "" {
		if err := session.Page.Navigate(ctx, spec.AcceptURL); err != nil {
			log.WithError(err).Warn("Consent endpoint rejected")
			return false, err
		}
		settle(ctx, spec.SettleWait)
		log.Debug("Consent accepted via endpoint")
		return true, nil
	}

	content, err := session.Page.Content(ctx)
	if err != nil {
		return false, err
	}
	if !looksLikeConsent(content) && len(spec.AcceptTexts) == 0 {
		return false, nil
	}

	texts := append([]string{}, spec.AcceptTexts...)
	for _, t := range defaultAcceptTexts {
		if !containsFold(texts, t) {
			texts = append(texts, t)
		}
	}

	for _, text := range texts {
		clicked, err := session.Page.ClickText(ctx, text)
		if err != nil {
			log.WithError(err).WithField("text", text).Warn("Consent click failed")
			return false, err
		}
		if clicked {
			settle(ctx, spec.SettleWait)
			log.WithField("text", text).Debug("Consent accepted")
			return true, nil
		}
	}
	return false, nil
}

// consentMarkers are phrases that mark a disclaimer interstitial as opposed
// to an ordinary search or results page.
var consentMarkers = []string{
	"disclaimer",
	"terms of use",
	"terms and conditions",
	"acceptable use",
	"i agree",
	"i accept",
}

func looksLikeConsent(content string) bool {
	lowered := strings.ToLower(content)
	for _, marker := range consentMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func containsFold(items []string, want string) bool {
	for _, item := range items {
		if strings.EqualFold(item, want) {
			return true
		}
	}
	return false
}
