package engine

import (
	"context"

	"github.com/publicvector/courtsearch/internal/profile"
)

// Page is the surface the orchestrator drives: one rendered browser tab or
// one plain-HTTP form walk. Every method that can touch the network takes a
// context and is bound by the session's timeouts.
type Page interface {
	// Navigate loads the given URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// Content returns the current page markup.
	Content(ctx context.Context) (string, error)

	// URL reports the current location.
	URL() string

	// Fill types a value into a text-like control.
	Fill(ctx context.Context, ref ControlRef, value string) error

	// Select picks a dropdown option by option value.
	Select(ctx context.Context, ref ControlRef, optionValue string) error

	// Check activates a radio or checkbox control.
	Check(ctx context.Context, ref ControlRef, value string) error

	// Submit activates the submit control matched by selector; an empty
	// selector uses the engine's default submit candidates.
	Submit(ctx context.Context, selector string) error

	// SubmitFallback is the one-shot fallback when no submit control is
	// found: keyboard submit for rendered pages, a direct request for
	// plain-HTTP pages.
	SubmitFallback(ctx context.Context) error

	// ClickText activates the first clickable element whose visible text
	// matches, returning false when none does.
	ClickText(ctx context.Context, text string) (bool, error)

	// NextPage advances to the next result page, returning false when the
	// portal offers no further page.
	NextPage(ctx context.Context, spec profile.PaginationSpec) (bool, error)

	// Screenshot captures the current viewport; unsupported engines return
	// a nil payload without error.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close releases the page's resources. Idempotent.
	Close() error
}
