package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/profile"
)

// ControlRef identifies one concrete form control. Rendered engines address
// it by CSS selector, request-building engines by control name.
type ControlRef struct {
	Selector string
	Name     string
	Kind     profile.ControlKind
}

// ResolvedField binds a FieldSpec to the concrete control it matched and the
// value to apply.
type ResolvedField struct {
	Spec    profile.FieldSpec
	Control ControlRef
	Value   string
}

// control is one candidate form control harvested from the page.
type control struct {
	ref        ControlRef
	id         string
	haystack   string            // lowercased name+id+placeholder+aria-label+label text
	options    map[string]string // select options: value -> visible label
	radioValue string
}

// ResolveForm matches the populated query fields against the page's controls
// via ordered pattern matching. Unmatched fields become warnings, never
// errors; a field whose patterns land on a control already claimed by an
// earlier spec is reported and skipped rather than silently double-bound.
// Pure function of the parsed page.
func ResolveForm(doc *goquery.Document, specs []profile.FieldSpec, values map[string]string) ([]ResolvedField, []models.PartialFillWarning) {
	return resolveControls(harvestControls(doc), specs, values, make(map[string]string))
}

// resolveControls runs the matching pass. claimed is seeded by re-resolution
// with the controls already filled so a pending spec cannot silently overwrite
// an applied field after a rerender.
func resolveControls(controls []*control, specs []profile.FieldSpec, values map[string]string, claimed map[string]string) ([]ResolvedField, []models.PartialFillWarning) {
	ordered := make([]profile.FieldSpec, len(specs))
	copy(ordered, specs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	var resolved []ResolvedField
	var warnings []models.PartialFillWarning

	for _, spec := range ordered {
		value := spec.Value
		if value == "" {
			value = values[spec.Field]
		}
		if value == "" {
			continue
		}

		ctrl := matchControl(controls, spec)
		if ctrl == nil {
			warnings = append(warnings, models.PartialFillWarning{
				Field:  spec.Field,
				Reason: "no candidate pattern matched",
			})
			continue
		}

		key := controlKey(ctrl)
		if owner, dup := claimed[key]; dup {
			warnings = append(warnings, models.PartialFillWarning{
				Field:  spec.Field,
				Reason: fmt.Sprintf("resolved to the same control as %q", owner),
			})
			continue
		}

		applied := value
		if ctrl.ref.Kind == profile.ControlSelect {
			option, ok := matchOption(ctrl.options, value)
			if !ok {
				warnings = append(warnings, models.PartialFillWarning{
					Field:  spec.Field,
					Reason: fmt.Sprintf("no option matched %q", value),
				})
				continue
			}
			applied = option
		}

		claimed[key] = spec.Field
		resolved = append(resolved, ResolvedField{Spec: spec, Control: ctrl.ref, Value: applied})
	}

	return resolved, warnings
}

func controlKey(c *control) string {
	if c.ref.Name != "" {
		return "name:" + c.ref.Name + ":" + c.radioValue
	}
	return "sel:" + c.ref.Selector
}

// matchControl tries the spec's patterns in declaration order against every
// candidate control; the first pattern with a match wins.
func matchControl(controls []*control, spec profile.FieldSpec) *control {
	for _, pattern := range spec.Patterns {
		needle := strings.ToLower(pattern)
		for _, c := range controls {
			if !kindCompatible(c.ref.Kind, spec.Kind) {
				continue
			}
			if strings.Contains(c.haystack, needle) {
				return c
			}
		}
	}
	return nil
}

func kindCompatible(have, want profile.ControlKind) bool {
	if want == "" {
		return have != profile.ControlSelect && have != profile.ControlRadio
	}
	return have == want
}

// matchOption picks a select option by exact value first, then by visible
// label text, tried in that order.
func matchOption(options map[string]string, value string) (string, bool) {
	if _, ok := options[value]; ok {
		return value, true
	}
	needle := strings.ToLower(strings.TrimSpace(value))
	for optValue, label := range options {
		if strings.ToLower(strings.TrimSpace(label)) == needle {
			return optValue, true
		}
	}
	for optValue, label := range options {
		if strings.Contains(strings.ToLower(label), needle) {
			return optValue, true
		}
	}
	return "", false
}

// harvestControls collects the page's fillable controls with the text each
// locator pattern is matched against.
func harvestControls(doc *goquery.Document) []*control {
	labels := labelIndex(doc)
	var controls []*control

	doc.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		id, _ := s.Attr("id")
		inputType, _ := s.Attr("type")
		inputType = strings.ToLower(inputType)

		kind := profile.ControlText
		switch {
		case goquery.NodeName(s) == "select":
			kind = profile.ControlSelect
		case inputType == "radio":
			kind = profile.ControlRadio
		case inputType == "hidden", inputType == "submit", inputType == "button",
			inputType == "image", inputType == "file":
			return
		}

		c := &control{
			ref: ControlRef{Selector: selectorFor(s, name, id), Name: name, Kind: kind},
			id:  id,
		}

		placeholder, _ := s.Attr("placeholder")
		aria, _ := s.Attr("aria-label")
		parts := []string{name, id, placeholder, aria, labels[id]}
		c.haystack = strings.ToLower(strings.Join(parts, " "))

		if kind == profile.ControlSelect {
			c.options = make(map[string]string)
			s.Find("option").Each(func(_ int, opt *goquery.Selection) {
				value, ok := opt.Attr("value")
				if !ok {
					value = strings.TrimSpace(opt.Text())
				}
				c.options[value] = strings.TrimSpace(opt.Text())
			})
		}
		if kind == profile.ControlRadio {
			c.radioValue, _ = s.Attr("value")
			// Radios are usually labelled by their value, not their name.
			c.haystack += " " + strings.ToLower(c.radioValue)
		}

		controls = append(controls, c)
	})

	return controls
}

// labelIndex maps control ids to their <label for=...> text.
func labelIndex(doc *goquery.Document) map[string]string {
	labels := make(map[string]string)
	doc.Find("label[for]").Each(func(_ int, s *goquery.Selection) {
		target, _ := s.Attr("for")
		if target != "" {
			labels[target] = strings.TrimSpace(s.Text())
		}
	})
	return labels
}

// selectorFor builds a stable CSS selector for one control: id when present,
// otherwise the name attribute scoped to the element type.
func selectorFor(s *goquery.Selection, name, id string) string {
	tag := goquery.NodeName(s)
	if id != "" && !strings.ContainsAny(id, " :.[]#") {
		return "#" + id
	}
	if name != "" {
		if inputType, ok := s.Attr("type"); ok && strings.EqualFold(inputType, "radio") {
			value, _ := s.Attr("value")
			return fmt.Sprintf(`%s[name=%q][value=%q]`, tag, name, value)
		}
		return fmt.Sprintf(`%s[name=%q]`, tag, name)
	}
	return tag
}

// FillForm resolves the query against the page and applies the resolved
// fields in dependency order. Controls that re-render the form get a settle
// wait and trigger re-resolution of the fields that are still pending, since
// the re-render may add, remove or rename controls.
func FillForm(ctx context.Context, page Page, p *profile.PortalProfile, values map[string]string, log *logrus.Entry) ([]ResolvedField, []models.PartialFillWarning, error) {
	content, err := page.Content(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, nil, fmt.Errorf("parse page: %w", err)
	}

	resolved, warnings := ResolveForm(doc, p.Fields, values)
	if len(resolved) == 0 {
		return nil, warnings, models.ErrNoFieldsResolved
	}

	var applied []ResolvedField
	pending := resolved
	for len(pending) > 0 {
		field := pending[0]
		pending = pending[1:]

		if err := applyField(ctx, page, field); err != nil {
			log.WithFields(logrus.Fields{"field": field.Spec.Field, "error": err.Error()}).
				Warn("Failed to fill field")
			warnings = append(warnings, models.PartialFillWarning{
				Field:  field.Spec.Field,
				Reason: fmt.Sprintf("fill failed: %v", err),
			})
			continue
		}
		applied = append(applied, field)

		if field.Spec.TriggersRerender && len(pending) > 0 {
			settle(ctx, p.SettleWait)
			pending, warnings = reresolve(ctx, page, values, pending, applied, warnings)
		}
	}

	if len(applied) == 0 {
		return nil, warnings, models.ErrNoFieldsResolved
	}
	return applied, warnings, nil
}

// reresolve re-runs resolution for the still-pending specs against the
// re-rendered page. Controls already filled stay claimed so a pending spec
// that now lands on one is warned about instead of overwriting it.
func reresolve(ctx context.Context, page Page, values map[string]string, pending, applied []ResolvedField, warnings []models.PartialFillWarning) ([]ResolvedField, []models.PartialFillWarning) {
	content, err := page.Content(ctx)
	if err != nil {
		return pending, warnings
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return pending, warnings
	}
	var specs []profile.FieldSpec
	for _, f := range pending {
		specs = append(specs, f.Spec)
	}

	controls := harvestControls(doc)
	claimed := make(map[string]string)
	for _, f := range applied {
		for _, c := range controls {
			if c.ref == f.Control {
				claimed[controlKey(c)] = f.Spec.Field
			}
		}
	}

	fresh, freshWarnings := resolveControls(controls, specs, values, claimed)
	return fresh, append(warnings, freshWarnings...)
}

func applyField(ctx context.Context, page Page, field ResolvedField) error {
	switch field.Control.Kind {
	case profile.ControlSelect:
		return page.Select(ctx, field.Control, field.Value)
	case profile.ControlRadio:
		return page.Check(ctx, field.Control, field.Value)
	default:
		return page.Fill(ctx, field.Control, field.Value)
	}
}

func settle(ctx context.Context, wait time.Duration) {
	if wait <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
