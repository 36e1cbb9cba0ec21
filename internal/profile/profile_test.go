package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validProfile() *PortalProfile {
	return &PortalProfile{
		Name:      "test-portal",
		Engine:    EngineHTTP,
		SearchURL: "https://example.test/search",
		Fields: []FieldSpec{
			{Field: "last_name", Patterns: []string{"lname"}},
		},
		Rows: []RowStrategy{
			{Name: "table", RowSelector: "table tr"},
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validProfile().Validate())

	p := validProfile()
	p.Name = ""
	require.Error(t, p.Validate())

	p = validProfile()
	p.Engine = "selenium"
	require.Error(t, p.Validate())

	p = validProfile()
	p.SearchURL = ""
	require.Error(t, p.Validate())

	p = validProfile()
	p.Fields = nil
	require.Error(t, p.Validate())

	p = validProfile()
	p.Fields = append(p.Fields, FieldSpec{Field: "last_name", Patterns: []string{"other"}})
	require.Error(t, p.Validate())

	p = validProfile()
	p.Fields[0].Patterns = nil
	require.Error(t, p.Validate())

	p = validProfile()
	p.Rows = nil
	require.Error(t, p.Validate())
}

func TestMaxPagesDefault(t *testing.T) {
	p := validProfile()
	require.Equal(t, DefaultMaxPages, p.MaxPages())

	p.Pagination.MaxPages = 7
	require.Equal(t, 7, p.MaxPages())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.json")
	data := `{
		"name": "file-portal",
		"engine": "http",
		"search_url": "https://example.test/search",
		"fields": [{"field": "last_name", "patterns": ["lname"]}],
		"rows": [{"name": "table", "row_selector": "table tr", "min_cells": 2}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "file-portal", p.Name)
	require.Equal(t, EngineHTTP, p.Engine)
	require.Equal(t, 2, p.Rows[0].MinCells)

	_, err = Load(filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name": "x"}`), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	// Built-ins are present and valid.
	for _, name := range []string{"montana-district", "delaware-courtconnect", "oklahoma-oscn"} {
		p, err := r.Get(name)
		require.NoError(t, err)
		require.NoError(t, p.Validate())
	}

	_, err := r.Get("nope")
	require.Error(t, err)

	custom := validProfile()
	require.NoError(t, r.Register(custom))
	require.Error(t, r.Register(custom), "duplicate registration must fail")

	names := r.Names()
	require.Contains(t, names, "test-portal")
	require.IsIncreasing(t, names)
}

func TestBuiltinConsentAndDockets(t *testing.T) {
	r := NewRegistry()

	de, err := r.Get("delaware-courtconnect")
	require.NoError(t, err)
	require.NotNil(t, de.Consent)
	require.NotEmpty(t, de.Consent.AcceptURL)
	require.Contains(t, de.DocketURL, "{case}")

	ok, err := r.Get("oklahoma-oscn")
	require.NoError(t, err)
	require.Nil(t, ok.Consent)
	require.Contains(t, ok.DocketURL, "{case}")
	require.True(t, ok.Rows[0].Stream)

	mt, err := r.Get("montana-district")
	require.NoError(t, err)
	require.Equal(t, EngineBrowser, mt.Engine)
	require.True(t, mt.Stealth)
	require.Equal(t, time.Duration(2*time.Second), mt.RateInterval)
}
