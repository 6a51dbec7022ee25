// Package locale holds the localized description catalogs for
// classification codes and action summaries.
package locale

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// NotFound is returned for unknown code/locale pairs.
const NotFound = "Description not found"

// Built-in locales.
const (
	EnUS = "en-US"
	PtBR = "pt-BR"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = EnUS

// Kind selects one of the catalog's tables.
type Kind string

// Catalog kinds.
const (
	KindStatistical Kind = "stat"
	KindConsensus   Kind = "ml"
	KindAction      Kind = "action"
)

// ParseKind maps a kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStatistical, KindConsensus, KindAction:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// table maps locale -> code -> text.
type table map[string]map[string]string

// Catalog is an immutable set of description tables. Each instance owns its
// maps; Extend returns a new Catalog.
type Catalog struct {
	tables map[Kind]table
}

// New returns a catalog holding the built-in en-US and pt-BR descriptions.
func New() *Catalog {
	c := &Catalog{tables: make(map[Kind]table, len(builtin))}
	for kind, t := range builtin {
		c.tables[kind] = t.clone()
	}
	return c
}

// Describe returns the text for code in loc, or NotFound.
func (c *Catalog) Describe(kind Kind, code, loc string) string {
	canon, err := Canonical(loc)
	if err != nil {
		return NotFound
	}
	t, ok := c.tables[kind]
	if !ok {
		return NotFound
	}
	text, ok := t[canon][code]
	if !ok {
		return NotFound
	}
	return text
}

// Has reports whether code is present for loc.
func (c *Catalog) Has(kind Kind, code, loc string) bool {
	return c.Describe(kind, code, loc) != NotFound
}

// Locales returns the canonical locales known to kind.
func (c *Catalog) Locales(kind Kind) []string {
	out := make([]string, 0, len(c.tables[kind]))
	for loc := range c.tables[kind] {
		out = append(out, loc)
	}
	return out
}

// overlay is the YAML shape accepted by Extend:
//
//	stat:
//	  es-ES:
//	    cons_good: Consistentemente bueno
type overlay map[Kind]map[string]map[string]string

// Extend returns a new catalog with the YAML overlay read from r merged on
// top of c. The receiver is not modified.
func (c *Catalog) Extend(r io.Reader) (*Catalog, error) {
	var ov overlay
	if err := yaml.NewDecoder(r).Decode(&ov); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %w", ErrOverlay, err)
	}
	next := &Catalog{tables: make(map[Kind]table, len(c.tables))}
	for kind, t := range c.tables {
		next.tables[kind] = t.clone()
	}
	for kind, locales := range ov {
		if _, err := ParseKind(string(kind)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOverlay, err)
		}
		t, ok := next.tables[kind]
		if !ok {
			t = make(table)
			next.tables[kind] = t
		}
		for loc, codes := range locales {
			canon, err := Canonical(loc)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrOverlay, err)
			}
			if t[canon] == nil {
				t[canon] = make(map[string]string, len(codes))
			}
			for code, text := range codes {
				t[canon][code] = text
			}
		}
	}
	return next, nil
}

// Canonical normalizes a BCP 47 identifier, e.g. "pt-br" -> "pt-BR".
func Canonical(loc string) (string, error) {
	if loc == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownLocale)
	}
	tag, err := language.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownLocale, loc)
	}
	return tag.String(), nil
}

func (t table) clone() table {
	out := make(table, len(t))
	for loc, codes := range t {
		m := make(map[string]string, len(codes))
		for k, v := range codes {
			m[k] = v
		}
		out[loc] = m
	}
	return out
}
