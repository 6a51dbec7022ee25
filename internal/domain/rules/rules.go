// Package rules implements ordered, first-match-wins rule tables.
//
// A table encodes priority by position: more specific rules are declared
// before catch-alls and evaluation stops at the first predicate that holds.
// Scores never participate in selection.
package rules

import "github.com/okian/vigil/internal/domain/model"

// Rule pairs a predicate with the outcome it produces.
type Rule[T any] struct {
	Code  string
	Score float64
	Label model.Label
	Match func(T) bool
}

// Outcome is the result of evaluating a table.
type Outcome struct {
	Code  string
	Score float64
	Label model.Label
	// Position is the 1-based index of the matching rule, 0 for the fallback.
	Position int
}

// Fallback reports whether no rule matched.
func (o Outcome) Fallback() bool { return o.Position == 0 }

// Table is an immutable ordered list of rules with a fallback outcome.
type Table[T any] struct {
	rules    []Rule[T]
	fallback Outcome
}

// NewTable builds a table. The rules slice is copied.
func NewTable[T any](fallback Outcome, rs ...Rule[T]) *Table[T] {
	fallback.Position = 0
	cp := make([]Rule[T], len(rs))
	copy(cp, rs)
	return &Table[T]{rules: cp, fallback: fallback}
}

// Evaluate returns the outcome of the first rule whose predicate holds.
func (t *Table[T]) Evaluate(in T) Outcome {
	for i, r := range t.rules {
		if r.Match != nil && r.Match(in) {
			return Outcome{Code: r.Code, Score: r.Score, Label: r.Label, Position: i + 1}
		}
	}
	return t.fallback
}

// Matches returns the positions of every rule whose predicate holds, in
// order. Positions after the first are shadowed by it.
func (t *Table[T]) Matches(in T) []int {
	var out []int
	for i, r := range t.rules {
		if r.Match != nil && r.Match(in) {
			out = append(out, i+1)
		}
	}
	return out
}

// Rules returns a copy of the rules in evaluation order.
func (t *Table[T]) Rules() []Rule[T] {
	cp := make([]Rule[T], len(t.rules))
	copy(cp, t.rules)
	return cp
}

// Len returns the number of rules, excluding the fallback.
func (t *Table[T]) Len() int { return len(t.rules) }

// FallbackOutcome returns the outcome used when nothing matches.
func (t *Table[T]) FallbackOutcome() Outcome { return t.fallback }
