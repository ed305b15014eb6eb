// Package ruletable resolves instants against the transition table of a
// zone: the time types, transitions and leap second records of a TZif
// file plus the TZ string that extends them into the future.
package ruletable

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/ngrash/go-libtz/internal/posixrule"
	"github.com/ngrash/go-libtz/tzif"
)

// TimeType is a local time type.
type TimeType struct {
	Offset int64 // seconds east of UTC
	IsDST  bool
	Abbrev string
}

// Transition switches to Types()[Type] at When.
type Transition struct {
	When int64
	Type int
}

// LeapRecord sets the cumulative leap second correction to Corr at When.
type LeapRecord struct {
	When int64
	Corr int64
}

// Table is immutable after construction and safe for concurrent use.
type Table struct {
	types       []TimeType
	transitions []Transition
	leaps       []LeapRecord
	rule        *posixrule.Rule
	offsets     []int64
}

// Result is the time type in effect at an instant and the half-open window
// [Start, End) during which it stays in effect. Unbounded sides are
// math.MinInt64 and math.MaxInt64.
type Result struct {
	Type       TimeType
	Start, End int64
}

// New builds a table from the authoritative block of d. The block must
// pass tzif.ValidateBlock and a non-empty footer must be a valid TZ string.
func New(d tzif.Data) (*Table, error) {
	h, b := d.Block()
	if err := tzif.ValidateBlock(h, b); err != nil {
		return nil, err
	}

	t := &Table{types: make([]TimeType, len(b.LocalTimeTypeRecords))}
	for i, r := range b.LocalTimeTypeRecords {
		abbrev, err := b.Designation(r.Idx)
		if err != nil {
			return nil, &tzif.FormatError{Section: "local time types", Err: err}
		}
		t.types[i] = TimeType{Offset: int64(r.Utoff), IsDST: r.Dst, Abbrev: abbrev}
	}
	if len(b.TransitionTimes) > 0 {
		t.transitions = make([]Transition, len(b.TransitionTimes))
		for i, when := range b.TransitionTimes {
			t.transitions[i] = Transition{When: when, Type: int(b.TransitionTypes[i])}
		}
	}
	if len(b.LeapSecondRecords) > 0 {
		t.leaps = make([]LeapRecord, len(b.LeapSecondRecords))
		for i, r := range b.LeapSecondRecords {
			t.leaps[i] = LeapRecord{When: r.Occur, Corr: int64(r.Corr)}
		}
	}

	if s := d.Footer(); s != "" {
		rule, err := posixrule.Parse(s)
		if err != nil {
			return nil, &tzif.FormatError{Section: "footer", Err: fmt.Errorf("%w: %w", tzif.ErrMalformedFooter, err)}
		}
		t.rule = rule
	}
	t.offsets = t.distinctOffsets()
	return t, nil
}

// FromRule builds a table that consists of a TZ string only.
func FromRule(r *posixrule.Rule) *Table {
	t := &Table{rule: r}
	for _, z := range r.Zones() {
		t.types = append(t.types, TimeType{Offset: z.Offset, IsDST: z.IsDST, Abbrev: z.Name})
	}
	t.offsets = t.distinctOffsets()
	return t
}

// Lookup returns the time type in effect at sec.
//
// Instants before the first transition use the first time type. Instants at
// or after the last transition use the TZ string if there is one and the
// type of the last transition otherwise.
func (t *Table) Lookup(sec int64) Result {
	n := len(t.transitions)
	if n == 0 {
		if t.rule != nil {
			return t.ruleLookup(sec, math.MinInt64)
		}
		return Result{Type: t.types[0], Start: math.MinInt64, End: math.MaxInt64}
	}
	if sec < t.transitions[0].When {
		return Result{Type: t.types[0], Start: math.MinInt64, End: t.transitions[0].When}
	}

	i := sort.Search(n, func(i int) bool { return t.transitions[i].When > sec }) - 1
	if i == n-1 && t.rule != nil {
		return t.ruleLookup(sec, t.transitions[i].When)
	}
	end := int64(math.MaxInt64)
	if i+1 < n {
		end = t.transitions[i+1].When
	}
	return Result{Type: t.types[t.transitions[i].Type], Start: t.transitions[i].When, End: end}
}

// ruleLookup evaluates the TZ string, which counts time without leap
// seconds, and maps the window back onto the time scale of the table.
func (t *Table) ruleLookup(sec, notBefore int64) Result {
	corr, _ := t.LeapCorrection(sec)
	z, start, end := t.rule.Lookup(sec - corr)
	start, end = shift(start, corr), shift(end, corr)
	if start < notBefore {
		start = notBefore
	}
	return Result{
		Type:  TimeType{Offset: z.Offset, IsDST: z.IsDST, Abbrev: z.Name},
		Start: start,
		End:   end,
	}
}

// shift adds corr to a window bound, keeping unbounded sides unbounded.
func shift(bound, corr int64) int64 {
	switch {
	case bound == math.MinInt64 || bound == math.MaxInt64:
		return bound
	case corr > 0 && bound > math.MaxInt64-corr:
		return math.MaxInt64
	case corr < 0 && bound < math.MinInt64-corr:
		return math.MinInt64
	}
	return bound + corr
}

// LeapCorrection returns the cumulative leap second correction in effect at
// sec and reports whether sec is itself an inserted leap second.
func (t *Table) LeapCorrection(sec int64) (corr int64, hit bool) {
	i := sort.Search(len(t.leaps), func(i int) bool { return t.leaps[i].When > sec }) - 1
	if i < 0 {
		return 0, false
	}
	corr = t.leaps[i].Corr
	var prev int64
	if i > 0 {
		prev = t.leaps[i-1].Corr
	}
	return corr, sec == t.leaps[i].When && corr > prev
}

// Offsets returns every distinct UTC offset the table can produce in
// ascending order. The slice is shared by all callers and must not be
// modified.
func (t *Table) Offsets() []int64 { return t.offsets }

func (t *Table) distinctOffsets() []int64 {
	var offsets []int64
	for _, typ := range t.types {
		offsets = append(offsets, typ.Offset)
	}
	if t.rule != nil {
		for _, z := range t.rule.Zones() {
			offsets = append(offsets, z.Offset)
		}
	}
	slices.Sort(offsets)
	return slices.Compact(offsets)
}

// HasLeapSeconds reports whether the table carries leap second records.
func (t *Table) HasLeapSeconds() bool { return len(t.leaps) > 0 }

func (t *Table) Types() []TimeType { return slices.Clone(t.types) }

func (t *Table) Transitions() []Transition { return slices.Clone(t.transitions) }

func (t *Table) Leaps() []LeapRecord { return slices.Clone(t.leaps) }

// Rule returns the TZ string rule or nil.
func (t *Table) Rule() *posixrule.Rule { return t.rule }
