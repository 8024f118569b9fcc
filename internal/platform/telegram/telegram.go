// Package telegram parses fixed-format injection order telegrams
// (注射オーダ依頼電文): CP932 byte streams with a 64-byte common header and
// a fixed-width content part carrying patient, order, doctor, and
// repeating item-line segments.
//
// Parsing is a pure, single-pass function; the only shared state is the
// immutable schema table, so any number of telegrams may be parsed
// concurrently. A parse either completes or fails fast with one of the
// classified errors in errors.go. There are no partial results.
package telegram

import "fmt"

// Parse decodes one raw telegram into its nested record using the current
// format revision.
func Parse(raw []byte) (*Record, error) {
	return ParseWithLayout(LayoutRev01, raw)
}

// ParseWithLayout decodes one raw telegram against a specific format
// revision's schema table.
func ParseWithLayout(revision string, raw []byte) (*Record, error) {
	l, ok := LayoutFor(revision)
	if !ok {
		return nil, fmt.Errorf("telegram: unknown format revision %q", revision)
	}

	segs, trailing, err := l.Segment(raw)
	if err != nil {
		return nil, err
	}

	mapped := make([]MappedSegment, len(segs))
	for i, s := range segs {
		mapped[i] = l.MapSegment(s)
	}

	rec, err := l.Build(mapped)
	if err != nil {
		return nil, err
	}
	rec.TrailingBytes = trailing

	return rec, nil
}
