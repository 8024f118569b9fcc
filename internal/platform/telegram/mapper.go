package telegram

import "strconv"

// MappedSegment is a raw segment after semantic mapping: known fields
// canonicalized per their declared kind, unknown keys preserved verbatim in
// the Extra overflow bucket rather than dropped.
type MappedSegment struct {
	Type   SegmentType
	Offset int
	Fields map[string]string
	Extra  map[string]string
}

// MapSegment converts one raw segment into its semantically keyed form. It
// is a pure transformation: numeric fields are canonicalized (zero padding
// stripped), blank fields are omitted as absent, and keys the schema does
// not declare for this segment type go to the overflow bucket.
//
// Digit and fixed-length checks are deliberately NOT performed here; they
// are deferred to Validate so every violation surfaces in one report.
func (l *Layout) MapSegment(rs RawSegment) MappedSegment {
	ms := MappedSegment{
		Type:   rs.Type,
		Offset: rs.Offset,
		Fields: make(map[string]string, len(rs.Fields)),
	}
	for key, val := range rs.Fields {
		spec, known := l.fieldSpec(rs.Type, key)
		if !known {
			if ms.Extra == nil {
				ms.Extra = make(map[string]string)
			}
			ms.Extra[key] = val
			continue
		}
		if val == "" {
			continue
		}
		if spec.Kind == KindNumeric {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				val = strconv.FormatFloat(f, 'f', -1, 64)
			}
		}
		ms.Fields[key] = val
	}
	return ms
}
