package telegram

import "strconv"

// RawSegment is one typed slice of the stream: the segment type plus its
// decoded raw field values, keyed by the schema's field keys. Empty values
// mean the field was space padding on the wire.
type RawSegment struct {
	Type   SegmentType
	Offset int // byte offset of the segment start
	Fields map[string]string
}

// Segment splits a raw telegram into its ordered segment sequence. It is a
// single-pass, non-backtracking walk of the layout: each position consults
// the schema table for the segment expected there and consumes exactly its
// declared widths. Repeating segments (profile entries, item lines) are
// consumed count-many times in arrival order.
//
// The second return value is the number of bytes left after the final
// segment; trailing bytes are tolerated, not an error.
func (l *Layout) Segment(raw []byte) ([]RawSegment, int, error) {
	s := &segmenter{layout: l, data: raw}

	var segs []RawSegment
	byType := make(map[SegmentType]*RawSegment)

	for _, spec := range l.Segments {
		count := 1
		if spec.Repeat != nil {
			n, err := s.repeatCount(spec, byType)
			if err != nil {
				return nil, 0, err
			}
			count = n
		}

		for i := 0; i < count; i++ {
			seg, err := s.readSegment(spec)
			if err != nil {
				return nil, 0, err
			}
			segs = append(segs, seg)
			if spec.Repeat == nil {
				last := seg
				byType[spec.Type] = &last
			}
		}

		if spec.Type == SegHeader {
			if err := s.checkHeader(byType[SegHeader]); err != nil {
				return nil, 0, err
			}
		}
	}

	return segs, len(raw) - s.off, nil
}

type segmenter struct {
	layout *Layout
	data   []byte
	off    int
}

func (s *segmenter) readSegment(spec SegmentSpec) (RawSegment, error) {
	seg := RawSegment{
		Type:   spec.Type,
		Offset: s.off,
		Fields: make(map[string]string, len(spec.Fields)),
	}
	for _, f := range spec.Fields {
		v, err := s.readField(spec.Type, f)
		if err != nil {
			return RawSegment{}, err
		}
		seg.Fields[f.Key] = v
	}
	return seg, nil
}

func (s *segmenter) readField(t SegmentType, f FieldSpec) (string, error) {
	if s.off+f.Width > len(s.data) {
		return "", &TruncatedInputError{
			Segment: t,
			Field:   f.Key,
			Offset:  s.off,
			Need:    f.Width,
			Have:    len(s.data) - s.off,
		}
	}
	b := s.data[s.off : s.off+f.Width]
	v, ok := decodeField(b)
	if !ok {
		return "", &EncodingError{Segment: t, Field: f.Key, Offset: s.off}
	}
	s.off += f.Width
	return v, nil
}

// repeatCount resolves a repeating segment's occurrence count from the
// digit field declared in its RepeatSpec. Blank counts as zero.
func (s *segmenter) repeatCount(spec SegmentSpec, byType map[SegmentType]*RawSegment) (int, error) {
	src := byType[spec.Repeat.CountSegment]
	if src == nil {
		// registerLayout guarantees the count segment precedes this one.
		return 0, &MissingSegmentError{Segment: spec.Repeat.CountSegment}
	}
	v := src.Fields[spec.Repeat.CountField]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &ValidationError{Violations: []Violation{{
			Rule:    RuleCountDigits,
			Field:   string(spec.Repeat.CountSegment) + "." + spec.Repeat.CountField,
			Message: "repeat count " + strconv.Quote(v) + " is not a non-negative integer",
		}}}
	}
	return n, nil
}

// checkHeader rejects streams whose header carries a telegram type code the
// schema table does not know.
func (s *segmenter) checkHeader(h *RawSegment) error {
	code := h.Fields["message_type"]
	if !telegramTypes[code] {
		return &UnknownSegmentError{Code: code, Offset: h.Offset}
	}
	return nil
}
