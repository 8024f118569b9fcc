package telegram

import (
	"errors"
	"fmt"
	"strings"
)

// TruncatedInputError reports a stream that ended before a required segment
// was fully read.
type TruncatedInputError struct {
	Segment SegmentType
	Field   string
	Offset  int // byte offset where reading stopped
	Need    int // bytes required for the field being read
	Have    int // bytes actually remaining
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("telegram: truncated input in segment %s (field %s): need %d bytes at offset %d, have %d",
		e.Segment, e.Field, e.Need, e.Offset, e.Have)
}

// UnknownSegmentError reports a type code the schema table does not
// recognize at a position where one is expected.
type UnknownSegmentError struct {
	Code   string
	Offset int
}

func (e *UnknownSegmentError) Error() string {
	return fmt.Sprintf("telegram: unknown telegram type code %q at offset %d", e.Code, e.Offset)
}

// MissingSegmentError reports a required singleton segment that never
// appeared in the stream.
type MissingSegmentError struct {
	Segment SegmentType
}

func (e *MissingSegmentError) Error() string {
	return fmt.Sprintf("telegram: required segment %s missing", e.Segment)
}

// EncodingError reports bytes the declared character encoding cannot decode.
// Names and addresses silently corrupted by a wrong encoding are worse than
// a failed parse, so decoding is strict.
type EncodingError struct {
	Segment SegmentType
	Field   string
	Offset  int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("telegram: invalid CP932 bytes in segment %s field %s at offset %d",
		e.Segment, e.Field, e.Offset)
}

// Violation is a single failed validation rule.
type Violation struct {
	Rule    string `json:"rule"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated rule, not just the first, so a
// caller can report all problems in one round trip.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Rule + ": " + v.Message
	}
	return "telegram: validation failed: " + strings.Join(msgs, "; ")
}

// Validation rule identifiers.
const (
	RuleOrderNumberRequired = "order-number-required"
	RuleOrderNumberLength   = "order-number-length"
	RuleOrderNumberDigits   = "order-number-digits"
	RuleVersionRequired     = "version-required"
	RuleVersionLength       = "version-length"
	RuleVersionDigits       = "version-digits"
	RuleOrderKeyMismatch    = "order-key-mismatch"
	RuleItemAttributeEmpty  = "item-attribute-empty"
	RuleHeaderRouting       = "header-routing"
	RuleCountDigits         = "count-digits"
)

// Error kind identifiers, for machine-readable classification at the
// transport boundary.
const (
	KindTruncatedInput = "truncated_input"
	KindUnknownSegment = "unknown_segment"
	KindMissingSegment = "missing_segment"
	KindEncoding       = "encoding"
	KindValidation     = "validation"
)

// ErrorKind classifies a parse or validation failure, unwrapping as needed.
// It returns "" for errors outside the telegram taxonomy.
func ErrorKind(err error) string {
	var (
		trunc      *TruncatedInputError
		unknown    *UnknownSegmentError
		missing    *MissingSegmentError
		encoding   *EncodingError
		validation *ValidationError
	)
	switch {
	case errors.As(err, &trunc):
		return KindTruncatedInput
	case errors.As(err, &unknown):
		return KindUnknownSegment
	case errors.As(err, &missing):
		return KindMissingSegment
	case errors.As(err, &encoding):
		return KindEncoding
	case errors.As(err, &validation):
		return KindValidation
	}
	return ""
}
