package telegram

import "fmt"

const (
	orderNumberLen = 8
	versionLen     = 2
)

// Validate checks the structural invariants of a parsed record and reports
// every violated rule at once. It returns nil when the record is valid; the
// record itself is never modified.
func Validate(rec *Record) error {
	var vs []Violation

	vs = append(vs, checkDigitField("order_info.number", rec.Content.OrderInfo.Number,
		orderNumberLen, RuleOrderNumberRequired, RuleOrderNumberLength, RuleOrderNumberDigits)...)
	vs = append(vs, checkDigitField("order_info.version", rec.Content.OrderInfo.Version,
		versionLen, RuleVersionRequired, RuleVersionLength, RuleVersionDigits)...)

	for i, item := range rec.Content.ItemGroup.ItemInfo {
		if item.Attribute == "" {
			vs = append(vs, Violation{
				Rule:    RuleItemAttributeEmpty,
				Field:   fmt.Sprintf("item_group.item_info[%d].attribute", i),
				Message: "item line carries no attribute tag",
			})
		}
	}

	vs = append(vs, checkRouting(rec.Common)...)

	if len(vs) > 0 {
		return &ValidationError{Violations: vs}
	}
	return nil
}

// ValidateSummary checks the agreement invariant between a record and the
// flattened order key held alongside it (e.g. columns of a stored row):
// order_info.number/version must equal the top-level pair exactly.
func ValidateSummary(rec *Record, orderNumber, version string) error {
	var vs []Violation
	if rec.Content.OrderInfo.Number != orderNumber {
		vs = append(vs, Violation{
			Rule:    RuleOrderKeyMismatch,
			Field:   "order_info.number",
			Message: fmt.Sprintf("nested order number %q disagrees with summary %q", rec.Content.OrderInfo.Number, orderNumber),
		})
	}
	if rec.Content.OrderInfo.Version != version {
		vs = append(vs, Violation{
			Rule:    RuleOrderKeyMismatch,
			Field:   "order_info.version",
			Message: fmt.Sprintf("nested version %q disagrees with summary %q", rec.Content.OrderInfo.Version, version),
		})
	}
	if len(vs) > 0 {
		return &ValidationError{Violations: vs}
	}
	return nil
}

func checkDigitField(field, v string, width int, ruleRequired, ruleLength, ruleDigits string) []Violation {
	if v == "" {
		return []Violation{{Rule: ruleRequired, Field: field, Message: field + " is required"}}
	}
	var vs []Violation
	if len(v) != width {
		vs = append(vs, Violation{
			Rule:    ruleLength,
			Field:   field,
			Message: fmt.Sprintf("%s must be exactly %d characters, got %d", field, width, len(v)),
		})
	}
	if !isDigits(v) {
		vs = append(vs, Violation{
			Rule:    ruleDigits,
			Field:   field,
			Message: fmt.Sprintf("%s must contain only ASCII digits, got %q", field, v),
		})
	}
	return vs
}

func checkRouting(c CommonInfo) []Violation {
	var vs []Violation
	if c.RecordContinuation != headerRecordContinuation {
		vs = append(vs, Violation{
			Rule:    RuleHeaderRouting,
			Field:   "common.record_continuation",
			Message: fmt.Sprintf("expected %q, got %q", headerRecordContinuation, c.RecordContinuation),
		})
	}
	if c.DestinationSystemCode != headerDestinationSystem {
		vs = append(vs, Violation{
			Rule:    RuleHeaderRouting,
			Field:   "common.destination_system_code",
			Message: fmt.Sprintf("expected %q, got %q", headerDestinationSystem, c.DestinationSystemCode),
		})
	}
	if c.SourceSystemCode != headerSourceSystem {
		vs = append(vs, Violation{
			Rule:    RuleHeaderRouting,
			Field:   "common.source_system_code",
			Message: fmt.Sprintf("expected %q, got %q", headerSourceSystem, c.SourceSystemCode),
		})
	}
	return vs
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
