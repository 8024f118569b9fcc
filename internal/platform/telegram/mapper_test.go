package telegram

import "testing"

func TestMapSegmentOmitsBlanks(t *testing.T) {
	rs := RawSegment{
		Type: SegPatient,
		Fields: map[string]string{
			"id":         "0012345678",
			"kanji_name": "",
			"address":    "",
		},
	}

	ms := layoutRev01.MapSegment(rs)

	if got := ms.Fields["id"]; got != "0012345678" {
		t.Errorf("id: expected 0012345678, got %q", got)
	}
	if _, ok := ms.Fields["kanji_name"]; ok {
		t.Error("blank kanji_name should be absent, not empty")
	}
	if _, ok := ms.Fields["address"]; ok {
		t.Error("blank address should be absent, not empty")
	}
}

func TestMapSegmentOverflowBucket(t *testing.T) {
	rs := RawSegment{
		Type: SegPatient,
		Fields: map[string]string{
			"id":            "0012345678",
			"mystery_field": "42",
		},
	}

	ms := layoutRev01.MapSegment(rs)

	if _, ok := ms.Fields["mystery_field"]; ok {
		t.Error("unknown key must not land in the mapped fields")
	}
	if got := ms.Extra["mystery_field"]; got != "42" {
		t.Errorf("expected unknown key preserved in Extra, got %q", got)
	}
}

func TestMapSegmentNoExtraAllocationWhenClean(t *testing.T) {
	rs := RawSegment{
		Type:   SegPatient,
		Fields: map[string]string{"id": "0012345678"},
	}

	ms := layoutRev01.MapSegment(rs)

	if ms.Extra != nil {
		t.Errorf("expected nil Extra for fully known fields, got %v", ms.Extra)
	}
}

func TestMapSegmentNumericCanonicalization(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"00000002.00", "2"},
		{"00000062.50", "62.5"},
		{"0.25", "0.25"},
		{"not-a-number", "not-a-number"}, // left verbatim for the validator
	}

	for _, tc := range cases {
		rs := RawSegment{
			Type:   SegItem,
			Fields: map[string]string{"attribute": "ID1", "quantity": tc.in},
		}
		ms := layoutRev01.MapSegment(rs)
		if got := ms.Fields["quantity"]; got != tc.want {
			t.Errorf("quantity %q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
