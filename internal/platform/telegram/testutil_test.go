package telegram

import (
	"bytes"
	"fmt"
	"strconv"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// sampleBuilder assembles raw CP932 telegram bytes against the current
// layout so tests exercise the real wire format rather than hand-counted
// offsets.
type sampleBuilder struct {
	overrides      map[SegmentType]map[string]string
	profileEntries []map[string]string
	items          []map[string]string
}

func newSample() *sampleBuilder {
	return &sampleBuilder{overrides: make(map[SegmentType]map[string]string)}
}

func (b *sampleBuilder) set(t SegmentType, key, val string) *sampleBuilder {
	if b.overrides[t] == nil {
		b.overrides[t] = make(map[string]string)
	}
	b.overrides[t][key] = val
	return b
}

func (b *sampleBuilder) addProfileEntry(fields map[string]string) *sampleBuilder {
	b.profileEntries = append(b.profileEntries, fields)
	return b
}

func (b *sampleBuilder) addItem(fields map[string]string) *sampleBuilder {
	b.items = append(b.items, fields)
	return b
}

// sampleDefaults are the field values a well-formed telegram carries unless
// a test overrides them.
var sampleDefaults = map[SegmentType]map[string]string{
	SegHeader: {
		"message_type":            "II",
		"record_continuation":     "E",
		"destination_system_code": "HS",
		"source_system_code":      "XX",
		"processing_date":         "20240501",
		"processing_time":         "120000",
		"client_name":             "WS01",
	},
	SegPatient: {
		"id":         "0012345678",
		"kanji_name": "山田太郎",
		"sex":        "1",
		"birthdate":  "19800101",
	},
	SegInpatient: {
		"status":    "1",
		"dept_code": "010",
		"ward_code": "A01",
	},
	SegOrder: {
		"number":       "12345678",
		"version":      "01",
		"sakusei_date": "20240501",
		"sakusei_time": "093000",
	},
	SegDoctor: {
		"d_id":       "D0000001",
		"kanji_name": "医師花子",
	},
}

func (b *sampleBuilder) build(t *testing.T) []byte {
	t.Helper()

	var out []byte
	for _, spec := range layoutRev01.Segments {
		switch {
		case spec.Type == SegProfileEntry:
			for _, entry := range b.profileEntries {
				out = append(out, b.encodeSegment(t, spec, entry)...)
			}
		case spec.Type == SegItem:
			for _, item := range b.items {
				out = append(out, b.encodeSegment(t, spec, item)...)
			}
		default:
			fields := make(map[string]string)
			for k, v := range sampleDefaults[spec.Type] {
				fields[k] = v
			}
			for k, v := range b.overrides[spec.Type] {
				fields[k] = v
			}
			if spec.Type == SegProfile {
				if _, ok := fields["profile_count"]; !ok {
					fields["profile_count"] = strconv.Itoa(len(b.profileEntries))
				}
			}
			if spec.Type == SegItemCount {
				if _, ok := fields["item_count"]; !ok {
					fields["item_count"] = strconv.Itoa(len(b.items))
				}
			}
			out = append(out, b.encodeSegment(t, spec, fields)...)
		}
	}
	return out
}

func (b *sampleBuilder) encodeSegment(t *testing.T, spec SegmentSpec, fields map[string]string) []byte {
	t.Helper()
	var out []byte
	for _, f := range spec.Fields {
		out = append(out, encodeCP932Field(t, fields[f.Key], f.Width)...)
	}
	return out
}

// encodeCP932Field encodes v as CP932 and right pads with spaces to width.
func encodeCP932Field(t *testing.T, v string, width int) []byte {
	t.Helper()
	enc, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(v))
	if err != nil {
		t.Fatalf("encode %q: %v", v, err)
	}
	if len(enc) > width {
		t.Fatalf("value %q encodes to %d bytes, field width is %d", v, len(enc), width)
	}
	return append(enc, bytes.Repeat([]byte{' '}, width-len(enc))...)
}

// defaultItem returns a prescription item line with the given name and a
// quantity of 2 tablets.
func defaultItem(name string) map[string]string {
	return map[string]string{
		"attribute": "ID1",
		"code":      "10000001",
		"name":      name,
		"quantity":  "00000002.00",
		"unit_name": "錠",
		"yj_code":   fmt.Sprintf("%-20s", "1124017F1025"),
	}
}

func strptr(s string) *string { return &s }
