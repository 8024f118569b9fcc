package telegram

import "fmt"

// SegmentType identifies one logical record type within a telegram stream.
type SegmentType string

const (
	SegHeader       SegmentType = "header"
	SegPatient      SegmentType = "patient_info"
	SegInpatient    SegmentType = "inpatient_info"
	SegOrder        SegmentType = "order_info"
	SegDoctor       SegmentType = "doctor_info"
	SegProfile      SegmentType = "patient_profile"
	SegProfileEntry SegmentType = "profile_entry"
	SegRegimen      SegmentType = "regimen_info"
	SegItemCount    SegmentType = "item_count"
	SegItem         SegmentType = "item"
)

// FieldKind declares how a raw field value is interpreted.
type FieldKind int

const (
	KindText FieldKind = iota
	KindCode
	KindDigits
	KindNumeric
	KindDate
	KindTime
)

// FieldSpec describes a single fixed-width field: its semantic key, its
// width in bytes of the CP932 stream, and its value kind.
type FieldSpec struct {
	Key   string
	Width int
	Kind  FieldKind
}

// RepeatSpec marks a segment as repeating. The occurrence count is carried
// by a digit field on an earlier singleton segment.
type RepeatSpec struct {
	CountSegment SegmentType
	CountField   string
}

// SegmentSpec describes the field layout of one segment type.
type SegmentSpec struct {
	Type   SegmentType
	Fields []FieldSpec
	Repeat *RepeatSpec
}

// Layout is the schema table for one format revision: the ordered segment
// specs the segmenter walks. Loaded once, immutable at run time.
type Layout struct {
	Revision string
	Segments []SegmentSpec

	fields map[SegmentType]map[string]FieldSpec
}

// LayoutRev01 is the only telegram format revision in use today. A future
// revision registers a second Layout under its own key.
const LayoutRev01 = "01"

// telegramTypes are the recognized header type codes. "II" is the injection
// order request telegram.
var telegramTypes = map[string]bool{
	"II": true,
}

// Fixed routing codes every telegram header must carry.
const (
	headerRecordContinuation = "E"
	headerDestinationSystem  = "HS"
	headerSourceSystem       = "XX"
)

var layoutRev01 = &Layout{
	Revision: LayoutRev01,
	Segments: []SegmentSpec{
		{Type: SegHeader, Fields: []FieldSpec{
			{Key: "message_type", Width: 2, Kind: KindCode},
			{Key: "record_continuation", Width: 1, Kind: KindCode},
			{Key: "destination_system_code", Width: 2, Kind: KindCode},
			{Key: "source_system_code", Width: 2, Kind: KindCode},
			{Key: "processing_date", Width: 8, Kind: KindDate},
			{Key: "processing_time", Width: 6, Kind: KindTime},
			{Key: "client_name", Width: 8, Kind: KindText},
			{Key: "d_id", Width: 8, Kind: KindText},
			{Key: "processing_class", Width: 2, Kind: KindCode},
			{Key: "response_type", Width: 2, Kind: KindCode},
			{Key: "message_length", Width: 6, Kind: KindDigits},
			{Key: "error_code", Width: 5, Kind: KindCode},
			{Key: "reserve", Width: 12, Kind: KindText},
		}},
		{Type: SegPatient, Fields: []FieldSpec{
			{Key: "id", Width: 10, Kind: KindText},
			{Key: "kanji_name", Width: 30, Kind: KindText},
			{Key: "kana_name", Width: 60, Kind: KindText},
			{Key: "sex", Width: 1, Kind: KindCode},
			{Key: "birthdate", Width: 8, Kind: KindDate},
			{Key: "postal_code_1", Width: 3, Kind: KindDigits},
			{Key: "postal_code_2", Width: 4, Kind: KindDigits},
			{Key: "address", Width: 100, Kind: KindText},
			{Key: "phone_number", Width: 15, Kind: KindText},
		}},
		{Type: SegInpatient, Fields: []FieldSpec{
			{Key: "status", Width: 1, Kind: KindCode},
			{Key: "dept_code", Width: 3, Kind: KindCode},
			{Key: "ward_code", Width: 3, Kind: KindCode},
			{Key: "room_code", Width: 5, Kind: KindCode},
			{Key: "bed_code", Width: 2, Kind: KindCode},
		}},
		{Type: SegOrder, Fields: []FieldSpec{
			{Key: "doc_type", Width: 1, Kind: KindCode},
			{Key: "doc_id", Width: 30, Kind: KindText},
			{Key: "version", Width: 2, Kind: KindDigits},
			{Key: "parent_doc_id", Width: 30, Kind: KindText},
			{Key: "number", Width: 8, Kind: KindDigits},
			{Key: "related_order_date", Width: 8, Kind: KindDate},
			{Key: "related_order_number", Width: 8, Kind: KindDigits},
			{Key: "jisshi_date", Width: 8, Kind: KindDate},
			{Key: "jisshi_time", Width: 6, Kind: KindTime},
			{Key: "sakusei_date", Width: 8, Kind: KindDate},
			{Key: "sakusei_time", Width: 6, Kind: KindTime},
			{Key: "hikikaeken_no", Width: 8, Kind: KindText},
			{Key: "inpatient_status", Width: 1, Kind: KindCode},
			{Key: "hakkou_dept_code", Width: 3, Kind: KindCode},
			{Key: "hakkou_ward_code", Width: 3, Kind: KindCode},
			{Key: "denpyo_code", Width: 4, Kind: KindCode},
			{Key: "denpyo_name", Width: 50, Kind: KindText},
		}},
		{Type: SegDoctor, Fields: []FieldSpec{
			{Key: "d_id", Width: 8, Kind: KindText},
			{Key: "kanji_name", Width: 20, Kind: KindText},
			{Key: "kana_name", Width: 40, Kind: KindText},
			{Key: "daikoh_d_id", Width: 8, Kind: KindText},
			{Key: "daikoh_kanji_name", Width: 20, Kind: KindText},
			{Key: "mayaku_1_id", Width: 10, Kind: KindText},
			{Key: "mayaku_1_start_date", Width: 8, Kind: KindDate},
			{Key: "mayaku_1_end_date", Width: 8, Kind: KindDate},
			{Key: "mayaku_2_id", Width: 10, Kind: KindText},
			{Key: "mayaku_2_start_date", Width: 8, Kind: KindDate},
			{Key: "mayaku_2_end_date", Width: 8, Kind: KindDate},
		}},
		{Type: SegProfile, Fields: []FieldSpec{
			{Key: "height_value", Width: 11, Kind: KindNumeric},
			{Key: "height_date", Width: 8, Kind: KindDate},
			{Key: "weight_value", Width: 11, Kind: KindNumeric},
			{Key: "weight_date", Width: 8, Kind: KindDate},
			{Key: "bsa_value", Width: 11, Kind: KindNumeric},
			{Key: "profile_count", Width: 3, Kind: KindDigits},
		}},
		{Type: SegProfileEntry, Repeat: &RepeatSpec{CountSegment: SegProfile, CountField: "profile_count"}, Fields: []FieldSpec{
			{Key: "code", Width: 10, Kind: KindCode},
			{Key: "name", Width: 50, Kind: KindText},
			{Key: "data", Width: 500, Kind: KindText},
		}},
		{Type: SegRegimen, Fields: []FieldSpec{
			{Key: "code", Width: 8, Kind: KindCode},
			{Key: "name", Width: 50, Kind: KindText},
			{Key: "course_count", Width: 3, Kind: KindDigits},
			{Key: "drip_order", Width: 4, Kind: KindText},
			{Key: "start_date", Width: 14, Kind: KindText},
			{Key: "body_height", Width: 11, Kind: KindNumeric},
			{Key: "body_weight", Width: 11, Kind: KindNumeric},
			{Key: "body_bsa", Width: 11, Kind: KindNumeric},
		}},
		{Type: SegItemCount, Fields: []FieldSpec{
			{Key: "item_count", Width: 4, Kind: KindDigits},
		}},
		{Type: SegItem, Repeat: &RepeatSpec{CountSegment: SegItemCount, CountField: "item_count"}, Fields: []FieldSpec{
			{Key: "attribute", Width: 3, Kind: KindCode},
			{Key: "code", Width: 8, Kind: KindCode},
			{Key: "linked_item_code", Width: 8, Kind: KindCode},
			{Key: "name", Width: 50, Kind: KindText},
			{Key: "quantity", Width: 11, Kind: KindNumeric},
			{Key: "unit_flag", Width: 1, Kind: KindCode},
			{Key: "unit_code", Width: 3, Kind: KindCode},
			{Key: "unit_name", Width: 4, Kind: KindText},
			{Key: "max_dose_flag", Width: 1, Kind: KindCode},
			{Key: "item_row_date", Width: 8, Kind: KindDate},
			{Key: "item_row_time", Width: 6, Kind: KindTime},
			{Key: "buppin_code", Width: 9, Kind: KindCode},
			{Key: "jan_code", Width: 13, Kind: KindCode},
			{Key: "iyakuhin_code", Width: 12, Kind: KindCode},
			{Key: "hot_code", Width: 13, Kind: KindCode},
			{Key: "receden_code", Width: 12, Kind: KindCode},
			{Key: "jlac10_code", Width: 17, Kind: KindCode},
			{Key: "yj_code", Width: 20, Kind: KindCode},
			{Key: "logi_code", Width: 20, Kind: KindCode},
			{Key: "order_kanri_no", Width: 14, Kind: KindCode},
			{Key: "iji_kanri_no", Width: 10, Kind: KindCode},
		}},
	},
}

// requiredSegments must each occur exactly once in every telegram.
var requiredSegments = []SegmentType{SegHeader, SegPatient, SegOrder, SegDoctor}

var layouts = map[string]*Layout{}

func init() {
	registerLayout(layoutRev01)
}

// registerLayout verifies a layout's integrity and adds it to the registry.
// A broken schema table aborts process initialization; it is the only fatal
// condition in this package.
func registerLayout(l *Layout) {
	if err := l.check(); err != nil {
		panic(fmt.Sprintf("telegram: invalid layout %s: %v", l.Revision, err))
	}
	l.fields = make(map[SegmentType]map[string]FieldSpec, len(l.Segments))
	for _, seg := range l.Segments {
		idx := make(map[string]FieldSpec, len(seg.Fields))
		for _, f := range seg.Fields {
			idx[f.Key] = f
		}
		l.fields[seg.Type] = idx
	}
	layouts[l.Revision] = l
}

func (l *Layout) check() error {
	seen := make(map[SegmentType]bool)
	for _, seg := range l.Segments {
		if seen[seg.Type] {
			return fmt.Errorf("duplicate segment type %s", seg.Type)
		}
		if len(seg.Fields) == 0 {
			return fmt.Errorf("segment %s has no fields", seg.Type)
		}
		keys := make(map[string]bool)
		for _, f := range seg.Fields {
			if f.Width <= 0 {
				return fmt.Errorf("segment %s field %s: non-positive width", seg.Type, f.Key)
			}
			if keys[f.Key] {
				return fmt.Errorf("segment %s: duplicate field key %s", seg.Type, f.Key)
			}
			keys[f.Key] = true
		}
		if seg.Repeat != nil {
			if !seen[seg.Repeat.CountSegment] {
				return fmt.Errorf("segment %s repeats on %s which does not precede it",
					seg.Type, seg.Repeat.CountSegment)
			}
		}
		seen[seg.Type] = true
	}
	return nil
}

// LayoutFor returns the schema table for a format revision.
func LayoutFor(revision string) (*Layout, bool) {
	l, ok := layouts[revision]
	return l, ok
}

// fieldSpec looks up the declared spec for a semantic key within a segment
// type. The second return is false for keys the schema does not know.
func (l *Layout) fieldSpec(t SegmentType, key string) (FieldSpec, bool) {
	f, ok := l.fields[t][key]
	return f, ok
}
