package telegram

import "strconv"

// Record is the full nested parse result of one telegram. Optional fields
// are nil when the wire carried only padding; the "absent renders as a
// placeholder" policy belongs to presentation, never to this package.
type Record struct {
	Common        CommonInfo `json:"common"`
	Content       Content    `json:"content"`
	TrailingBytes int        `json:"trailing_bytes,omitempty"`
}

// CommonInfo is the 64-byte common part shared by every telegram type.
type CommonInfo struct {
	MessageType           string         `json:"message_type"`
	RecordContinuation    string         `json:"record_continuation"`
	DestinationSystemCode string         `json:"destination_system_code"`
	SourceSystemCode      string         `json:"source_system_code"`
	ProcessingInfo        ProcessingInfo `json:"processing_info"`
	ClientName            *string        `json:"client_name"`
	UserID                *string        `json:"d_id"`
	ProcessingClass       *string        `json:"processing_class"`
	ResponseType          *string        `json:"response_type"`
	MessageLength         *string        `json:"message_length"`
	ErrorCode             *string        `json:"error_code"`
}

type ProcessingInfo struct {
	Date *string `json:"date"`
	Time *string `json:"time"`
}

// Content is the variable-length content part of an order telegram.
type Content struct {
	PatientInfo    PatientInfo    `json:"patient_info"`
	InpatientInfo  InpatientInfo  `json:"inpatient_info"`
	OrderInfo      OrderInfo      `json:"order_info"`
	PatientProfile PatientProfile `json:"patient_profile"`
	RegimenInfo    RegimenInfo    `json:"regimen_info"`
	ItemCountInfo  ItemCountInfo  `json:"item_count_info"`
	ItemGroup      ItemGroup      `json:"item_group"`
}

type PatientInfo struct {
	ID          *string           `json:"id"`
	KanjiName   *string           `json:"kanji_name"`
	KanaName    *string           `json:"kana_name"`
	Sex         *string           `json:"sex"`
	Birthdate   *string           `json:"birthdate"`
	PostalCode1 *string           `json:"postal_code_1"`
	PostalCode2 *string           `json:"postal_code_2"`
	Address     *string           `json:"address"`
	PhoneNumber *string           `json:"phone_number"`
	Extra       map[string]string `json:"extra,omitempty"`
}

type InpatientInfo struct {
	Status   *string           `json:"status"`
	DeptCode *string           `json:"dept_code"`
	WardCode *string           `json:"ward_code"`
	RoomCode *string           `json:"room_code"`
	BedCode  *string           `json:"bed_code"`
	Extra    map[string]string `json:"extra,omitempty"`
}

type OrderInfo struct {
	DocType          *string           `json:"doc_type"`
	DocID            *string           `json:"doc_id"`
	Version          string            `json:"version"`
	ParentDocID      *string           `json:"parent_doc_id"`
	Number           string            `json:"number"`
	RelatedOrderInfo RelatedOrderInfo  `json:"related_order_info"`
	JisshiDatetime   DateTime          `json:"jisshi_datetime"`
	SakuseiDatetime  DateTime          `json:"sakusei_datetime"`
	HikikaekenNo     *string           `json:"hikikaeken_no"`
	InpatientStatus  *string           `json:"inpatient_status"`
	HakkouDeptCode   *string           `json:"hakkou_dept_code"`
	HakkouWardCode   *string           `json:"hakkou_ward_code"`
	DenpyoCode       *string           `json:"denpyo_code"`
	DenpyoName       *string           `json:"denpyo_name"`
	DoctorInfo       DoctorInfo        `json:"doctor_info"`
	DaikohInfo       DaikohInfo        `json:"daikoh_info"`
	MayakuShiyosha1  MayakuShiyosha    `json:"mayaku_shiyosha_1"`
	MayakuShiyosha2  MayakuShiyosha    `json:"mayaku_shiyosha_2"`
	Extra            map[string]string `json:"extra,omitempty"`
}

type RelatedOrderInfo struct {
	Date   *string `json:"date"`
	Number *string `json:"number"`
}

type DateTime struct {
	Date *string `json:"date"`
	Time *string `json:"time"`
}

type DoctorInfo struct {
	ID        *string `json:"d_id"`
	KanjiName *string `json:"kanji_name"`
	KanaName  *string `json:"kana_name"`
}

type DaikohInfo struct {
	ID        *string `json:"d_id"`
	KanjiName *string `json:"kanji_name"`
}

// MayakuShiyosha is a licensed narcotic handler block.
type MayakuShiyosha struct {
	ID        *string `json:"id"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

type PatientProfile struct {
	Height      Measurement `json:"height"`
	Weight      Measurement `json:"weight"`
	BSA         BSA         `json:"bsa"`
	ProfileInfo ProfileInfo `json:"profile_info"`
}

type Measurement struct {
	Value *float64 `json:"value"`
	Date  *string  `json:"date"`
}

type BSA struct {
	Value *float64 `json:"value"`
}

type ProfileInfo struct {
	ProfileCount int            `json:"profile_count"`
	ProfileGroup []ProfileEntry `json:"profile_group"`
}

type ProfileEntry struct {
	Code  *string           `json:"code"`
	Name  *string           `json:"name"`
	Data  *string           `json:"data"`
	Extra map[string]string `json:"extra,omitempty"`
}

type RegimenInfo struct {
	Code        *string           `json:"code"`
	Name        *string           `json:"name"`
	CourseCount *string           `json:"course_count"`
	DripOrder   *string           `json:"drip_order"`
	StartDate   *string           `json:"start_date"`
	BodyInfo    RegimenBodyInfo   `json:"body_info"`
	Extra       map[string]string `json:"extra,omitempty"`
}

type RegimenBodyInfo struct {
	Height *float64 `json:"height"`
	Weight *float64 `json:"weight"`
	BSA    *float64 `json:"bsa"`
}

type ItemCountInfo struct {
	ItemCount int `json:"item_count"`
}

type ItemGroup struct {
	ItemInfo []ItemLine `json:"item_info"`
}

// ItemLine is one dispensed-item or administrative row. The attribute tag
// is copied through unchanged; classifying which tags mean "prescription"
// happens downstream, keeping this structure agnostic to vocabulary growth.
type ItemLine struct {
	Attribute      string            `json:"attribute"`
	Code           *string           `json:"code"`
	LinkedItemCode *string           `json:"linked_item_code"`
	Name           *string           `json:"name"`
	Quantity       *float64          `json:"quantity"`
	UnitFlag       *string           `json:"unit_flag"`
	UnitCode       *string           `json:"unit_code"`
	UnitName       *string           `json:"unit_name"`
	MaxDoseFlag    *string           `json:"max_dose_flag"`
	ItemRowDate    *string           `json:"item_row_date"`
	ItemRowTime    *string           `json:"item_row_time"`
	CodeGroup      CodeGroup         `json:"code_group"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// CodeGroup carries the standard drug/material code identifiers of an item.
type CodeGroup struct {
	BuppinCode   *string `json:"buppin_code"`
	JanCode      *string `json:"jan_code"`
	IyakuhinCode *string `json:"iyakuhin_code"`
	HotCode      *string `json:"hot_code"`
	RecedenCode  *string `json:"receden_code"`
	Jlac10Code   *string `json:"jlac10_code"`
	YjCode       *string `json:"yj_code"`
	LogiCode     *string `json:"logi_code"`
	OrderKanriNo *string `json:"order_kanri_no"`
	IjiKanriNo   *string `json:"iji_kanri_no"`
}

// Build aggregates the full mapped segment sequence of one telegram into
// the nested record. Singleton segments populate their nested object; each
// item-line segment appends in arrival order.
func (l *Layout) Build(segs []MappedSegment) (*Record, error) {
	seen := make(map[SegmentType]bool, len(segs))
	rec := &Record{}

	for _, seg := range segs {
		seen[seg.Type] = true
		switch seg.Type {
		case SegHeader:
			rec.Common = buildCommon(seg)
		case SegPatient:
			rec.Content.PatientInfo = buildPatient(seg)
		case SegInpatient:
			rec.Content.InpatientInfo = buildInpatient(seg)
		case SegOrder:
			rec.Content.OrderInfo = buildOrder(seg)
		case SegDoctor:
			applyDoctor(&rec.Content.OrderInfo, seg)
		case SegProfile:
			rec.Content.PatientProfile = buildProfile(seg)
		case SegProfileEntry:
			rec.Content.PatientProfile.ProfileInfo.ProfileGroup = append(
				rec.Content.PatientProfile.ProfileInfo.ProfileGroup, buildProfileEntry(seg))
		case SegRegimen:
			rec.Content.RegimenInfo = buildRegimen(seg)
		case SegItemCount:
			rec.Content.ItemCountInfo = ItemCountInfo{ItemCount: intField(seg, "item_count")}
		case SegItem:
			rec.Content.ItemGroup.ItemInfo = append(rec.Content.ItemGroup.ItemInfo, buildItem(seg))
		}
	}

	for _, req := range requiredSegments {
		if !seen[req] {
			return nil, &MissingSegmentError{Segment: req}
		}
	}

	return rec, nil
}

func buildCommon(seg MappedSegment) CommonInfo {
	return CommonInfo{
		MessageType:           seg.Fields["message_type"],
		RecordContinuation:    seg.Fields["record_continuation"],
		DestinationSystemCode: seg.Fields["destination_system_code"],
		SourceSystemCode:      seg.Fields["source_system_code"],
		ProcessingInfo: ProcessingInfo{
			Date: strField(seg, "processing_date"),
			Time: strField(seg, "processing_time"),
		},
		ClientName:      strField(seg, "client_name"),
		UserID:          strField(seg, "d_id"),
		ProcessingClass: strField(seg, "processing_class"),
		ResponseType:    strField(seg, "response_type"),
		MessageLength:   strField(seg, "message_length"),
		ErrorCode:       strField(seg, "error_code"),
	}
}

func buildPatient(seg MappedSegment) PatientInfo {
	return PatientInfo{
		ID:          strField(seg, "id"),
		KanjiName:   strField(seg, "kanji_name"),
		KanaName:    strField(seg, "kana_name"),
		Sex:         strField(seg, "sex"),
		Birthdate:   strField(seg, "birthdate"),
		PostalCode1: strField(seg, "postal_code_1"),
		PostalCode2: strField(seg, "postal_code_2"),
		Address:     strField(seg, "address"),
		PhoneNumber: strField(seg, "phone_number"),
		Extra:       seg.Extra,
	}
}

func buildInpatient(seg MappedSegment) InpatientInfo {
	return InpatientInfo{
		Status:   strField(seg, "status"),
		DeptCode: strField(seg, "dept_code"),
		WardCode: strField(seg, "ward_code"),
		RoomCode: strField(seg, "room_code"),
		BedCode:  strField(seg, "bed_code"),
		Extra:    seg.Extra,
	}
}

func buildOrder(seg MappedSegment) OrderInfo {
	return OrderInfo{
		DocType:     strField(seg, "doc_type"),
		DocID:       strField(seg, "doc_id"),
		Version:     seg.Fields["version"],
		ParentDocID: strField(seg, "parent_doc_id"),
		Number:      seg.Fields["number"],
		RelatedOrderInfo: RelatedOrderInfo{
			Date:   strField(seg, "related_order_date"),
			Number: strField(seg, "related_order_number"),
		},
		JisshiDatetime: DateTime{
			Date: strField(seg, "jisshi_date"),
			Time: strField(seg, "jisshi_time"),
		},
		SakuseiDatetime: DateTime{
			Date: strField(seg, "sakusei_date"),
			Time: strField(seg, "sakusei_time"),
		},
		HikikaekenNo:    strField(seg, "hikikaeken_no"),
		InpatientStatus: strField(seg, "inpatient_status"),
		HakkouDeptCode:  strField(seg, "hakkou_dept_code"),
		HakkouWardCode:  strField(seg, "hakkou_ward_code"),
		DenpyoCode:      strField(seg, "denpyo_code"),
		DenpyoName:      strField(seg, "denpyo_name"),
		Extra:           seg.Extra,
	}
}

func applyDoctor(order *OrderInfo, seg MappedSegment) {
	order.DoctorInfo = DoctorInfo{
		ID:        strField(seg, "d_id"),
		KanjiName: strField(seg, "kanji_name"),
		KanaName:  strField(seg, "kana_name"),
	}
	order.DaikohInfo = DaikohInfo{
		ID:        strField(seg, "daikoh_d_id"),
		KanjiName: strField(seg, "daikoh_kanji_name"),
	}
	order.MayakuShiyosha1 = MayakuShiyosha{
		ID:        strField(seg, "mayaku_1_id"),
		StartDate: strField(seg, "mayaku_1_start_date"),
		EndDate:   strField(seg, "mayaku_1_end_date"),
	}
	order.MayakuShiyosha2 = MayakuShiyosha{
		ID:        strField(seg, "mayaku_2_id"),
		StartDate: strField(seg, "mayaku_2_start_date"),
		EndDate:   strField(seg, "mayaku_2_end_date"),
	}
}

func buildProfile(seg MappedSegment) PatientProfile {
	return PatientProfile{
		Height: Measurement{
			Value: floatField(seg, "height_value"),
			Date:  strField(seg, "height_date"),
		},
		Weight: Measurement{
			Value: floatField(seg, "weight_value"),
			Date:  strField(seg, "weight_date"),
		},
		BSA: BSA{Value: floatField(seg, "bsa_value")},
		ProfileInfo: ProfileInfo{
			ProfileCount: intField(seg, "profile_count"),
		},
	}
}

func buildProfileEntry(seg MappedSegment) ProfileEntry {
	return ProfileEntry{
		Code:  strField(seg, "code"),
		Name:  strField(seg, "name"),
		Data:  strField(seg, "data"),
		Extra: seg.Extra,
	}
}

func buildRegimen(seg MappedSegment) RegimenInfo {
	return RegimenInfo{
		Code:        strField(seg, "code"),
		Name:        strField(seg, "name"),
		CourseCount: strField(seg, "course_count"),
		DripOrder:   strField(seg, "drip_order"),
		StartDate:   strField(seg, "start_date"),
		BodyInfo: RegimenBodyInfo{
			Height: floatField(seg, "body_height"),
			Weight: floatField(seg, "body_weight"),
			BSA:    floatField(seg, "body_bsa"),
		},
		Extra: seg.Extra,
	}
}

func buildItem(seg MappedSegment) ItemLine {
	return ItemLine{
		Attribute:      seg.Fields["attribute"],
		Code:           strField(seg, "code"),
		LinkedItemCode: strField(seg, "linked_item_code"),
		Name:           strField(seg, "name"),
		Quantity:       floatField(seg, "quantity"),
		UnitFlag:       strField(seg, "unit_flag"),
		UnitCode:       strField(seg, "unit_code"),
		UnitName:       strField(seg, "unit_name"),
		MaxDoseFlag:    strField(seg, "max_dose_flag"),
		ItemRowDate:    strField(seg, "item_row_date"),
		ItemRowTime:    strField(seg, "item_row_time"),
		CodeGroup: CodeGroup{
			BuppinCode:   strField(seg, "buppin_code"),
			JanCode:      strField(seg, "jan_code"),
			IyakuhinCode: strField(seg, "iyakuhin_code"),
			HotCode:      strField(seg, "hot_code"),
			RecedenCode:  strField(seg, "receden_code"),
			Jlac10Code:   strField(seg, "jlac10_code"),
			YjCode:       strField(seg, "yj_code"),
			LogiCode:     strField(seg, "logi_code"),
			OrderKanriNo: strField(seg, "order_kanri_no"),
			IjiKanriNo:   strField(seg, "iji_kanri_no"),
		},
		Extra: seg.Extra,
	}
}

func strField(seg MappedSegment, key string) *string {
	v, ok := seg.Fields[key]
	if !ok {
		return nil
	}
	return &v
}

func floatField(seg MappedSegment, key string) *float64 {
	v, ok := seg.Fields[key]
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func intField(seg MappedSegment, key string) int {
	v, ok := seg.Fields[key]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
