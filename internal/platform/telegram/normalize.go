package telegram

import "time"

// Summary is the flattened view of a record used by list displays and as
// the search key columns. It is derived, never stored back into the record.
type Summary struct {
	PatientID   *string    `json:"patient_id"`
	PatientName *string    `json:"patient_name"`
	OrderNumber string     `json:"order_number"`
	Version     string     `json:"version"`
	OrderDate   *time.Time `json:"order_date"`
}

// Summary projects the flattened summary fields from the nested record
// without re-parsing. The order date comes from the order creation
// timestamp; an absent or unparsable date stays nil.
func (r *Record) Summary() Summary {
	s := Summary{
		PatientID:   r.Content.PatientInfo.ID,
		PatientName: r.Content.PatientInfo.KanjiName,
		OrderNumber: r.Content.OrderInfo.Number,
		Version:     r.Content.OrderInfo.Version,
	}
	if d := r.Content.OrderInfo.SakuseiDatetime.Date; d != nil {
		if t, err := time.Parse("20060102", *d); err == nil {
			s.OrderDate = &t
		}
	}
	return s
}

// Prescriptions returns the item lines tagged with a dispensing attribute,
// in arrival order. It is a pure view: administrative lines stay in the
// record, they just do not appear here.
func (g *ItemGroup) Prescriptions() []ItemLine {
	var out []ItemLine
	for _, item := range g.ItemInfo {
		if ItemAttribute(item.Attribute).IsPrescription() {
			out = append(out, item)
		}
	}
	return out
}
