package telegram

import (
	"testing"
	"time"
)

func TestSummaryProjection(t *testing.T) {
	rec := parseSample(t, newSample())

	s := rec.Summary()

	if s.PatientID == nil || *s.PatientID != "0012345678" {
		t.Errorf("patient_id: expected 0012345678, got %v", s.PatientID)
	}
	if s.PatientName == nil || *s.PatientName != "山田太郎" {
		t.Errorf("patient_name: expected 山田太郎, got %v", s.PatientName)
	}
	if s.OrderNumber != "12345678" {
		t.Errorf("order_number: expected 12345678, got %q", s.OrderNumber)
	}
	if s.Version != "01" {
		t.Errorf("version: expected 01, got %q", s.Version)
	}
	want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if s.OrderDate == nil || !s.OrderDate.Equal(want) {
		t.Errorf("order_date: expected %v, got %v", want, s.OrderDate)
	}
}

func TestSummaryAbsentFieldsStayNil(t *testing.T) {
	rec := parseSample(t, newSample().
		set(SegPatient, "id", "").
		set(SegPatient, "kanji_name", "").
		set(SegOrder, "sakusei_date", ""))

	s := rec.Summary()

	if s.PatientID != nil {
		t.Errorf("expected nil patient_id, got %q", *s.PatientID)
	}
	if s.PatientName != nil {
		t.Errorf("expected nil patient_name, got %q", *s.PatientName)
	}
	if s.OrderDate != nil {
		t.Errorf("expected nil order_date, got %v", s.OrderDate)
	}
}

func TestSummaryUnparsableDateStaysNil(t *testing.T) {
	rec := parseSample(t, newSample().set(SegOrder, "sakusei_date", "99999999"))

	if s := rec.Summary(); s.OrderDate != nil {
		t.Errorf("expected nil order_date for unparsable value, got %v", s.OrderDate)
	}
}

func TestPrescriptionsProjection(t *testing.T) {
	admin := defaultItem("手技料")
	admin["attribute"] = "Z99"

	rec := parseSample(t, newSample().
		addItem(defaultItem("薬剤A")).
		addItem(admin).
		addItem(defaultItem("薬剤B")))

	rx := rec.Content.ItemGroup.Prescriptions()
	if len(rx) != 2 {
		t.Fatalf("expected 2 prescription lines, got %d", len(rx))
	}
	for i, want := range []string{"薬剤A", "薬剤B"} {
		if rx[i].Name == nil || *rx[i].Name != want {
			t.Errorf("prescription %d: expected %s, got %v", i, want, rx[i].Name)
		}
	}

	// Administrative lines stay in the record itself.
	if len(rec.Content.ItemGroup.ItemInfo) != 3 {
		t.Errorf("expected all 3 lines retained in the record, got %d", len(rec.Content.ItemGroup.ItemInfo))
	}
}

func TestIsPrescription(t *testing.T) {
	if !ItemAttribute("ID1").IsPrescription() {
		t.Error("ID1 must classify as a prescription attribute")
	}
	if ItemAttribute("Z99").IsPrescription() {
		t.Error("Z99 must not classify as a prescription attribute")
	}
	if ItemAttribute("").IsPrescription() {
		t.Error("blank attribute must not classify as a prescription attribute")
	}
}
