package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/denshin/denshin/internal/platform/telegram"
)

// Telegram is one ingested injection order telegram: the flattened summary
// columns used for listing and search, plus the full nested parse result.
// The summary fields are derived from the record at ingest time and are
// never edited independently of it.
type Telegram struct {
	ID          uuid.UUID        `json:"id"`
	PatientID   *string          `json:"patient_id"`
	PatientName *string          `json:"patient_name"`
	OrderNumber string           `json:"order_number"`
	Version     string           `json:"order_version"`
	OrderDate   *time.Time       `json:"order_date"`
	RawData     *telegram.Record `json:"raw_data,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ListView is the lightweight row shape for list and search responses; the
// nested record is deliberately omitted.
type ListView struct {
	ID          uuid.UUID  `json:"id"`
	PatientID   *string    `json:"patient_id"`
	PatientName *string    `json:"patient_name"`
	OrderNumber string     `json:"order_number"`
	Version     string     `json:"order_version"`
	OrderDate   *time.Time `json:"order_date"`
	CreatedAt   time.Time  `json:"created_at"`
}

// View projects the list row from a full telegram.
func (t *Telegram) View() ListView {
	return ListView{
		ID:          t.ID,
		PatientID:   t.PatientID,
		PatientName: t.PatientName,
		OrderNumber: t.OrderNumber,
		Version:     t.Version,
		OrderDate:   t.OrderDate,
		CreatedAt:   t.CreatedAt,
	}
}
