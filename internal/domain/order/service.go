package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/denshin/denshin/internal/platform/telegram"
)

// Feed error codes carried in the reject response to an upstream sender.
const (
	feedCodeTruncated  = "E0001"
	feedCodeUnknown    = "E0002"
	feedCodeMissing    = "E0003"
	feedCodeEncoding   = "E0004"
	feedCodeValidation = "E0005"
	feedCodeInternal   = "E0099"
)

type Service struct {
	telegrams TelegramRepository
	logger    zerolog.Logger
}

func NewService(telegrams TelegramRepository, logger zerolog.Logger) *Service {
	return &Service{telegrams: telegrams, logger: logger}
}

// Ingest parses, validates, and stores one raw telegram. A telegram that
// fails parsing or validation is never persisted, not even partially.
// Re-submission of an existing order number and version stores a new row;
// FindByOrderKey surfaces all of them, newest first.
func (s *Service) Ingest(ctx context.Context, raw []byte) (*Telegram, error) {
	rec, err := telegram.Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := telegram.Validate(rec); err != nil {
		return nil, err
	}

	sum := rec.Summary()
	t := &Telegram{
		PatientID:   sum.PatientID,
		PatientName: sum.PatientName,
		OrderNumber: sum.OrderNumber,
		Version:     sum.Version,
		OrderDate:   sum.OrderDate,
		RawData:     rec,
	}
	if err := s.telegrams.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("store telegram: %w", err)
	}

	s.logger.Info().
		Str("telegram_id", t.ID.String()).
		Str("order_number", t.OrderNumber).
		Str("order_version", t.Version).
		Int("items", len(rec.Content.ItemGroup.ItemInfo)).
		Msg("telegram ingested")

	return t, nil
}

// Get loads one stored telegram and re-checks the agreement between its
// summary columns and the nested record before returning it.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Telegram, error) {
	t, err := s.telegrams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.RawData != nil {
		if err := telegram.ValidateSummary(t.RawData, t.OrderNumber, t.Version); err != nil {
			return nil, fmt.Errorf("stored telegram %s is inconsistent: %w", t.ID, err)
		}
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Telegram, int, error) {
	return s.telegrams.List(ctx, limit, offset)
}

// Search finds stored telegrams by order number, optionally narrowed to one
// version. The parameters must satisfy the same digit rules the telegrams
// themselves do, so malformed input is rejected before touching the store.
func (s *Service) Search(ctx context.Context, orderNumber, version string, limit, offset int) ([]*Telegram, int, error) {
	if orderNumber == "" {
		return nil, 0, fmt.Errorf("order_number is required")
	}
	if len(orderNumber) != 8 || !allDigits(orderNumber) {
		return nil, 0, fmt.Errorf("order_number must be exactly 8 digits")
	}
	if version != "" && (len(version) != 2 || !allDigits(version)) {
		return nil, 0, fmt.Errorf("version must be exactly 2 digits")
	}
	return s.telegrams.FindByOrderKey(ctx, orderNumber, version, limit, offset)
}

// Prescriptions returns the dispensing item lines of one stored telegram.
func (s *Service) Prescriptions(ctx context.Context, id uuid.UUID) ([]telegram.ItemLine, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.RawData == nil {
		return nil, nil
	}
	return t.RawData.Content.ItemGroup.Prescriptions(), nil
}

// FeedHandler adapts Ingest for the TCP feed: every telegram pushed by an
// upstream system is ingested and answered with an accept or reject
// response carrying a classified error code.
func (s *Service) FeedHandler() telegram.FeedHandler {
	return func(raw []byte) []byte {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := s.Ingest(ctx, raw); err != nil {
			code := feedErrorCode(err)
			s.logger.Warn().Err(err).Str("code", code).Msg("feed telegram rejected")
			return telegram.BuildResponse(false, code)
		}
		return telegram.BuildResponse(true, "")
	}
}

func feedErrorCode(err error) string {
	switch telegram.ErrorKind(err) {
	case telegram.KindTruncatedInput:
		return feedCodeTruncated
	case telegram.KindUnknownSegment:
		return feedCodeUnknown
	case telegram.KindMissingSegment:
		return feedCodeMissing
	case telegram.KindEncoding:
		return feedCodeEncoding
	case telegram.KindValidation:
		return feedCodeValidation
	}
	return feedCodeInternal
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
