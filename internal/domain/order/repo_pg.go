package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denshin/denshin/internal/platform/db"
	"github.com/denshin/denshin/internal/platform/telegram"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type telegramRepoPG struct{ pool *pgxpool.Pool }

func NewTelegramRepoPG(pool *pgxpool.Pool) TelegramRepository {
	return &telegramRepoPG{pool: pool}
}

func (r *telegramRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const telegramCols = `id, patient_id, patient_name, order_number, order_version,
	order_date, raw_data, created_at, updated_at`

func (r *telegramRepoPG) scanTelegram(row pgx.Row) (*Telegram, error) {
	var (
		t   Telegram
		raw []byte
	)
	err := row.Scan(&t.ID, &t.PatientID, &t.PatientName, &t.OrderNumber, &t.Version,
		&t.OrderDate, &raw, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		var rec telegram.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode raw_data for telegram %s: %w", t.ID, err)
		}
		t.RawData = &rec
	}
	return &t, nil
}

func (r *telegramRepoPG) Create(ctx context.Context, t *Telegram) error {
	t.ID = uuid.New()
	raw, err := json.Marshal(t.RawData)
	if err != nil {
		return fmt.Errorf("encode raw_data: %w", err)
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO telegrams (id, patient_id, patient_name, order_number, order_version,
			order_date, raw_data)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		t.ID, t.PatientID, t.PatientName, t.OrderNumber, t.Version,
		t.OrderDate, raw).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *telegramRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Telegram, error) {
	return r.scanTelegram(r.conn(ctx).QueryRow(ctx,
		`SELECT `+telegramCols+` FROM telegrams WHERE id = $1`, id))
}

func (r *telegramRepoPG) List(ctx context.Context, limit, offset int) ([]*Telegram, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM telegrams`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+telegramCols+` FROM telegrams ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *telegramRepoPG) FindByOrderKey(ctx context.Context, orderNumber, version string, limit, offset int) ([]*Telegram, int, error) {
	where := `WHERE order_number = $1`
	args := []interface{}{orderNumber}
	if version != "" {
		where += ` AND order_version = $2`
		args = append(args, version)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM telegrams `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM telegrams %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		telegramCols, where, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *telegramRepoPG) collect(rows pgx.Rows, total int) ([]*Telegram, int, error) {
	var items []*Telegram
	for rows.Next() {
		t, err := r.scanTelegram(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}
