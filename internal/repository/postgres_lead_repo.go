package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/urbana/eventos/internal/model"
)

// PostgresLeadRepo はPostgreSQLを使用した問い合わせリポジトリ。
type PostgresLeadRepo struct {
	db *sql.DB
}

// NewPostgresLeadRepo はPostgresLeadRepoを生成する。
func NewPostgresLeadRepo(db *sql.DB) *PostgresLeadRepo {
	return &PostgresLeadRepo{db: db}
}

const leadColumns = `id, name, email, phone, event_type, region, guest_count,
		        event_date, message, service_tag, source_page, status, created_at`

// Create は問い合わせを1件挿入する。
func (r *PostgresLeadRepo) Create(ctx context.Context, lead *model.Lead) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO leads (id, name, email, phone, event_type, region, guest_count,
		                    event_date, message, service_tag, source_page, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		lead.ID, lead.Name, lead.Email, lead.Phone, string(lead.EventType),
		nullString(lead.Region), nullPositiveInt(lead.GuestCount), nullDate(lead.EventDate),
		nullString(lead.Message), nullString(lead.ServiceTag), nullString(lead.SourcePage),
		string(lead.Status), lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", classifyPQError(err))
	}
	return nil
}

// FindByID は指定IDの問い合わせを取得する。見つからない場合はnilを返す。
func (r *PostgresLeadRepo) FindByID(ctx context.Context, id string) (*model.Lead, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`,
		id,
	)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lead: %w", err)
	}
	return lead, nil
}

// List はcreated_at降順で問い合わせ一覧を返す。
func (r *PostgresLeadRepo) List(ctx context.Context, status model.LeadStatus, limit int) ([]*model.Lead, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC LIMIT $1`,
			limit,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+leadColumns+` FROM leads WHERE status = $1 ORDER BY created_at DESC LIMIT $2`,
			string(status), limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []*model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
	}
	return leads, nil
}

// UpdateStatus は対応状況を更新する。
func (r *PostgresLeadRepo) UpdateStatus(ctx context.Context, id string, status model.LeadStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE leads SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update lead status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// Delete は指定IDの問い合わせを削除する。
func (r *PostgresLeadRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete lead: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(s rowScanner) (*model.Lead, error) {
	lead := &model.Lead{}
	var eventType, status string
	var region, message, serviceTag, sourcePage sql.NullString
	var guestCount sql.NullInt64
	var eventDate sql.NullTime

	err := s.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &eventType,
		&region, &guestCount, &eventDate, &message, &serviceTag, &sourcePage,
		&status, &lead.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.EventType = model.EventType(eventType)
	lead.Status = model.LeadStatus(status)
	lead.Region = nullStringValue(region)
	lead.Message = nullStringValue(message)
	lead.ServiceTag = nullStringValue(serviceTag)
	lead.SourcePage = nullStringValue(sourcePage)
	if guestCount.Valid {
		lead.GuestCount = int(guestCount.Int64)
	}
	if eventDate.Valid {
		d := eventDate.Time
		lead.EventDate = &d
	}
	return lead, nil
}

// nullString は空文字列をNULLとして扱うsql.NullStringを返す。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullPositiveInt は0以下をNULLとして扱う。
func nullPositiveInt(n int) sql.NullInt64 {
	if n <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}

// nullDate は日付部分のみをDATE列に渡す。
func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return sql.NullTime{Time: d, Valid: true}
}

// compile-time interface check
var _ LeadRepository = (*PostgresLeadRepo)(nil)
