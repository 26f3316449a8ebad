package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urbana/eventos/internal/model"
)

// PostgresContentRepo はPostgreSQLを使用したサイト文言リポジトリ。
type PostgresContentRepo struct {
	db *sql.DB
}

// NewPostgresContentRepo はPostgresContentRepoを生成する。
func NewPostgresContentRepo(db *sql.DB) *PostgresContentRepo {
	return &PostgresContentRepo{db: db}
}

// List は全ての文言をID順で返す。
func (r *PostgresContentRepo) List(ctx context.Context) ([]*model.SiteContent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, content, updated_at FROM site_content ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list site content: %w", err)
	}
	defer rows.Close()

	var contents []*model.SiteContent
	for rows.Next() {
		c := &model.SiteContent{}
		if err := rows.Scan(&c.ID, &c.Content, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan site content: %w", err)
		}
		contents = append(contents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate site content: %w", err)
	}
	return contents, nil
}

// Upsert は複数の文言を同一トランザクションで作成または更新する。
func (r *PostgresContentRepo) Upsert(ctx context.Context, contents []*model.SiteContent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range contents {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO site_content (id, content, updated_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`,
			c.ID, c.Content, c.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert site content %q: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ContentRepository = (*PostgresContentRepo)(nil)
