package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urbana/eventos/internal/model"
)

// PostgresRoleRepo はuser_rolesテーブルを参照するロールリポジトリ。
type PostgresRoleRepo struct {
	db *sql.DB
}

// NewPostgresRoleRepo はPostgresRoleRepoを生成する。
func NewPostgresRoleRepo(db *sql.DB) *PostgresRoleRepo {
	return &PostgresRoleRepo{db: db}
}

// ListRoles はidentityに割り当てられたロールの一覧を返す。
func (r *PostgresRoleRepo) ListRoles(ctx context.Context, identityID string) ([]model.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE identity_id = $1`,
		identityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, model.Role(role))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}
	return roles, nil
}

// compile-time interface check
var _ RoleRepository = (*PostgresRoleRepo)(nil)
