package auth

import (
	"context"
	"fmt"

	"github.com/urbana/eventos/internal/model"
	"github.com/urbana/eventos/internal/repository"
)

// RoleChecker は認証済みidentityが管理者ロールを持つかを確認するインターフェース。
type RoleChecker interface {
	HasAdminRole(ctx context.Context, identity *model.Identity) (bool, error)
}

// RoleStoreChecker はuser_rolesテーブルのロール割り当てを参照する。
type RoleStoreChecker struct {
	repo repository.RoleRepository
}

// NewRoleStoreChecker はRoleStoreCheckerを生成する。
func NewRoleStoreChecker(repo repository.RoleRepository) *RoleStoreChecker {
	return &RoleStoreChecker{repo: repo}
}

// HasAdminRole はidentityにadminロールが割り当てられている場合にtrueを返す。
func (c *RoleStoreChecker) HasAdminRole(ctx context.Context, identity *model.Identity) (bool, error) {
	if identity == nil || identity.ID == "" {
		return false, nil
	}
	roles, err := c.repo.ListRoles(ctx, identity.ID)
	if err != nil {
		return false, fmt.Errorf("failed to list roles: %w", err)
	}
	for _, r := range roles {
		if r == model.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

// StaticRoleChecker は静的認証で設定された管理者ユーザーのみをadminとみなす。
type StaticRoleChecker struct {
	adminID string
}

// NewStaticRoleChecker はStaticRoleCheckerを生成する。
func NewStaticRoleChecker(adminID string) *StaticRoleChecker {
	return &StaticRoleChecker{adminID: adminID}
}

// HasAdminRole はidentityが静的認証の管理者ユーザーである場合にtrueを返す。
func (c *StaticRoleChecker) HasAdminRole(ctx context.Context, identity *model.Identity) (bool, error) {
	if identity == nil {
		return false, nil
	}
	return identity.Provider == ProviderStatic && identity.ID != "" && identity.ID == c.adminID, nil
}

// compile-time interface check
var (
	_ RoleChecker = (*RoleStoreChecker)(nil)
	_ RoleChecker = (*StaticRoleChecker)(nil)
)
