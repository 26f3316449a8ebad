// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/urbana/eventos/internal/model"
)

// LeadRepository は問い合わせデータの永続化インターフェース。
type LeadRepository interface {
	// Create は問い合わせを1件挿入する。
	// ID・CreatedAtは呼び出し側で設定済みであること。
	// 制約違反の場合はErrConstraintViolationをラップしたエラーを返す。
	Create(ctx context.Context, lead *model.Lead) error

	// FindByID は指定IDの問い合わせを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Lead, error)

	// List はcreated_at降順で問い合わせ一覧を返す。
	// statusが空文字の場合は全ステータスを対象とする。
	List(ctx context.Context, status model.LeadStatus, limit int) ([]*model.Lead, error)

	// UpdateStatus は対応状況を更新する。対象が存在しない場合はfalseを返す。
	UpdateStatus(ctx context.Context, id string, status model.LeadStatus) (bool, error)

	// Delete は指定IDの問い合わせを削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// SessionRepository は管理者セッションの永続化インターフェース。
// 実装はPostgreSQL（既定）とRedisの2種類。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.AdminSession) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.AdminSession, error)
	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error
}

// RoleRepository は認可ロール割り当ての参照インターフェース。
type RoleRepository interface {
	// ListRoles はidentityに割り当てられたロールの一覧を返す。
	ListRoles(ctx context.Context, identityID string) ([]model.Role, error)
}

// ContentRepository はサイト文言の永続化インターフェース。
type ContentRepository interface {
	// List は全ての文言をID順で返す。
	List(ctx context.Context) ([]*model.SiteContent, error)
	// Upsert は複数の文言を同一トランザクションで作成または更新する。
	Upsert(ctx context.Context, contents []*model.SiteContent) error
}

// GalleryRepository はギャラリー画像の永続化インターフェース。
type GalleryRepository interface {
	// List はdisplay_order昇順で画像一覧を返す。activeOnlyがtrueの場合は公開中のみ。
	List(ctx context.Context, activeOnly bool) ([]*model.GalleryImage, error)
	// FindByID は指定IDの画像を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.GalleryImage, error)
	// NextDisplayOrder は末尾に追加する際のdisplay_orderを返す。
	NextDisplayOrder(ctx context.Context) (int, error)
	// Create は画像を作成する。
	Create(ctx context.Context, image *model.GalleryImage) error
	// SetActive は公開状態を更新する。対象が存在しない場合はfalseを返す。
	SetActive(ctx context.Context, id string, active bool) (bool, error)
	// Reorder はidsの並び順でdisplay_orderを0から振り直す。
	// idsには全ての画像が含まれていること。
	Reorder(ctx context.Context, ids []string) error
	// Delete は指定IDの画像を削除する。
	Delete(ctx context.Context, id string) error
}
