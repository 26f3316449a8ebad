package model

import "time"

// Role は管理者権限の有無を表す。
type Role string

const (
	RoleAdmin Role = "admin"
	RoleNone  Role = "none"
)

// Identity は認証済みアカウントへの参照を表す。
// 外部IdPのセッショントークンを保持する場合がある（ログアウト時に失効させる）。
type Identity struct {
	ID           string // アカウントID（IdPのsub、または静的認証のユーザー名）
	Email        string
	Provider     string // "static" または "identity_provider"
	AccessToken  string // IdPとのトランスポートセッション。静的認証では空
	RefreshToken string
}

// AdminSession は管理者として認可されたクライアントのセッションを表す。
// 認証・ロール確認の両方を通過した場合にのみ作成される。
type AdminSession struct {
	ID          string
	IdentityID  string
	Email       string
	Provider    string
	Role        Role
	AccessToken string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Established はセッションが完全に認可された状態かどうかを返す。
// ロールがadminかつ有効期限内である場合のみtrueとなる。
func (s *AdminSession) Established(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.Role == RoleAdmin && s.IdentityID != "" && now.Before(s.ExpiresAt)
}
