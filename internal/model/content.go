package model

import "time"

// SiteContent は管理画面から編集可能なサイト文言を表す。
// IDは "hero_title" のような表示箇所のキー。
type SiteContent struct {
	ID        string
	Content   string
	UpdatedAt time.Time
}

// GalleryImage はギャラリーに表示する画像を表す。
type GalleryImage struct {
	ID           string
	Title        string
	Description  string
	ImageURL     string
	Category     string
	DisplayOrder int
	IsActive     bool
	CreatedAt    time.Time
}
