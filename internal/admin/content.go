// Package admin は管理画面のサイト文言・ギャラリー・問い合わせ管理のドメインロジックを提供する。
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/urbana/eventos/internal/model"
	"github.com/urbana/eventos/internal/repository"
	"github.com/urbana/eventos/internal/security"
)

// contentKeyPattern は文言キーの形式（例: hero_title）。
var contentKeyPattern = regexp.MustCompile(`^[a-z0-9_]{1,100}$`)

// ContentService はサイト文言の参照・更新を提供する。
type ContentService struct {
	repo      repository.ContentRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewContentService はContentServiceを生成する。
func NewContentService(repo repository.ContentRepository, sanitizer security.TextSanitizer) *ContentService {
	return &ContentService{
		repo:      repo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// List は全ての文言を返す。
func (s *ContentService) List(ctx context.Context) ([]*model.SiteContent, error) {
	contents, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("サイト文言の取得に失敗しました: %w", err)
	}
	return contents, nil
}

// Update は複数の文言をまとめて更新し、更新後の一覧を返す。
// 値のマークアップは除去される。キーが不正な場合は何も更新しない。
func (s *ContentService) Update(ctx context.Context, entries map[string]string) ([]*model.SiteContent, error) {
	if len(entries) == 0 {
		return nil, model.NewInvalidRequestError("no hay textos para guardar")
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		if !contentKeyPattern.MatchString(key) {
			return nil, model.NewInvalidRequestError(fmt.Sprintf("clave de texto inválida: %q", key))
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := s.now()
	contents := make([]*model.SiteContent, 0, len(keys))
	for _, key := range keys {
		contents = append(contents, &model.SiteContent{
			ID:        key,
			Content:   s.sanitizer.Sanitize(entries[key]),
			UpdatedAt: now,
		})
	}

	if err := s.repo.Upsert(ctx, contents); err != nil {
		return nil, fmt.Errorf("サイト文言の更新に失敗しました: %w", err)
	}

	slog.Info("site content updated", slog.Int("count", len(contents)))
	return s.List(ctx)
}
