package admin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/urbana/eventos/internal/model"
	"github.com/urbana/eventos/internal/repository"
	"github.com/urbana/eventos/internal/security"
	"github.com/urbana/eventos/internal/storage"
)

// UploadInput はギャラリー画像アップロードの入力。
type UploadInput struct {
	Title       string
	Description string
	Category    string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// GalleryService はギャラリー画像の管理を提供する。
type GalleryService struct {
	repo          repository.GalleryRepository
	store         storage.ObjectStore
	sanitizer     security.TextSanitizer
	maxUploadSize int64
	newID         func() string
	now           func() time.Time
}

// NewGalleryService はGalleryServiceを生成する。
func NewGalleryService(repo repository.GalleryRepository, store storage.ObjectStore, sanitizer security.TextSanitizer, maxUploadSize int64) *GalleryService {
	return &GalleryService{
		repo:          repo,
		store:         store,
		sanitizer:     sanitizer,
		maxUploadSize: maxUploadSize,
		newID:         uuid.NewString,
		now:           time.Now,
	}
}

// List はdisplay_order順で画像を返す。activeOnlyがtrueの場合は公開中のみ。
func (s *GalleryService) List(ctx context.Context, activeOnly bool) ([]*model.GalleryImage, error) {
	images, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("ギャラリー画像の取得に失敗しました: %w", err)
	}
	return images, nil
}

// ListCategory は指定カテゴリの公開中の画像を表示順で返す。
// カテゴリの比較は前後の空白と大文字小文字を無視する。
func (s *GalleryService) ListCategory(ctx context.Context, category string) ([]*model.GalleryImage, error) {
	images, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	filtered := make([]*model.GalleryImage, 0, len(images))
	for _, img := range images {
		if strings.EqualFold(img.Category, category) {
			filtered = append(filtered, img)
		}
	}
	return filtered, nil
}

// Upload は画像をストレージに保存し、末尾に公開状態で追加する。
// レコード作成に失敗した場合は保存済みのオブジェクトを削除する。
func (s *GalleryService) Upload(ctx context.Context, in UploadInput) (*model.GalleryImage, error) {
	title := s.sanitizer.Sanitize(in.Title)
	if title == "" {
		return nil, model.NewInvalidImageError("falta el título")
	}
	if in.Body == nil {
		return nil, model.NewInvalidImageError("falta el archivo")
	}
	if !strings.HasPrefix(in.ContentType, "image/") {
		return nil, model.NewInvalidImageError("el archivo no es una imagen")
	}
	if s.maxUploadSize > 0 && in.Size > s.maxUploadSize {
		return nil, model.NewInvalidImageError(fmt.Sprintf("el archivo supera el máximo de %d MB", s.maxUploadSize/(1<<20)))
	}

	id := s.newID()
	key := storage.GalleryKey(id, in.Filename)
	url, err := s.store.Put(ctx, key, in.Body, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("画像の保存に失敗しました: %w", err)
	}

	order, err := s.repo.NextDisplayOrder(ctx)
	if err != nil {
		s.discardObject(ctx, key)
		return nil, fmt.Errorf("表示順の取得に失敗しました: %w", err)
	}

	image := &model.GalleryImage{
		ID:           id,
		Title:        title,
		Description:  s.sanitizer.Sanitize(in.Description),
		ImageURL:     url,
		Category:     s.sanitizer.Sanitize(in.Category),
		DisplayOrder: order,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, image); err != nil {
		s.discardObject(ctx, key)
		return nil, fmt.Errorf("画像レコードの作成に失敗しました: %w", err)
	}

	slog.Info("gallery image uploaded",
		slog.String("image_id", id),
		slog.String("key", key),
		slog.Int("display_order", order),
	)
	return image, nil
}

// SetActive は画像の公開状態を切り替える。
func (s *GalleryService) SetActive(ctx context.Context, id string, active bool) error {
	found, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return fmt.Errorf("公開状態の更新に失敗しました: %w", err)
	}
	if !found {
		return model.NewImageNotFoundError(id)
	}
	return nil
}

// Delete はストレージのオブジェクトとレコードを削除する。
// オブジェクトの削除に失敗した場合はレコードを残し、再実行できるようにする。
func (s *GalleryService) Delete(ctx context.Context, id string) error {
	image, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("画像の取得に失敗しました: %w", err)
	}
	if image == nil {
		return model.NewImageNotFoundError(id)
	}

	if key, ok := s.store.KeyFromURL(image.ImageURL); ok {
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("画像ファイルの削除に失敗しました: %w", err)
		}
	} else {
		slog.Warn("gallery image url is not managed by the object store",
			slog.String("image_id", id),
			slog.String("image_url", image.ImageURL),
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("画像レコードの削除に失敗しました: %w", err)
	}
	slog.Info("gallery image deleted", slog.String("image_id", id))
	return nil
}

// Reorder はidsの並び順で表示順を0から振り直す。
// idsは全ての既存画像をちょうど1回ずつ含む必要がある。
// 一部だけを並べ替えると、含まれない画像と表示順が重複するため受け付けない。
func (s *GalleryService) Reorder(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return model.NewInvalidRequestError("la lista de imágenes está vacía")
	}

	images, err := s.repo.List(ctx, false)
	if err != nil {
		return fmt.Errorf("ギャラリー画像の取得に失敗しました: %w", err)
	}
	existing := make(map[string]bool, len(images))
	for _, img := range images {
		existing[img.ID] = true
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return model.NewInvalidRequestError(fmt.Sprintf("imagen duplicada: %s", id))
		}
		seen[id] = true
		if !existing[id] {
			return model.NewImageNotFoundError(id)
		}
	}
	if len(ids) != len(images) {
		return model.NewInvalidRequestError(fmt.Sprintf("el orden debe incluir las %d imágenes", len(images)))
	}

	if err := s.repo.Reorder(ctx, ids); err != nil {
		return fmt.Errorf("表示順の更新に失敗しました: %w", err)
	}
	return nil
}

// discardObject はアップロード途中で失敗した場合にオブジェクトを削除する。
func (s *GalleryService) discardObject(ctx context.Context, key string) {
	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		slog.Error("failed to discard uploaded object",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
