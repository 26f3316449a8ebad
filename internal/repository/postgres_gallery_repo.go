package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urbana/eventos/internal/model"
)

// PostgresGalleryRepo はPostgreSQLを使用したギャラリー画像リポジトリ。
type PostgresGalleryRepo struct {
	db *sql.DB
}

// NewPostgresGalleryRepo はPostgresGalleryRepoを生成する。
func NewPostgresGalleryRepo(db *sql.DB) *PostgresGalleryRepo {
	return &PostgresGalleryRepo{db: db}
}

const galleryColumns = `id, title, description, image_url, category, display_order, is_active, created_at`

// List はdisplay_order昇順で画像一覧を返す。
func (r *PostgresGalleryRepo) List(ctx context.Context, activeOnly bool) ([]*model.GalleryImage, error) {
	query := `SELECT ` + galleryColumns + ` FROM gallery_images ORDER BY display_order, created_at`
	if activeOnly {
		query = `SELECT ` + galleryColumns + ` FROM gallery_images WHERE is_active = true ORDER BY display_order, created_at`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery images: %w", err)
	}
	defer rows.Close()

	var images []*model.GalleryImage
	for rows.Next() {
		img, err := scanGalleryImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gallery image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gallery images: %w", err)
	}
	return images, nil
}

// FindByID は指定IDの画像を取得する。見つからない場合はnilを返す。
func (r *PostgresGalleryRepo) FindByID(ctx context.Context, id string) (*model.GalleryImage, error) {
	img, err := scanGalleryImage(r.db.QueryRowContext(ctx,
		`SELECT `+galleryColumns+` FROM gallery_images WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find gallery image: %w", err)
	}
	return img, nil
}

// NextDisplayOrder は末尾に追加する際のdisplay_orderを返す。
func (r *PostgresGalleryRepo) NextDisplayOrder(ctx context.Context) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(display_order), -1) + 1 FROM gallery_images`,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to get next display order: %w", err)
	}
	return next, nil
}

// Create は画像を作成する。
func (r *PostgresGalleryRepo) Create(ctx context.Context, image *model.GalleryImage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO gallery_images (id, title, description, image_url, category, display_order, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		image.ID, image.Title, image.Description, image.ImageURL, image.Category,
		image.DisplayOrder, image.IsActive, image.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create gallery image: %w", err)
	}
	return nil
}

// SetActive は公開状態を更新する。
func (r *PostgresGalleryRepo) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE gallery_images SET is_active = $2 WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update gallery image: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// Reorder はidsの並び順でdisplay_orderを0から振り直す。
func (r *PostgresGalleryRepo) Reorder(ctx context.Context, ids []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE gallery_images SET display_order = $2 WHERE id = $1`,
			id, i,
		); err != nil {
			return fmt.Errorf("failed to reorder gallery image %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete は指定IDの画像を削除する。
func (r *PostgresGalleryRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM gallery_images WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete gallery image: %w", err)
	}
	return nil
}

func scanGalleryImage(s rowScanner) (*model.GalleryImage, error) {
	img := &model.GalleryImage{}
	err := s.Scan(
		&img.ID, &img.Title, &img.Description, &img.ImageURL, &img.Category,
		&img.DisplayOrder, &img.IsActive, &img.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// compile-time interface check
var _ GalleryRepository = (*PostgresGalleryRepo)(nil)
