package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/urbana/eventos/internal/admin"
	"github.com/urbana/eventos/internal/middleware"
	"github.com/urbana/eventos/internal/model"
)

// imageFormField はアップロード画像のmultipartフィールド名。
const imageFormField = "image"

// GalleryServiceInterface はギャラリーハンドラーが必要とするサービスインターフェース。
type GalleryServiceInterface interface {
	List(ctx context.Context, activeOnly bool) ([]*model.GalleryImage, error)
	ListCategory(ctx context.Context, category string) ([]*model.GalleryImage, error)
	Upload(ctx context.Context, in admin.UploadInput) (*model.GalleryImage, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, ids []string) error
}

// GalleryHandler はギャラリー画像のHTTPハンドラー。
type GalleryHandler struct {
	service       GalleryServiceInterface
	maxUploadSize int64
}

// NewGalleryHandler はGalleryHandlerを生成する。
// maxUploadSizeはmultipartボディ全体の上限（バイト）。
func NewGalleryHandler(service GalleryServiceInterface, maxUploadSize int64) *GalleryHandler {
	return &GalleryHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
	}
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// ListPublic は公開中の画像を表示順で返す。
// GET /api/gallery?category=...
//
// categoryを指定した場合はそのカテゴリの画像のみを返す。
// サービス紹介ページは先頭の1件を代表画像として使う。
func (h *GalleryHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		h.list(w, r, true)
		return
	}
	images, err := h.service.ListCategory(r.Context(), category)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeGalleryImages(w, images)
}

// ListAll は非公開を含む全画像を返す。
// GET /api/admin/gallery
func (h *GalleryHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *GalleryHandler) list(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	images, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeGalleryImages(w, images)
}

func writeGalleryImages(w http.ResponseWriter, images []*model.GalleryImage) {
	resp := make([]galleryImageResponse, 0, len(images))
	for _, img := range images {
		resp = append(resp, toGalleryImageResponse(img))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Upload はmultipartで送信された画像を追加する。
// POST /api/admin/gallery
func (h *GalleryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// ヘッダー等の余白として1MBを加える
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.WriteErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewInvalidImageError("el archivo es demasiado grande"))
			return
		}
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("formulario multipart inválido"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(imageFormField)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidImageError("falta el archivo"))
		return
	}
	defer file.Close()

	img, err := h.service.Upload(r.Context(), admin.UploadInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGalleryImageResponse(img))
}

// SetActive は公開状態を切り替える。
// PATCH /api/admin/gallery/{id}
func (h *GalleryHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r)
	if !ok {
		handleServiceError(w, model.NewImageNotFoundError(id))
		return
	}
	var req setActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("falta is_active"))
		return
	}

	if err := h.service.SetActive(r.Context(), id, *req.IsActive); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete は画像を削除する。
// DELETE /api/admin/gallery/{id}
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r)
	if !ok {
		handleServiceError(w, model.NewImageNotFoundError(id))
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reorder は表示順を更新する。
// PUT /api/admin/gallery/order
func (h *GalleryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.Reorder(r.Context(), req.IDs); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
