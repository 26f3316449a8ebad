package handler

import (
	"context"
	"net/http"

	"github.com/urbana/eventos/internal/model"
)

// ContentServiceInterface はサイト文言ハンドラーが必要とするサービスインターフェース。
type ContentServiceInterface interface {
	List(ctx context.Context) ([]*model.SiteContent, error)
	Update(ctx context.Context, entries map[string]string) ([]*model.SiteContent, error)
}

// ContentHandler はサイト文言のHTTPハンドラー。
type ContentHandler struct {
	service ContentServiceInterface
}

// NewContentHandler はContentHandlerを生成する。
func NewContentHandler(service ContentServiceInterface) *ContentHandler {
	return &ContentHandler{service: service}
}

// List は全ての文言を返す。
// GET /api/content, GET /api/admin/content
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	contents, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContentResponses(contents))
}

// Update はキーと値のマップで文言をまとめて更新する。
// PUT /api/admin/content
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var entries map[string]string
	if !decodeJSON(w, r, &entries) {
		return
	}

	contents, err := h.service.Update(r.Context(), entries)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContentResponses(contents))
}
