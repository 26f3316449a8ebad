package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/urbana/eventos/internal/middleware"
	"github.com/urbana/eventos/internal/model"
)

// LeadAdminServiceInterface は問い合わせ管理ハンドラーが必要とするサービスインターフェース。
type LeadAdminServiceInterface interface {
	List(ctx context.Context, status string, limit int) ([]*model.Lead, error)
	Get(ctx context.Context, id string) (*model.Lead, error)
	UpdateStatus(ctx context.Context, id, status string) (*model.Lead, error)
	Delete(ctx context.Context, id string) error
}

// LeadAdminHandler は管理画面の問い合わせ管理のHTTPハンドラー。
type LeadAdminHandler struct {
	service LeadAdminServiceInterface
}

// NewLeadAdminHandler はLeadAdminHandlerを生成する。
func NewLeadAdminHandler(service LeadAdminServiceInterface) *LeadAdminHandler {
	return &LeadAdminHandler{service: service}
}

type updateLeadStatusRequest struct {
	Status string `json:"status"`
}

// List は問い合わせを新しい順に返す。
// GET /api/admin/leads?status=new&limit=50
func (h *LeadAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("limit debe ser un número"))
			return
		}
		limit = n
	}

	leads, err := h.service.List(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	resp := make([]leadResponse, 0, len(leads))
	for _, l := range leads {
		resp = append(resp, toLeadResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get は問い合わせ詳細を返す。
// GET /api/admin/leads/{id}
func (h *LeadAdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r)
	if !ok {
		handleServiceError(w, model.NewLeadNotFoundError(id))
		return
	}
	l, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeadResponse(l))
}

// UpdateStatus は対応状況を更新する。
// PATCH /api/admin/leads/{id}
func (h *LeadAdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r)
	if !ok {
		handleServiceError(w, model.NewLeadNotFoundError(id))
		return
	}
	var req updateLeadStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeadResponse(l))
}

// Delete は問い合わせを削除する。
// DELETE /api/admin/leads/{id}
func (h *LeadAdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r)
	if !ok {
		handleServiceError(w, model.NewLeadNotFoundError(id))
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
