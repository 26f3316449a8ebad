package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/urbana/eventos/internal/lead"
	"github.com/urbana/eventos/internal/middleware"
	"github.com/urbana/eventos/internal/model"
)

// LeadServiceInterface は問い合わせハンドラーが必要とするサービスインターフェース。
type LeadServiceInterface interface {
	// NewSubmission はIdle状態の送信を生成する。HTTPリクエストごとに1つ使用する。
	NewSubmission() *lead.Submission
	// Validator は送信時と同一の規則を持つ検証器を返す。
	Validator() *lead.Validator
}

// LeadHandler は公開フォームからの問い合わせ受付のHTTPハンドラー。
type LeadHandler struct {
	service LeadServiceInterface
}

// NewLeadHandler はLeadHandlerを生成する。
func NewLeadHandler(service LeadServiceInterface) *LeadHandler {
	return &LeadHandler{service: service}
}

// submitLeadResponse は送信成功時のレスポンス。
type submitLeadResponse struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	State       string    `json:"state"`
	WhatsAppURL string    `json:"whatsapp_url,omitempty"`
}

// validateLeadRequest は項目検証リクエストのボディ。
// Fieldが指定された場合はその項目のみを検証する。
type validateLeadRequest struct {
	lead.Fields
	Field string `json:"field"`
}

// validateLeadResponse は項目検証のレスポンス。
type validateLeadResponse struct {
	OK     bool              `json:"ok"`
	Errors map[string]string `json:"errors"`
}

// Submit は問い合わせを受け付ける。
// POST /api/leads
//
// 成功時は201、検証エラー時は422、送信失敗時は503を返す。
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var fields lead.Fields
	if !decodeJSON(w, r, &fields) {
		return
	}

	sub := h.service.NewSubmission()
	outcome, err := sub.Submit(r.Context(), fields)
	if err != nil {
		slog.Error("lead submission rejected", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewSubmissionFailedError())
		return
	}

	switch outcome.State {
	case lead.StateIdle:
		messages := make(map[string]string, len(outcome.Errors))
		for field, fe := range outcome.Errors {
			messages[field] = fe.Message
		}
		middleware.WriteValidationErrorResponse(w, http.StatusUnprocessableEntity, model.NewValidationFailedError(), messages)
	case lead.StateSuccess:
		writeJSON(w, http.StatusCreated, submitLeadResponse{
			ID:          outcome.LeadID,
			CreatedAt:   outcome.CreatedAt,
			State:       outcome.State.String(),
			WhatsAppURL: outcome.WhatsAppURL,
		})
	default:
		middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewSubmissionFailedError())
	}
}

// Validate はフォームの入力途中の検証を行う。
// POST /api/leads/validate
//
// 送信時と同じ規則を使うため、ここで通った入力は送信時にも通る。
func (h *LeadHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateLeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v := h.service.Validator()
	resp := validateLeadResponse{OK: true, Errors: map[string]string{}}

	if req.Field != "" {
		if msg := v.ValidateField(req.Field, req.Fields); msg != "" {
			resp.OK = false
			resp.Errors[req.Field] = msg
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	result := v.Validate(req.Fields)
	resp.OK = result.OK
	if !result.OK {
		resp.Errors = result.Messages()
	}
	writeJSON(w, http.StatusOK, resp)
}
