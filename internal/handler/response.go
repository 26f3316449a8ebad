package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/urbana/eventos/internal/middleware"
	"github.com/urbana/eventos/internal/model"
)

// leadResponse は問い合わせのAPIレスポンス。
type leadResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	EventType  string     `json:"event_type"`
	Region     string     `json:"region,omitempty"`
	GuestCount int        `json:"guest_count,omitempty"`
	EventDate  *time.Time `json:"event_date,omitempty"`
	Message    string     `json:"message,omitempty"`
	ServiceTag string     `json:"service_tag,omitempty"`
	SourcePage string     `json:"source_page,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// contentResponse はサイト文言のAPIレスポンス。
type contentResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// galleryImageResponse はギャラリー画像のAPIレスポンス。
type galleryImageResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	Category     string    `json:"category"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toLeadResponse(l *model.Lead) leadResponse {
	return leadResponse{
		ID:         l.ID,
		Name:       l.Name,
		Email:      l.Email,
		Phone:      l.Phone,
		EventType:  string(l.EventType),
		Region:     l.Region,
		GuestCount: l.GuestCount,
		EventDate:  l.EventDate,
		Message:    l.Message,
		ServiceTag: l.ServiceTag,
		SourcePage: l.SourcePage,
		Status:     string(l.Status),
		CreatedAt:  l.CreatedAt,
	}
}

func toContentResponses(contents []*model.SiteContent) []contentResponse {
	out := make([]contentResponse, 0, len(contents))
	for _, c := range contents {
		out = append(out, contentResponse{ID: c.ID, Content: c.Content, UpdatedAt: c.UpdatedAt})
	}
	return out
}

func toGalleryImageResponse(img *model.GalleryImage) galleryImageResponse {
	return galleryImageResponse{
		ID:           img.ID,
		Title:        img.Title,
		Description:  img.Description,
		ImageURL:     img.ImageURL,
		Category:     img.Category,
		DisplayOrder: img.DisplayOrder,
		IsActive:     img.IsActive,
		CreatedAt:    img.CreatedAt,
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// maxJSONBodySize はJSONリクエストボディの上限（バイト）。
const maxJSONBodySize = 64 << 10

// decodeJSON はリクエストボディをデコードする。
// 上限を超えた場合は413、解析できない場合は400を書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.WriteErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewRequestTooLargeError())
			return false
		}
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("el cuerpo no es un JSON válido"))
		return false
	}
	return true
}

// pathUUID はURLパスの{id}をUUIDとして解釈し、正規形で返す。
// 解釈できない場合はfalseを返す。
func pathUUID(r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return raw, false
	}
	return id.String(), true
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidationFailed,
		model.ErrCodeMissingRequiredField,
		model.ErrCodeInvalidEmail,
		model.ErrCodeInvalidPhone,
		model.ErrCodeInvalidGuestCount,
		model.ErrCodeInvalidDate,
		model.ErrCodeInvalidEventType,
		model.ErrCodeInvalidRegion,
		model.ErrCodeFieldTooLong:
		return http.StatusUnprocessableEntity
	case model.ErrCodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case model.ErrCodeSubmissionFailed:
		return http.StatusServiceUnavailable
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeNotAuthorized:
		return http.StatusForbidden
	case model.ErrCodeLeadNotFound, model.ErrCodeImageNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidLeadStatus, model.ErrCodeInvalidImage, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
