package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/urbana/eventos/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ValidationErrorBody はフォーム検証失敗時のレスポンス。
// Fieldsには項目名ごとのメッセージを格納する。
type ValidationErrorBody struct {
	ErrorResponseBody
	Fields map[string]string `json:"fields"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(toBody(apiErr))
}

// WriteValidationErrorResponse は項目別の検証エラーを含むレスポンスを書き込む。
func WriteValidationErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError, fields map[string]string) {
	if fields == nil {
		fields = map[string]string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ValidationErrorBody{
		ErrorResponseBody: toBody(apiErr),
		Fields:            fields,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "Ocurrió un error interno.",
		Category: "system",
		Action:   "Intentá nuevamente en unos minutos.",
	})
}

func toBody(apiErr *model.APIError) ErrorResponseBody {
	return ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	}
}
