// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// Message・Actionはサイトの利用者向けのためスペイン語で記述する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, lead, admin, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidEmail         = "INVALID_EMAIL"
	ErrCodeInvalidPhone         = "INVALID_PHONE"
	ErrCodeInvalidGuestCount    = "INVALID_GUEST_COUNT"
	ErrCodeInvalidDate          = "INVALID_DATE"
	ErrCodeInvalidEventType     = "INVALID_EVENT_TYPE"
	ErrCodeInvalidRegion        = "INVALID_REGION"
	ErrCodeFieldTooLong         = "FIELD_TOO_LONG"
	ErrCodeSubmissionFailed     = "SUBMISSION_FAILED"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeNotAuthorized        = "NOT_AUTHORIZED"
	ErrCodeLeadNotFound         = "LEAD_NOT_FOUND"
	ErrCodeInvalidLeadStatus    = "INVALID_LEAD_STATUS"
	ErrCodeImageNotFound        = "IMAGE_NOT_FOUND"
	ErrCodeInvalidImage         = "INVALID_IMAGE"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeRequestTooLarge      = "REQUEST_TOO_LARGE"
	ErrCodeCSRFValidationFailed = "CSRF_VALIDATION_FAILED"
)

// NewValidationFailedError はフォーム検証失敗のサマリーエラーを生成する。
// 項目ごとの詳細はレスポンスのfieldsに含める。
func NewValidationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "Hay campos con errores en el formulario.",
		Category: "validation",
		Action:   "Revisá los campos marcados y volvé a enviar.",
	}
}

// NewSubmissionFailedError は送信処理の予期しない失敗エラーを生成する。
// 再試行可能であることを利用者に伝える。
func NewSubmissionFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeSubmissionFailed,
		Message:  "Hubo un problema al enviar tu consulta.",
		Category: "system",
		Action:   "Intentá nuevamente en unos minutos.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー名とパスワードのどちらが誤っているかは区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Usuario o contraseña incorrectos.",
		Category: "auth",
		Action:   "Verificá tus datos e intentá nuevamente.",
	}
}

// NewNotAuthorizedError は管理者権限を持たないアカウントのエラーを生成する。
func NewNotAuthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthorized,
		Message:  "No tenés permisos para acceder al panel de administración.",
		Category: "auth",
		Action:   "Ingresá con una cuenta de administrador.",
	}
}

// NewLeadNotFoundError は問い合わせ未検出エラーを生成する。
func NewLeadNotFoundError(leadID string) *APIError {
	return &APIError{
		Code:     ErrCodeLeadNotFound,
		Message:  fmt.Sprintf("No se encontró la consulta: %s", leadID),
		Category: "admin",
		Action:   "Actualizá la lista de consultas.",
	}
}

// NewInvalidLeadStatusError は無効なステータス指定エラーを生成する。
func NewInvalidLeadStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLeadStatus,
		Message:  fmt.Sprintf("Estado inválido: %s", status),
		Category: "validation",
		Action:   "Usá uno de: new, contacted, closed, discarded.",
	}
}

// NewImageNotFoundError はギャラリー画像未検出エラーを生成する。
func NewImageNotFoundError(imageID string) *APIError {
	return &APIError{
		Code:     ErrCodeImageNotFound,
		Message:  fmt.Sprintf("No se encontró la imagen: %s", imageID),
		Category: "admin",
		Action:   "Actualizá la galería.",
	}
}

// NewInvalidImageError は画像アップロード内容が不正な場合のエラーを生成する。
func NewInvalidImageError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImage,
		Message:  fmt.Sprintf("Imagen inválida: %s", reason),
		Category: "validation",
		Action:   "Ingresá un título y seleccioná un archivo de imagen.",
	}
}

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Solicitud inválida: %s", reason),
		Category: "validation",
		Action:   "Revisá los datos enviados.",
	}
}

// NewRequestTooLargeError はリクエストボディが上限を超えた場合のエラーを生成する。
func NewRequestTooLargeError() *APIError {
	return &APIError{
		Code:     ErrCodeRequestTooLarge,
		Message:  "La solicitud es demasiado grande.",
		Category: "validation",
		Action:   "Reducí el contenido enviado e intentá nuevamente.",
	}
}

// NewCSRFValidationFailedError はCSRFトークン検証失敗のエラーを生成する。
func NewCSRFValidationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFValidationFailed,
		Message:  "No se pudo verificar la solicitud.",
		Category: "auth",
		Action:   "Recargá la página e intentá nuevamente.",
	}
}
