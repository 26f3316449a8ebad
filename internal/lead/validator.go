// Package lead は問い合わせフォームの検証・永続化・送信フローを提供する。
package lead

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/urbana/eventos/internal/model"
	"github.com/urbana/eventos/internal/security"
)

// フォームの項目名。検証エラーのキーとしても使用する。
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldEventType  = "eventType"
	FieldRegion     = "region"
	FieldGuestCount = "guestCount"
	FieldEventDate  = "eventDate"
	FieldMessage    = "message"
)

// DateLayout はイベント日付の入力形式。
const DateLayout = "2006-01-02"

// minPhoneDigits は電話番号に必要な最小桁数。
const minPhoneDigits = 8

// 文字数の上限。leadsテーブルの列定義と一致させる。
const (
	maxNameLength       = 200
	maxEmailLength      = 320
	maxPhoneLength      = 50
	maxMessageLength    = 5000
	maxServiceTagLength = 100
	maxSourcePageLength = 500
	maxGuestCount       = math.MaxInt32
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[+\d\s()-]+$`)
)

// Fields はフォームから送信される生の入力値。
// ServiceTagとSourcePageは流入元の文脈情報で、検証対象外。上限を超えた分は切り詰める。
type Fields struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	EventType  string `json:"eventType"`
	Region     string `json:"region"`
	GuestCount string `json:"guestCount"`
	EventDate  string `json:"eventDate"`
	Message    string `json:"message"`
	ServiceTag string `json:"serviceTag"`
	SourcePage string `json:"sourcePage"`
}

// FieldError は項目単位の検証エラー。
type FieldError struct {
	Field   string
	Code    string
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Result は検証結果。OKがfalseの場合、Errorsに失敗した全項目が含まれる。
type Result struct {
	OK     bool
	Errors map[string]*FieldError
}

// Messages は項目名から表示用メッセージへのマップを返す。
func (r Result) Messages() map[string]string {
	if len(r.Errors) == 0 {
		return nil
	}
	msgs := make(map[string]string, len(r.Errors))
	for field, fe := range r.Errors {
		msgs[field] = fe.Message
	}
	return msgs
}

type rule func(v *Validator, f Fields) *FieldError

// fieldOrder は検証順。ValidateとValidateFieldは同じルール表を参照する。
var fieldOrder = []string{
	FieldName, FieldEmail, FieldPhone, FieldEventType,
	FieldRegion, FieldGuestCount, FieldEventDate, FieldMessage,
}

var rules = map[string]rule{
	FieldName:       checkName,
	FieldEmail:      checkEmail,
	FieldPhone:      checkPhone,
	FieldEventType:  checkEventType,
	FieldRegion:     checkRegion,
	FieldGuestCount: checkGuestCount,
	FieldEventDate:  checkEventDate,
	FieldMessage:    checkMessage,
}

// Validator は問い合わせフォームの入力を検証する。
// 副作用を持たず、同じ入力と時刻に対して常に同じ結果を返す。
// 検証は正規化（前後の空白除去とマークアップ除去）後の値に対して行い、
// BuildLeadも同じ正規化後の値からLeadを組み立てる。
type Validator struct {
	loc       *time.Location
	now       func() time.Time
	sanitizer security.TextSanitizer
}

// NewValidator はValidatorを生成する。
// locは「今日」を判定するタイムゾーン、nowがnilの場合はtime.Nowを使用する。
// sanitizerがnilの場合は空白除去のみ行う。
func NewValidator(loc *time.Location, now func() time.Time, sanitizer security.TextSanitizer) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Validator{loc: loc, now: now, sanitizer: sanitizer}
}

// normalize は全項目の前後の空白を除去し、自由記述欄からマークアップを除去する。
func (v *Validator) normalize(f Fields) Fields {
	return Fields{
		Name:       v.plainText(f.Name),
		Email:      strings.TrimSpace(f.Email),
		Phone:      strings.TrimSpace(f.Phone),
		EventType:  strings.TrimSpace(f.EventType),
		Region:     strings.TrimSpace(f.Region),
		GuestCount: strings.TrimSpace(f.GuestCount),
		EventDate:  strings.TrimSpace(f.EventDate),
		Message:    v.plainText(f.Message),
		ServiceTag: truncateRunes(v.plainText(f.ServiceTag), maxServiceTagLength),
		SourcePage: truncateRunes(v.plainText(f.SourcePage), maxSourcePageLength),
	}
}

func (v *Validator) plainText(s string) string {
	if v.sanitizer == nil {
		return strings.TrimSpace(s)
	}
	return v.sanitizer.Sanitize(s)
}

// Validate は全項目を検証し、失敗した項目をまとめて返す。
func (v *Validator) Validate(f Fields) Result {
	f = v.normalize(f)
	errs := make(map[string]*FieldError)
	for _, field := range fieldOrder {
		if fe := rules[field](v, f); fe != nil {
			errs[field] = fe
		}
	}
	if len(errs) > 0 {
		return Result{OK: false, Errors: errs}
	}
	return Result{OK: true}
}

// ValidateField は1項目のみを検証し、エラーメッセージを返す。問題がなければ空文字を返す。
// 入力中の逐次検証に使用する。
func (v *Validator) ValidateField(field string, f Fields) string {
	r, ok := rules[field]
	if !ok {
		return ""
	}
	if fe := r(v, v.normalize(f)); fe != nil {
		return fe.Message
	}
	return ""
}

// today は設定タイムゾーンでの今日の0時を返す。
func (v *Validator) today() time.Time {
	now := v.now().In(v.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, v.loc)
}

func missing(field, label string) *FieldError {
	return &FieldError{
		Field:   field,
		Code:    model.ErrCodeMissingRequiredField,
		Message: label + " es obligatorio.",
	}
}

func tooLong(field, label string, max int) *FieldError {
	return &FieldError{
		Field:   field,
		Code:    model.ErrCodeFieldTooLong,
		Message: label + " admite hasta " + strconv.Itoa(max) + " caracteres.",
	}
}

func checkName(_ *Validator, f Fields) *FieldError {
	if f.Name == "" {
		return missing(FieldName, "El nombre")
	}
	if utf8.RuneCountInString(f.Name) > maxNameLength {
		return tooLong(FieldName, "El nombre", maxNameLength)
	}
	return nil
}

func checkEmail(_ *Validator, f Fields) *FieldError {
	email := f.Email
	if email == "" {
		return missing(FieldEmail, "El email")
	}
	if utf8.RuneCountInString(email) > maxEmailLength {
		return tooLong(FieldEmail, "El email", maxEmailLength)
	}
	if !emailPattern.MatchString(email) {
		return &FieldError{
			Field:   FieldEmail,
			Code:    model.ErrCodeInvalidEmail,
			Message: "Ingresá un email válido.",
		}
	}
	return nil
}

func checkPhone(_ *Validator, f Fields) *FieldError {
	phone := f.Phone
	if phone == "" {
		return missing(FieldPhone, "El teléfono")
	}
	if utf8.RuneCountInString(phone) > maxPhoneLength {
		return tooLong(FieldPhone, "El teléfono", maxPhoneLength)
	}
	if !phonePattern.MatchString(phone) || countDigits(phone) < minPhoneDigits {
		return &FieldError{
			Field:   FieldPhone,
			Code:    model.ErrCodeInvalidPhone,
			Message: "Ingresá un teléfono válido (mínimo 8 dígitos).",
		}
	}
	return nil
}

func checkEventType(_ *Validator, f Fields) *FieldError {
	if f.EventType == "" {
		return missing(FieldEventType, "El tipo de evento")
	}
	if _, ok := model.ParseEventType(f.EventType); !ok {
		return &FieldError{
			Field:   FieldEventType,
			Code:    model.ErrCodeInvalidEventType,
			Message: "Seleccioná un tipo de evento de la lista.",
		}
	}
	return nil
}

func checkRegion(_ *Validator, f Fields) *FieldError {
	if f.Region == "" {
		return nil
	}
	if _, ok := model.ParseRegion(f.Region); !ok {
		return &FieldError{
			Field:   FieldRegion,
			Code:    model.ErrCodeInvalidRegion,
			Message: "Seleccioná un departamento de la lista.",
		}
	}
	return nil
}

func checkGuestCount(_ *Validator, f Fields) *FieldError {
	if f.GuestCount == "" {
		return nil
	}
	if _, ok := parseGuestCount(f.GuestCount); !ok {
		return &FieldError{
			Field:   FieldGuestCount,
			Code:    model.ErrCodeInvalidGuestCount,
			Message: "La cantidad de invitados debe ser un número entero mayor a 0.",
		}
	}
	return nil
}

func checkEventDate(v *Validator, f Fields) *FieldError {
	if f.EventDate == "" {
		return nil
	}
	date, err := time.ParseInLocation(DateLayout, f.EventDate, v.loc)
	if err != nil || !date.After(v.today()) {
		return &FieldError{
			Field:   FieldEventDate,
			Code:    model.ErrCodeInvalidDate,
			Message: "La fecha del evento debe ser posterior a hoy.",
		}
	}
	return nil
}

func checkMessage(_ *Validator, f Fields) *FieldError {
	if utf8.RuneCountInString(f.Message) > maxMessageLength {
		return tooLong(FieldMessage, "El mensaje", maxMessageLength)
	}
	return nil
}

// parseGuestCount は先頭の符号を1つだけ許容し、残りが全て数字の正の整数を受け付ける。
// 上限はguest_count列（INTEGER）の範囲。
func parseGuestCount(raw string) (int, bool) {
	digits := raw
	if strings.HasPrefix(digits, "+") || strings.HasPrefix(digits, "-") {
		digits = digits[1:]
	}
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxGuestCount {
		return 0, false
	}
	return n, true
}

// truncateRunes はsを先頭max文字までに切り詰める。
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// BuildLead は検証済みの入力値をLeadに変換する。
// Validateと同じ正規化を適用するため、検証した値がそのまま保存される。
// 事前にValidateがOKを返していることを前提とし、解釈できない任意項目は未指定として扱う。
func (v *Validator) BuildLead(f Fields) *model.Lead {
	f = v.normalize(f)
	l := &model.Lead{
		Name:       f.Name,
		Email:      f.Email,
		Phone:      f.Phone,
		Message:    f.Message,
		ServiceTag: f.ServiceTag,
		SourcePage: f.SourcePage,
		Status:     model.LeadStatusNew,
	}
	l.EventType, _ = model.ParseEventType(f.EventType)
	l.Region, _ = model.ParseRegion(f.Region)
	if n, ok := parseGuestCount(f.GuestCount); ok {
		l.GuestCount = n
	}
	if f.EventDate != "" {
		if d, err := time.ParseInLocation(DateLayout, f.EventDate, v.loc); err == nil {
			date := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
			l.EventDate = &date
		}
	}
	return l
}
