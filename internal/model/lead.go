package model

import (
	"strings"
	"time"
)

// EventType は問い合わせ対象のイベント種別を表す。
// 値はサイト上に表示されるスペイン語ラベルをそのまま使用する。
type EventType string

const (
	EventTypeWedding              EventType = "Casamiento"
	EventTypeCorporateParty       EventType = "Fiesta empresarial"
	EventTypeYearEndParty         EventType = "Despedida de año"
	EventTypeProductLaunch        EventType = "Presentación de producto"
	EventTypeTraining             EventType = "Capacitación"
	EventTypePrivateBirthday      EventType = "Cumpleaños privado"
	EventTypeCorporateAnniversary EventType = "Aniversario empresarial"
	EventTypeOther                EventType = "Otro"
)

// EventTypes はフォームで選択可能なイベント種別の一覧（表示順）。
var EventTypes = []EventType{
	EventTypeWedding,
	EventTypeCorporateParty,
	EventTypeYearEndParty,
	EventTypeProductLaunch,
	EventTypeTraining,
	EventTypePrivateBirthday,
	EventTypeCorporateAnniversary,
	EventTypeOther,
}

// eventTypeAliases は英語表記からの正規化テーブル。
var eventTypeAliases = map[string]EventType{
	"wedding":               EventTypeWedding,
	"corporate party":       EventTypeCorporateParty,
	"year-end party":        EventTypeYearEndParty,
	"product launch":        EventTypeProductLaunch,
	"training":              EventTypeTraining,
	"private birthday":      EventTypePrivateBirthday,
	"corporate anniversary": EventTypeCorporateAnniversary,
	"other":                 EventTypeOther,
}

// ParseEventType は入力文字列をEventTypeに変換する。
// スペイン語ラベルと英語表記の両方を受け付け、大文字小文字は区別しない。
func ParseEventType(s string) (EventType, bool) {
	s = strings.TrimSpace(s)
	for _, et := range EventTypes {
		if strings.EqualFold(string(et), s) {
			return et, true
		}
	}
	if et, ok := eventTypeAliases[strings.ToLower(s)]; ok {
		return et, true
	}
	return "", false
}

// Regions はイベント開催地として選択可能なウルグアイの県（departamento）一覧。
var Regions = []string{
	"Montevideo",
	"Canelones",
	"Maldonado",
	"Colonia",
	"San José",
	"Rocha",
	"Paysandú",
	"Salto",
	"Rivera",
	"Tacuarembó",
	"Cerro Largo",
	"Artigas",
	"Durazno",
	"Flores",
	"Florida",
	"Lavalleja",
	"Río Negro",
	"Soriano",
	"Treinta y Tres",
}

// ParseRegion は入力文字列を正規の県名に変換する。
func ParseRegion(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, r := range Regions {
		if strings.EqualFold(r, s) {
			return r, true
		}
	}
	return "", false
}

// LeadStatus は管理画面での問い合わせ対応状況を表す。
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusClosed    LeadStatus = "closed"
	LeadStatusDiscarded LeadStatus = "discarded"
)

// Valid はステータスが定義済みの値かどうかを返す。
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusClosed, LeadStatusDiscarded:
		return true
	default:
		return false
	}
}

// Lead は見込み客からのイベント問い合わせを表す。
// 検証を通過したものだけが永続化される。
type Lead struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	EventType  EventType
	Region     string     // 任意。空文字は未指定
	GuestCount int        // 任意。0は未指定
	EventDate  *time.Time // 任意
	Message    string     // 任意
	ServiceTag string     // 流入元サービス（例: "Casamientos"）
	SourcePage string     // 流入元ページのパス
	Status     LeadStatus
	CreatedAt  time.Time
}
