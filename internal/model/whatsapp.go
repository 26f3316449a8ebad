package model

import (
	"net/url"
	"strings"
)

// WhatsAppURL はwa.meのメッセージ付きリンクを生成する。
// 番号の数字以外は除去し、数字が残らない場合は空文字を返す。
func WhatsAppURL(number, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return ""
	}
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(text)
}
