package model

import "testing"

func TestWhatsAppURL(t *testing.T) {
	tests := []struct {
		name   string
		number string
		text   string
		want   string
	}{
		{"記号と空白を除去", "+598 (99) 123-456", "Hola mundo", "https://wa.me/59899123456?text=Hola+mundo"},
		{"本文をエスケープ", "59899000111", "¿Fecha? 24/12 & más", "https://wa.me/59899000111?text=%C2%BFFecha%3F+24%2F12+%26+m%C3%A1s"},
		{"番号なし", "", "Hola", ""},
		{"数字を含まない番号", "sin número", "Hola", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WhatsAppURL(tt.number, tt.text); got != tt.want {
				t.Errorf("WhatsAppURL(%q, %q) = %q, want %q", tt.number, tt.text, got, tt.want)
			}
		})
	}
}
