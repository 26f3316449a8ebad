package lead

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urbana/eventos/internal/model"
)

// WhatsAppLink は事業者のWhatsAppへ問い合わせ内容を送るためのリンクを生成する。
// 番号が未設定の場合は空文字を返す。
func WhatsAppLink(number string, lead *model.Lead) string {
	if lead == nil {
		return ""
	}
	return model.WhatsAppURL(number, whatsAppSummary(lead))
}

func whatsAppSummary(lead *model.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola, soy %s. Quiero organizar un %s", lead.Name, lead.EventType)
	if lead.Region != "" {
		fmt.Fprintf(&b, " en %s", lead.Region)
	}

	guests := "cantidad a definir"
	if lead.GuestCount > 0 {
		guests = strconv.Itoa(lead.GuestCount)
	}
	date := "fecha a definir"
	if lead.EventDate != nil {
		date = lead.EventDate.Format("02/01/2006")
	}
	fmt.Fprintf(&b, " para %s personas, el %s. Mis datos de contacto son %s / %s.", guests, date, lead.Phone, lead.Email)

	if lead.Message != "" {
		fmt.Fprintf(&b, " Mensaje adicional: %s", lead.Message)
	}
	return b.String()
}
