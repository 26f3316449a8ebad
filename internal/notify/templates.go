package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	texttemplate "text/template"
)

// emailData はテンプレートに渡す問い合わせ内容。
type emailData struct {
	Name            string
	Email           string
	Phone           string
	EventType       string
	Region          string
	GuestCount      string
	EventDate       string
	Message         string
	ServiceTag      string
	SourcePage      string
	ReceivedAt      string
	ContactPhone    string
	BusinessWALink  string
	CustomerWALink  string
	ReplyMailtoLink string
}

const confirmationHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #141414;">
  <div style="max-width: 600px; margin: 0 auto; padding: 40px 20px;">
    <div style="background-color: #1a1a1a; border-radius: 12px; border: 1px solid #333;">
      <div style="background: #c9a553; padding: 30px; text-align: center;">
        <h1 style="margin: 0; color: #141414; font-size: 28px;">URBANA EVENTOS</h1>
      </div>
      <div style="padding: 40px 30px;">
        <h2 style="color: #c9a553; margin-top: 0;">¡Hola {{.Name}}!</h2>
        <p style="color: #e0e0e0; font-size: 16px;">Recibimos tu consulta y estamos muy emocionados de ayudarte a organizar tu evento.</p>
        <div style="background-color: #242424; border-radius: 8px; padding: 20px; margin: 25px 0; border-left: 4px solid #c9a553;">
          <h3 style="color: #c9a553; margin-top: 0;">Resumen de tu consulta:</h3>
          <p style="color: #b0b0b0;"><strong>Servicio:</strong> {{.ServiceTag}}</p>
          <p style="color: #b0b0b0;"><strong>Tipo de evento:</strong> {{.EventType}}</p>
          {{- if .Region}}<p style="color: #b0b0b0;"><strong>Departamento:</strong> {{.Region}}</p>{{end}}
          {{- if .GuestCount}}<p style="color: #b0b0b0;"><strong>Cantidad de invitados:</strong> {{.GuestCount}}</p>{{end}}
          {{- if .EventDate}}<p style="color: #b0b0b0;"><strong>Fecha tentativa:</strong> {{.EventDate}}</p>{{end}}
          {{- if .Message}}<p style="color: #b0b0b0;"><strong>Mensaje:</strong> {{.Message}}</p>{{end}}
        </div>
        <p style="color: #e0e0e0; font-size: 16px;">Nuestro equipo se pondrá en contacto contigo a la brevedad para brindarte las mejores opciones de salones para tu evento.</p>
        {{- if .BusinessWALink}}
        <div style="text-align: center; margin-top: 30px;">
          <a href="{{.BusinessWALink}}" style="display: inline-block; background: #c9a553; color: #141414; text-decoration: none; padding: 14px 32px; border-radius: 8px; font-weight: 600;">Contactar por WhatsApp</a>
        </div>{{end}}
      </div>
      <div style="background-color: #141414; padding: 25px; text-align: center; border-top: 1px solid #333;">
        <p style="color: #888; font-size: 14px; margin: 0;">Urbana Eventos - Gestión de salones y eventos</p>
        <p style="color: #666; font-size: 12px; margin: 10px 0 0;">Montevideo, Uruguay | {{.ContactPhone}}</p>
      </div>
    </div>
  </div>
</body>
</html>`

const confirmationText = `¡Hola {{.Name}}!

Recibimos tu consulta y estamos muy emocionados de ayudarte a organizar tu evento.

Servicio: {{.ServiceTag}}
Tipo de evento: {{.EventType}}
{{- if .Region}}
Departamento: {{.Region}}{{end}}
{{- if .GuestCount}}
Cantidad de invitados: {{.GuestCount}}{{end}}
{{- if .EventDate}}
Fecha tentativa: {{.EventDate}}{{end}}
{{- if .Message}}
Mensaje: {{.Message}}{{end}}

Nuestro equipo se pondrá en contacto contigo a la brevedad.
{{- if .BusinessWALink}}
WhatsApp: {{.BusinessWALink}}{{end}}

Urbana Eventos | {{.ContactPhone}}
`

const operatorHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5;">
  <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 8px; padding: 30px;">
    <div style="background: #c9a553; color: #141414; padding: 15px; border-radius: 8px; margin-bottom: 20px;">
      <h1 style="margin: 0; font-size: 20px;">Nueva consulta - {{.ServiceTag}}</h1>
    </div>
    <table style="width: 100%; border-collapse: collapse;">
      <tr><td style="padding: 12px; font-weight: bold; width: 150px;">Servicio:</td><td style="padding: 12px; color: #c9a553; font-weight: bold;">{{.ServiceTag}}</td></tr>
      <tr><td style="padding: 12px; font-weight: bold;">Página origen:</td><td style="padding: 12px;">{{.SourcePage}}</td></tr>
      <tr><td style="padding: 12px; font-weight: bold;">Nombre:</td><td style="padding: 12px;">{{.Name}}</td></tr>
      <tr><td style="padding: 12px; font-weight: bold;">Teléfono:</td><td style="padding: 12px;">{{.Phone}}</td></tr>
      <tr><td style="padding: 12px; font-weight: bold;">Email:</td><td style="padding: 12px;">{{.Email}}</td></tr>
      <tr><td style="padding: 12px; font-weight: bold;">Tipo de evento:</td><td style="padding: 12px;">{{.EventType}}</td></tr>
      {{- if .Region}}<tr><td style="padding: 12px; font-weight: bold;">Departamento:</td><td style="padding: 12px;">{{.Region}}</td></tr>{{end}}
      {{- if .GuestCount}}<tr><td style="padding: 12px; font-weight: bold;">Invitados:</td><td style="padding: 12px;">{{.GuestCount}}</td></tr>{{end}}
      {{- if .EventDate}}<tr><td style="padding: 12px; font-weight: bold;">Fecha:</td><td style="padding: 12px;">{{.EventDate}}</td></tr>{{end}}
      {{- if .Message}}<tr><td style="padding: 12px; font-weight: bold;">Mensaje:</td><td style="padding: 12px;">{{.Message}}</td></tr>{{end}}
      <tr><td style="padding: 12px; font-weight: bold;">Fecha/hora:</td><td style="padding: 12px;">{{.ReceivedAt}}</td></tr>
    </table>
    {{- if .CustomerWALink}}
    <div style="margin-top: 25px; text-align: center;">
      <a href="{{.CustomerWALink}}" style="display: inline-block; background-color: #25D366; color: white; text-decoration: none; padding: 14px 28px; border-radius: 8px; font-weight: bold;">Responder por WhatsApp</a>
    </div>{{end}}
    <div style="margin-top: 15px; text-align: center;">
      <a href="{{.ReplyMailtoLink}}" style="display: inline-block; background-color: #c9a553; color: #141414; text-decoration: none; padding: 12px 24px; border-radius: 8px; font-weight: bold;">Responder por Email</a>
    </div>
  </div>
</body>
</html>`

const operatorText = `Nueva consulta - {{.ServiceTag}}

Servicio: {{.ServiceTag}}
Página origen: {{.SourcePage}}
Nombre: {{.Name}}
Teléfono: {{.Phone}}
Email: {{.Email}}
Tipo de evento: {{.EventType}}
{{- if .Region}}
Departamento: {{.Region}}{{end}}
{{- if .GuestCount}}
Invitados: {{.GuestCount}}{{end}}
{{- if .EventDate}}
Fecha: {{.EventDate}}{{end}}
{{- if .Message}}
Mensaje: {{.Message}}{{end}}
Fecha/hora: {{.ReceivedAt}}
{{- if .CustomerWALink}}

Responder por WhatsApp: {{.CustomerWALink}}{{end}}
`

var (
	confirmationHTMLTmpl = htmltemplate.Must(htmltemplate.New("confirmation.html").Option("missingkey=error").Parse(confirmationHTML))
	confirmationTextTmpl = texttemplate.Must(texttemplate.New("confirmation.txt").Option("missingkey=error").Parse(confirmationText))
	operatorHTMLTmpl     = htmltemplate.Must(htmltemplate.New("operator.html").Option("missingkey=error").Parse(operatorHTML))
	operatorTextTmpl     = texttemplate.Must(texttemplate.New("operator.txt").Option("missingkey=error").Parse(operatorText))
)

func render(html *htmltemplate.Template, text *texttemplate.Template, data emailData) (string, string, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := html.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("notify: render %s: %w", html.Name(), err)
	}
	if err := text.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("notify: render %s: %w", text.Name(), err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

// mailtoURL は返信用のmailtoリンクを生成する。
func mailtoURL(to, subject string) string {
	return "mailto:" + to + "?subject=" + url.PathEscape(subject)
}
