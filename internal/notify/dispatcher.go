package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/urbana/eventos/internal/model"
)

const (
	defaultServiceTag = "General"
	defaultSourcePage = "No especificada"
)

// FailureRecorder は通知失敗を記録するメトリクスのインターフェース。
type FailureRecorder interface {
	RecordNotifyFailure(kind string)
}

// DispatcherConfig は通知先と表示用の連絡先情報。
type DispatcherConfig struct {
	OperatorEmail       string
	WhatsAppNumber      string
	ContactPhoneDisplay string
	Timeout             time.Duration
	Location            *time.Location
}

// Dispatcher は問い合わせ受付後の確認メールと運営者向け通知を送信する。
// 送信はベストエフォートで、失敗はログとメトリクスに記録して握りつぶす。
type Dispatcher struct {
	sender  EmailSender
	cfg     DispatcherConfig
	metrics FailureRecorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewDispatcher はDispatcherを生成する。metricsがnilの場合は記録しない。
func NewDispatcher(sender EmailSender, cfg DispatcherConfig, metrics FailureRecorder, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Dispatcher{
		sender:  sender,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Notify は顧客への確認メールと運営者への通知を順に送信する。
// 流入元タグはlead.ServiceTagとlead.SourcePageから取得する。
// 呼び出し元のキャンセルには影響されず、エラーは返さない。
func (d *Dispatcher) Notify(ctx context.Context, lead *model.Lead) {
	if lead == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification panicked",
				slog.String("lead_id", lead.ID),
				slog.Any("panic", r),
			)
			d.recordFailure("panic")
		}
	}()

	data := d.buildData(lead)

	if err := d.sendConfirmation(ctx, lead, data); err != nil {
		d.logger.Error("failed to send confirmation email",
			slog.String("lead_id", lead.ID),
			slog.String("error", err.Error()),
		)
		d.recordFailure("confirmation")
	}

	if err := d.sendOperatorNotification(ctx, lead, data); err != nil {
		d.logger.Error("failed to send operator notification",
			slog.String("lead_id", lead.ID),
			slog.String("error", err.Error()),
		)
		d.recordFailure("operator")
	}
}

func (d *Dispatcher) sendConfirmation(ctx context.Context, lead *model.Lead, data emailData) error {
	if lead.Email == "" {
		return fmt.Errorf("notify: lead has no email address")
	}
	html, text, err := render(confirmationHTMLTmpl, confirmationTextTmpl, data)
	if err != nil {
		return err
	}
	return d.sender.Send(ctx, EmailMessage{
		To:      lead.Email,
		ToName:  lead.Name,
		Subject: fmt.Sprintf("¡Recibimos tu consulta! - %s - Urbana Eventos", data.ServiceTag),
		Body:    text,
		HTML:    html,
	})
}

func (d *Dispatcher) sendOperatorNotification(ctx context.Context, lead *model.Lead, data emailData) error {
	if d.cfg.OperatorEmail == "" {
		d.logger.Warn("operator email not configured, skipping notification",
			slog.String("lead_id", lead.ID),
		)
		return nil
	}
	html, text, err := render(operatorHTMLTmpl, operatorTextTmpl, data)
	if err != nil {
		return err
	}
	return d.sender.Send(ctx, EmailMessage{
		To:      d.cfg.OperatorEmail,
		Subject: fmt.Sprintf("[Urbana Eventos] Lead - %s", data.ServiceTag),
		Body:    text,
		HTML:    html,
	})
}

func (d *Dispatcher) buildData(lead *model.Lead) emailData {
	serviceTag := lead.ServiceTag
	if serviceTag == "" {
		serviceTag = string(lead.EventType)
	}
	if serviceTag == "" {
		serviceTag = defaultServiceTag
	}
	sourcePage := lead.SourcePage
	if sourcePage == "" {
		sourcePage = defaultSourcePage
	}

	data := emailData{
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        lead.Phone,
		EventType:    string(lead.EventType),
		Region:       lead.Region,
		Message:      lead.Message,
		ServiceTag:   serviceTag,
		SourcePage:   sourcePage,
		ContactPhone: d.cfg.ContactPhoneDisplay,
		ReceivedAt:   d.now().In(d.cfg.Location).Format("02/01/2006 15:04"),
	}
	if lead.GuestCount > 0 {
		data.GuestCount = strconv.Itoa(lead.GuestCount)
	}
	if lead.EventDate != nil {
		data.EventDate = lead.EventDate.Format("02/01/2006")
	}

	data.BusinessWALink = model.WhatsAppURL(d.cfg.WhatsAppNumber,
		fmt.Sprintf("Hola! Soy %s, acabo de enviar una consulta sobre %s.", lead.Name, serviceTag))
	data.CustomerWALink = model.WhatsAppURL(lead.Phone,
		fmt.Sprintf("Hola %s! Te escribimos de Urbana Eventos por tu consulta sobre %s.", lead.Name, serviceTag))
	data.ReplyMailtoLink = mailtoURL(lead.Email, "Re: Tu consulta sobre "+serviceTag+" - Urbana Eventos")
	return data
}

func (d *Dispatcher) recordFailure(kind string) {
	if d.metrics != nil {
		d.metrics.RecordNotifyFailure(kind)
	}
}
