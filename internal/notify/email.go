// Package notify は問い合わせ受付後の通知メール送信を提供する。
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender はメール送信のインターフェース。
// 実装（SendGrid, SES, Stub）は設定で切り替える。
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage は送信するメール1通を表す。
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string // プレーンテキスト本文
	HTML    string // HTML本文（任意）
}

// SendGridConfig はSendGrid送信の設定。
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// sendGridClient はsendgrid.Clientのうち使用するメソッドのみを抽出したインターフェース。
type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender はSendGrid API経由でメールを送信する。
type SendGridSender struct {
	client    sendGridClient
	fromEmail string
	fromName  string
	logger    *slog.Logger
}

// NewSendGridSender はSendGridSenderを生成する。APIキー未設定の場合はnilを返す。
func NewSendGridSender(cfg SendGridConfig, logger *slog.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Urbana Eventos"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send はSendGrid経由でメールを送信する。
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, html)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("email sent via sendgrid",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("status", response.StatusCode),
	)
	return nil
}

// StubEmailSender はメールを送信せずログに記録するだけの実装。
// ローカル開発やEMAIL_PROVIDER=stubの場合に使用する。
type StubEmailSender struct {
	logger *slog.Logger
}

// NewStubEmailSender はStubEmailSenderを生成する。
func NewStubEmailSender(logger *slog.Logger) *StubEmailSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send はメール内容をログに記録する。
func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("stub email sender: would send email",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// compile-time interface check
var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
