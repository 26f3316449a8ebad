package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/urbana/eventos/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type mockSender struct {
	mu     sync.Mutex
	sent   []EmailMessage
	sendFn func(ctx context.Context, msg EmailMessage) error
}

func (m *mockSender) Send(ctx context.Context, msg EmailMessage) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	if m.sendFn != nil {
		return m.sendFn(ctx, msg)
	}
	return nil
}

type mockFailureRecorder struct {
	kinds []string
}

func (m *mockFailureRecorder) RecordNotifyFailure(kind string) {
	m.kinds = append(m.kinds, kind)
}

func sampleLead() *model.Lead {
	date := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	return &model.Lead{
		ID:         "lead-1",
		Name:       "Ana Pérez",
		Email:      "ana@test.com",
		Phone:      "+598 99 123 456",
		EventType:  model.EventTypeWedding,
		Region:     "Maldonado",
		GuestCount: 120,
		EventDate:  &date,
		Message:    "Queremos <b>salón</b> con jardín",
		ServiceTag: "Casamientos",
		SourcePage: "/casamientos",
	}
}

func newTestDispatcher(sender EmailSender, rec FailureRecorder) *Dispatcher {
	d := NewDispatcher(sender, DispatcherConfig{
		OperatorEmail:       "ops@urbanaeventos.uy",
		WhatsAppNumber:      "+598 99 000 111",
		ContactPhoneDisplay: "+598 99 000 111",
		Timeout:             time.Second,
	}, rec, testLogger())
	d.now = func() time.Time { return time.Date(2026, 3, 1, 15, 4, 0, 0, time.UTC) }
	return d
}

func TestDispatcher_Notify_SendsConfirmationThenOperator(t *testing.T) {
	sender := &mockSender{}
	d := newTestDispatcher(sender, nil)

	d.Notify(context.Background(), sampleLead())

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d emails, want 2", len(sender.sent))
	}

	confirmation := sender.sent[0]
	if confirmation.To != "ana@test.com" {
		t.Errorf("confirmation To = %q", confirmation.To)
	}
	if confirmation.Subject != "¡Recibimos tu consulta! - Casamientos - Urbana Eventos" {
		t.Errorf("confirmation Subject = %q", confirmation.Subject)
	}
	if !strings.Contains(confirmation.HTML, "Ana Pérez") || !strings.Contains(confirmation.HTML, "https://wa.me/59899000111") {
		t.Errorf("confirmation HTML missing name or business WhatsApp link")
	}
	if strings.Contains(confirmation.HTML, "<b>salón</b>") {
		t.Error("message must be escaped in HTML body")
	}
	if !strings.Contains(confirmation.Body, "Cantidad de invitados: 120") {
		t.Errorf("confirmation text missing guest count:\n%s", confirmation.Body)
	}

	operator := sender.sent[1]
	if operator.To != "ops@urbanaeventos.uy" {
		t.Errorf("operator To = %q", operator.To)
	}
	if operator.Subject != "[Urbana Eventos] Lead - Casamientos" {
		t.Errorf("operator Subject = %q", operator.Subject)
	}
	if !strings.Contains(operator.HTML, "/casamientos") {
		t.Error("operator HTML missing source page")
	}
	if !strings.Contains(operator.HTML, "https://wa.me/59899123456") {
		t.Error("operator HTML missing customer WhatsApp link")
	}
	if !strings.Contains(operator.Body, "Fecha/hora: 01/03/2026 15:04") {
		t.Errorf("operator text missing received time:\n%s", operator.Body)
	}
}

func TestDispatcher_Notify_DefaultTags(t *testing.T) {
	sender := &mockSender{}
	d := newTestDispatcher(sender, nil)

	lead := &model.Lead{ID: "lead-2", Name: "Bruno", Email: "b@test.com", Phone: "12345678"}
	d.Notify(context.Background(), lead)

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d emails, want 2", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].Subject, "General") {
		t.Errorf("subject should fall back to General: %q", sender.sent[0].Subject)
	}
	if !strings.Contains(sender.sent[1].Body, "Página origen: No especificada") {
		t.Errorf("operator text should fall back to default source page:\n%s", sender.sent[1].Body)
	}
	if strings.Contains(sender.sent[0].Body, "Departamento:") {
		t.Error("empty optional fields should be omitted")
	}
}

func TestDispatcher_Notify_ServiceTagFallsBackToEventType(t *testing.T) {
	sender := &mockSender{}
	d := newTestDispatcher(sender, nil)

	lead := sampleLead()
	lead.ServiceTag = ""
	d.Notify(context.Background(), lead)

	if !strings.Contains(sender.sent[0].Subject, "Casamiento") {
		t.Errorf("subject = %q, want event type", sender.sent[0].Subject)
	}
}

func TestDispatcher_Notify_FailuresAreSwallowedAndCounted(t *testing.T) {
	sender := &mockSender{sendFn: func(ctx context.Context, msg EmailMessage) error {
		return errors.New("smtp unavailable")
	}}
	rec := &mockFailureRecorder{}
	d := newTestDispatcher(sender, rec)

	d.Notify(context.Background(), sampleLead())

	if len(sender.sent) != 2 {
		t.Errorf("operator notification must be attempted after confirmation failure, sent %d", len(sender.sent))
	}
	if len(rec.kinds) != 2 || rec.kinds[0] != "confirmation" || rec.kinds[1] != "operator" {
		t.Errorf("recorded kinds = %v", rec.kinds)
	}
}

func TestDispatcher_Notify_RecoversPanic(t *testing.T) {
	sender := &mockSender{sendFn: func(ctx context.Context, msg EmailMessage) error {
		panic("boom")
	}}
	rec := &mockFailureRecorder{}
	d := newTestDispatcher(sender, rec)

	d.Notify(context.Background(), sampleLead())

	if len(rec.kinds) != 1 || rec.kinds[0] != "panic" {
		t.Errorf("recorded kinds = %v, want [panic]", rec.kinds)
	}
}

func TestDispatcher_Notify_IgnoresCallerCancellation(t *testing.T) {
	var ctxErrs []error
	sender := &mockSender{sendFn: func(ctx context.Context, msg EmailMessage) error {
		ctxErrs = append(ctxErrs, ctx.Err())
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a deadline on the send context")
		}
		return nil
	}}
	d := newTestDispatcher(sender, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Notify(ctx, sampleLead())

	for i, err := range ctxErrs {
		if err != nil {
			t.Errorf("send %d saw canceled context: %v", i, err)
		}
	}
}

func TestDispatcher_Notify_NoOperatorEmail_SkipsOperator(t *testing.T) {
	sender := &mockSender{}
	d := NewDispatcher(sender, DispatcherConfig{}, nil, testLogger())

	d.Notify(context.Background(), sampleLead())

	if len(sender.sent) != 1 {
		t.Errorf("sent %d emails, want only the confirmation", len(sender.sent))
	}
}

func TestDispatcher_Notify_NilLead(t *testing.T) {
	sender := &mockSender{}
	d := newTestDispatcher(sender, nil)
	d.Notify(context.Background(), nil)
	if len(sender.sent) != 0 {
		t.Error("nil lead must not send anything")
	}
}

func TestDispatcher_Notify_NoWhatsAppNumber_OmitsLink(t *testing.T) {
	sender := &mockSender{}
	d := NewDispatcher(sender, DispatcherConfig{
		OperatorEmail: "ops@urbanaeventos.uy",
		Timeout:       time.Second,
	}, nil, testLogger())

	d.Notify(context.Background(), sampleLead())

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d emails, want 2", len(sender.sent))
	}
	confirmation := sender.sent[0]
	for _, body := range []string{confirmation.HTML, confirmation.Body} {
		if strings.Contains(body, "wa.me") || strings.Contains(body, "WhatsApp") {
			t.Errorf("confirmation should not offer a WhatsApp link without a number:\n%s", body)
		}
	}
	if !strings.Contains(sender.sent[1].HTML, "https://wa.me/59899123456") {
		t.Error("operator HTML should still link to the customer phone")
	}
}
