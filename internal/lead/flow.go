package lead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/urbana/eventos/internal/config"
	"github.com/urbana/eventos/internal/model"
)

// State は送信フローの状態。
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateSuccess
	StateFailed
)

// String は状態名を返す。
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 送信フローのエラー
var (
	// ErrSubmissionInProgress は送信処理中に再度送信しようとした場合のエラー。
	ErrSubmissionInProgress = errors.New("lead: submission in progress")
	// ErrAlreadySubmitted は送信完了後にResetせず再送信しようとした場合のエラー。
	ErrAlreadySubmitted = errors.New("lead: already submitted")
)

// LeadSubmitter は問い合わせを永続化するインターフェース。
type LeadSubmitter interface {
	Submit(ctx context.Context, lead *model.Lead) (Receipt, error)
}

// Notifier は問い合わせ受付の通知を送るインターフェース。エラーは返さない。
type Notifier interface {
	Notify(ctx context.Context, lead *model.Lead)
}

// OutcomeRecorder は送信結果のメトリクスを記録するインターフェース。
type OutcomeRecorder interface {
	RecordSubmission(outcome string)
	RecordSubmitLatency(d time.Duration)
}

// 送信結果のメトリクスラベル
const (
	OutcomeSuccess            = "success"
	OutcomeSuccessUnpersisted = "success_unpersisted"
	OutcomeFailed             = "failed"
	OutcomeInvalid            = "invalid"
)

// FlowConfig は送信フローの設定。
type FlowConfig struct {
	PersistFailurePolicy config.PersistFailurePolicy
	WhatsAppNumber       string
}

// Service は送信フローの共有依存を保持し、フォーム単位のSubmissionを生成する。
type Service struct {
	validator *Validator
	submitter LeadSubmitter
	notifier  Notifier
	metrics   OutcomeRecorder
	cfg       FlowConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceを生成する。metricsがnilの場合は記録しない。
func NewService(validator *Validator, submitter LeadSubmitter, notifier Notifier, metrics OutcomeRecorder, cfg FlowConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PersistFailurePolicy == "" {
		cfg.PersistFailurePolicy = config.PersistFailureLenient
	}
	return &Service{
		validator: validator,
		submitter: submitter,
		notifier:  notifier,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Validator は入力検証に使用するValidatorを返す。
func (s *Service) Validator() *Validator {
	return s.validator
}

// NewSubmission はIdle状態の新しいSubmissionを生成する。
func (s *Service) NewSubmission() *Submission {
	return &Submission{svc: s, state: StateIdle}
}

// Outcome は1回の送信試行の結果。
type Outcome struct {
	State State
	// Errors はStateがIdleに戻った場合の項目別検証エラー。
	Errors map[string]*FieldError
	// LeadID は採番されたID。検証失敗時は空。
	LeadID    string
	CreatedAt time.Time
	// Persisted は保存に成功したかどうか。lenientポリシーではfalseでもSuccessになる。
	Persisted bool
	// WhatsAppURL はSuccess時に案内するWhatsAppリンク。番号未設定の場合は空。
	WhatsAppURL string
}

// Submission は1つのフォームインスタンスの送信状態を管理する。
// Idle → Validating → Submitting → (Success | Failed) の順に遷移する。
type Submission struct {
	svc *Service

	mu      sync.Mutex
	state   State
	fields  Fields
	outcome Outcome
}

// State は現在の状態を返す。
func (sub *Submission) State() State {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.state
}

// Fields は最後に送信された入力値を返す。
func (sub *Submission) Fields() Fields {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.fields
}

// Outcome は最後の送信結果を返す。
func (sub *Submission) Outcome() Outcome {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.outcome
}

// Reset は入力値と結果を破棄してIdleに戻す。送信処理中は何もしない。
func (sub *Submission) Reset() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.state == StateValidating || sub.state == StateSubmitting {
		return
	}
	sub.state = StateIdle
	sub.fields = Fields{}
	sub.outcome = Outcome{}
}

// Submit は入力を検証し、保存と通知を行う。
// 検証に失敗した場合はIdleに戻り、項目別エラーを返す。
// 通知は保存の成否にかかわらず保存処理の完了後に1回だけ行う。
// 保存失敗時の最終状態はポリシーに従い、lenientではSuccess、strictではFailedとなる。
// 予期しないエラーやpanicはFailedとして扱う。
// Failedからは再送信できるが、Successからの再送信にはResetが必要。
func (sub *Submission) Submit(ctx context.Context, fields Fields) (Outcome, error) {
	sub.mu.Lock()
	switch sub.state {
	case StateValidating, StateSubmitting:
		sub.mu.Unlock()
		return Outcome{}, ErrSubmissionInProgress
	case StateSuccess:
		sub.mu.Unlock()
		return Outcome{}, ErrAlreadySubmitted
	}
	sub.state = StateValidating
	sub.fields = fields
	sub.mu.Unlock()

	svc := sub.svc
	start := svc.now()

	result := svc.validator.Validate(fields)
	if !result.OK {
		svc.recordOutcome(OutcomeInvalid, 0)
		return sub.finish(Outcome{State: StateIdle, Errors: result.Errors}), nil
	}

	sub.setState(StateSubmitting)
	lead := svc.validator.BuildLead(fields)

	receipt, submitErr := svc.safeSubmit(ctx, lead)
	svc.safeNotify(ctx, lead)

	outcome := Outcome{
		State:     StateSuccess,
		LeadID:    lead.ID,
		CreatedAt: lead.CreatedAt,
		Persisted: submitErr == nil,
	}
	if submitErr == nil {
		outcome.CreatedAt = receipt.CreatedAt
	}

	label := OutcomeSuccess
	switch {
	case submitErr == nil:
	case errors.Is(submitErr, ErrPersistFailed) && svc.cfg.PersistFailurePolicy == config.PersistFailureLenient:
		label = OutcomeSuccessUnpersisted
		svc.logger.Error("lead not persisted, reporting success under lenient policy",
			slog.String("lead_id", lead.ID),
			slog.String("error", submitErr.Error()),
		)
	default:
		label = OutcomeFailed
		outcome.State = StateFailed
		svc.logger.Error("lead submission failed",
			slog.String("lead_id", lead.ID),
			slog.String("policy", string(svc.cfg.PersistFailurePolicy)),
			slog.String("error", submitErr.Error()),
		)
	}

	if outcome.State == StateSuccess {
		outcome.WhatsAppURL = WhatsAppLink(svc.cfg.WhatsAppNumber, lead)
	}
	svc.recordOutcome(label, svc.now().Sub(start))
	return sub.finish(outcome), nil
}

func (sub *Submission) setState(s State) {
	sub.mu.Lock()
	sub.state = s
	sub.mu.Unlock()
}

func (sub *Submission) finish(o Outcome) Outcome {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.state = o.State
	sub.outcome = o
	return o
}

// safeSubmit はSubmitter内のpanicをエラーに変換する。
func (s *Service) safeSubmit(ctx context.Context, lead *model.Lead) (receipt Receipt, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("lead submitter panicked", slog.Any("panic", r))
			err = fmt.Errorf("lead: submitter panicked: %v", r)
		}
	}()
	return s.submitter.Submit(ctx, lead)
}

func (s *Service) safeNotify(ctx context.Context, lead *model.Lead) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("lead notifier panicked",
				slog.String("lead_id", lead.ID),
				slog.Any("panic", r),
			)
		}
	}()
	s.notifier.Notify(ctx, lead)
}

func (s *Service) recordOutcome(outcome string, latency time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSubmission(outcome)
	if outcome != OutcomeInvalid {
		s.metrics.RecordSubmitLatency(latency)
	}
}
