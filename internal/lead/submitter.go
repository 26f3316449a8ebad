package lead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/urbana/eventos/internal/model"
	"github.com/urbana/eventos/internal/repository"
)

// ErrPersistFailed は再試行しても問い合わせを保存できなかったことを表す。
var ErrPersistFailed = errors.New("lead: persist failed")

// SubmitRecorder は永続化に関するメトリクスを記録するインターフェース。
type SubmitRecorder interface {
	RecordLeadReceived(serviceTag string)
	RecordLeadPersistFailure()
	RecordLeadPersistRetry()
}

// Receipt は保存に成功した問い合わせの識別情報。
type Receipt struct {
	ID        string
	CreatedAt time.Time
}

// SubmitterConfig は永続化の試行設定。
type SubmitterConfig struct {
	Timeout     time.Duration // 1回の試行あたりのタイムアウト
	MaxAttempts int
	BaseDelay   time.Duration // 初回の再試行間隔
}

// Submitter は検証済みの問い合わせを永続化する。
// 自由記述欄の正規化はValidator.BuildLeadで済んでいる前提で、内容は変更しない。
type Submitter struct {
	repo    repository.LeadRepository
	metrics SubmitRecorder
	cfg     SubmitterConfig
	logger  *slog.Logger
	newID   func() string
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewSubmitter はSubmitterを生成する。metricsがnilの場合は記録しない。
func NewSubmitter(repo repository.LeadRepository, metrics SubmitRecorder, cfg SubmitterConfig, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Submitter{
		repo:    repo,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
		newID:   uuid.NewString,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Submit は問い合わせを1件保存する。
// 保存前にleadへID・受付日時・初期ステータスを設定する。
// 呼び出し元がキャンセルしても保存は継続し、結果は必ずログに残る。
// 制約違反は再試行しない。
// 全ての試行が失敗した場合はErrPersistFailedをラップしたエラーを返す。
func (s *Submitter) Submit(ctx context.Context, lead *model.Lead) (Receipt, error) {
	if lead == nil {
		return Receipt{}, fmt.Errorf("lead: nil lead")
	}
	s.prepare(lead)

	ctx = context.WithoutCancel(ctx)

	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			s.recordRetry()
			if err := s.sleep(ctx, CalculateBackoff(s.cfg.BaseDelay, attempt-1)); err != nil {
				lastErr = err
				break
			}
		}

		lastErr = s.create(ctx, lead)
		if lastErr == nil {
			s.logger.Info("lead persisted",
				slog.String("lead_id", lead.ID),
				slog.String("event_type", string(lead.EventType)),
				slog.String("service_tag", lead.ServiceTag),
				slog.Int("attempt", attempt+1),
			)
			if s.metrics != nil {
				s.metrics.RecordLeadReceived(lead.ServiceTag)
			}
			return Receipt{ID: lead.ID, CreatedAt: lead.CreatedAt}, nil
		}

		s.logger.Warn("lead persist attempt failed",
			slog.String("lead_id", lead.ID),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", s.cfg.MaxAttempts),
			slog.String("error", lastErr.Error()),
		)
		if errors.Is(lastErr, repository.ErrConstraintViolation) {
			break
		}
	}

	s.logger.Error("failed to persist lead",
		slog.String("lead_id", lead.ID),
		slog.String("email", lead.Email),
		slog.String("phone", lead.Phone),
		slog.String("event_type", string(lead.EventType)),
		slog.String("error", lastErr.Error()),
	)
	if s.metrics != nil {
		s.metrics.RecordLeadPersistFailure()
	}
	return Receipt{}, fmt.Errorf("%w: %w", ErrPersistFailed, lastErr)
}

func (s *Submitter) create(ctx context.Context, lead *model.Lead) error {
	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return s.repo.Create(attemptCtx, lead)
}

func (s *Submitter) prepare(lead *model.Lead) {
	lead.ID = s.newID()
	lead.CreatedAt = s.now().UTC()
	lead.Status = model.LeadStatusNew
}

func (s *Submitter) recordRetry() {
	if s.metrics != nil {
		s.metrics.RecordLeadPersistRetry()
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
