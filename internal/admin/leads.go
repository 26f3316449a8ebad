package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urbana/eventos/internal/model"
	"github.com/urbana/eventos/internal/repository"
)

const (
	defaultLeadListLimit = 100
	maxLeadListLimit     = 500
)

// LeadService は管理画面での問い合わせ一覧・対応状況管理を提供する。
type LeadService struct {
	repo repository.LeadRepository
}

// NewLeadService はLeadServiceを生成する。
func NewLeadService(repo repository.LeadRepository) *LeadService {
	return &LeadService{repo: repo}
}

// List は新しい順に問い合わせを返す。statusが空の場合は全件を対象とする。
// limitが0以下の場合は既定値、上限を超える場合は上限に丸める。
func (s *LeadService) List(ctx context.Context, status string, limit int) ([]*model.Lead, error) {
	st := model.LeadStatus(status)
	if status != "" && !st.Valid() {
		return nil, model.NewInvalidLeadStatusError(status)
	}
	switch {
	case limit <= 0:
		limit = defaultLeadListLimit
	case limit > maxLeadListLimit:
		limit = maxLeadListLimit
	}

	leads, err := s.repo.List(ctx, st, limit)
	if err != nil {
		return nil, fmt.Errorf("問い合わせ一覧の取得に失敗しました: %w", err)
	}
	return leads, nil
}

// Get は指定IDの問い合わせを返す。
func (s *LeadService) Get(ctx context.Context, id string) (*model.Lead, error) {
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("問い合わせの取得に失敗しました: %w", err)
	}
	if lead == nil {
		return nil, model.NewLeadNotFoundError(id)
	}
	return lead, nil
}

// UpdateStatus は対応状況を更新し、更新後の問い合わせを返す。
func (s *LeadService) UpdateStatus(ctx context.Context, id, status string) (*model.Lead, error) {
	st := model.LeadStatus(status)
	if !st.Valid() {
		return nil, model.NewInvalidLeadStatusError(status)
	}

	found, err := s.repo.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, fmt.Errorf("対応状況の更新に失敗しました: %w", err)
	}
	if !found {
		return nil, model.NewLeadNotFoundError(id)
	}

	slog.Info("lead status updated",
		slog.String("lead_id", id),
		slog.String("status", status),
	)
	return s.Get(ctx, id)
}

// Delete は問い合わせを削除する。
func (s *LeadService) Delete(ctx context.Context, id string) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("問い合わせの削除に失敗しました: %w", err)
	}
	if !found {
		return model.NewLeadNotFoundError(id)
	}
	slog.Info("lead deleted", slog.String("lead_id", id))
	return nil
}
