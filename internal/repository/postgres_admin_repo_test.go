package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/urbana/eventos/internal/model"
)

func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ LeadRepository = (*PostgresLeadRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ SessionRepository = (*RedisSessionRepo)(nil)
	var _ RoleRepository = (*PostgresRoleRepo)(nil)
	var _ ContentRepository = (*PostgresContentRepo)(nil)
	var _ GalleryRepository = (*PostgresGalleryRepo)(nil)
}

func TestPostgresSessionRepo_CreateAndFind(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	now := time.Now()
	session := &model.AdminSession{
		ID:         "sess-1",
		IdentityID: "admin",
		Provider:   "static",
		Role:       model.RoleAdmin,
		ExpiresAt:  now.Add(time.Hour),
		CreatedAt:  now,
	}

	mock.ExpectExec("INSERT INTO admin_sessions").
		WithArgs("sess-1", "admin", "", "static", "admin", "", session.ExpiresAt, session.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Create(context.Background(), session); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	mock.ExpectQuery("SELECT (.+) FROM admin_sessions").
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "identity_id", "email", "provider", "role", "access_token", "expires_at", "created_at",
		}).AddRow("sess-1", "admin", "", "static", "admin", "", session.ExpiresAt, now))

	got, err := repo.FindByID(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if got == nil || got.Role != model.RoleAdmin || got.IdentityID != "admin" {
		t.Errorf("unexpected session: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSessionRepo_FindByID_Expired_ReturnsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	// expires_at > now() の条件で0件になる
	mock.ExpectQuery("SELECT (.+) FROM admin_sessions\\s+WHERE id = \\$1 AND expires_at > now\\(\\)").
		WithArgs("old").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.FindByID(context.Background(), "old")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for expired session, got %+v", got)
	}
}

func TestPostgresRoleRepo_ListRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRoleRepo(db)

	mock.ExpectQuery("SELECT role FROM user_roles WHERE identity_id").
		WithArgs("uid-1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("editor").AddRow("admin"))

	roles, err := repo.ListRoles(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("ListRoles returned error: %v", err)
	}
	if len(roles) != 2 || roles[1] != model.RoleAdmin {
		t.Errorf("roles = %v", roles)
	}
}

func TestPostgresRoleRepo_ListRoles_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRoleRepo(db)

	queryErr := errors.New("timeout")
	mock.ExpectQuery("SELECT role FROM user_roles").WillReturnError(queryErr)

	_, err = repo.ListRoles(context.Background(), "uid-1")
	if !errors.Is(err, queryErr) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestPostgresContentRepo_Upsert_CommitsTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresContentRepo(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO site_content").
		WithArgs("hero_title", "Tu evento, sin estrés", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO site_content").
		WithArgs("hero_subtitle", "Salones en todo Uruguay", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.Upsert(context.Background(), []*model.SiteContent{
		{ID: "hero_title", Content: "Tu evento, sin estrés", UpdatedAt: now},
		{ID: "hero_subtitle", Content: "Salones en todo Uruguay", UpdatedAt: now},
	})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresContentRepo_Upsert_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresContentRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO site_content").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err = repo.Upsert(context.Background(), []*model.SiteContent{{ID: "hero_title", Content: "x"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGalleryRepo_ListActiveOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresGalleryRepo(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM gallery_images WHERE is_active = true ORDER BY display_order").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "image_url", "category", "display_order", "is_active", "created_at",
		}).AddRow("img-1", "Salón", "", "https://cdn.example.com/a.jpg", "bodas", 0, true, now))

	images, err := repo.List(context.Background(), true)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(images) != 1 || !images[0].IsActive || images[0].Title != "Salón" {
		t.Errorf("unexpected images: %+v", images)
	}
}

func TestPostgresGalleryRepo_NextDisplayOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresGalleryRepo(db)

	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(display_order\\), -1\\) \\+ 1 FROM gallery_images").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(4))

	next, err := repo.NextDisplayOrder(context.Background())
	if err != nil {
		t.Fatalf("NextDisplayOrder returned error: %v", err)
	}
	if next != 4 {
		t.Errorf("next = %d, want 4", next)
	}
}

func TestPostgresGalleryRepo_Reorder_AssignsSequentialOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresGalleryRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE gallery_images SET display_order").WithArgs("c", 0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE gallery_images SET display_order").WithArgs("a", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE gallery_images SET display_order").WithArgs("b", 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Reorder(context.Background(), []string{"c", "a", "b"}); err != nil {
		t.Fatalf("Reorder returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGalleryRepo_SetActive_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresGalleryRepo(db)

	mock.ExpectExec("UPDATE gallery_images SET is_active").
		WithArgs("missing", false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	found, err := repo.SetActive(context.Background(), "missing", false)
	if err != nil || found {
		t.Errorf("SetActive = %v, %v; want false, nil", found, err)
	}
}
