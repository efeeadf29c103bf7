package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestCategoryRepository_Reconcile(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	repo := NewCategoryRepository(db)
	userID := uuid.New()
	created := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlText("SELECT category, COUNT(*) AS n FROM events")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"category", "n"}).
			AddRow("Tic", 3).
			AddRow("Cough", 1).
			AddRow("Blink", 2))
	mock.ExpectQuery(sqlText("FOR UPDATE")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "count", "color", "created_at", "updated_at"}).
			AddRow(userID.String(), "Tic", 2, "#ff0000", created, created).
			AddRow(userID.String(), "Blink", 2, "#00ff00", created, created).
			AddRow(userID.String(), "Old", 4, "#0000ff", created, created))
	// drifted count is rewritten, existing color kept
	mock.ExpectExec(sqlText("UPDATE categories SET count = $3")).
		WithArgs(userID, "Tic", 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlText("INSERT INTO categories")).
		WithArgs(userID, "Cough", 1, "#abcdef", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlText("DELETE FROM categories WHERE user_id = $1 AND name = $2")).
		WithArgs(userID, "Old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlText("UPDATE users SET event_count = $2")).
		WithArgs(userID, 6, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	colorFor := func(name string) string {
		if name != "Cough" {
			t.Errorf("colorFor(%q) called for an existing summary", name)
		}
		return "#abcdef"
	}
	res, err := repo.Reconcile(context.Background(), userID, colorFor)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	want := ReconcileResult{Updated: 1, Created: 1, Deleted: 1, EventCount: 6}
	if *res != want {
		t.Errorf("Reconcile() = %+v, want %+v", *res, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCategoryRepository_ReconcileNoEvents(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	repo := NewCategoryRepository(db)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(sqlText("SELECT category, COUNT(*) AS n FROM events")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"category", "n"}))
	mock.ExpectQuery(sqlText("FOR UPDATE")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "count", "color", "created_at", "updated_at"}))
	mock.ExpectExec(sqlText("UPDATE users SET event_count = $2")).
		WithArgs(userID, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Reconcile(context.Background(), userID, func(string) string { return "#000000" })
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if *res != (ReconcileResult{}) {
		t.Errorf("Reconcile() = %+v, want zero result", *res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
