package health

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStatusWithoutDatabase(t *testing.T) {
	got := NewService(nil).Status(context.Background())
	if !got["ok"] {
		t.Fatalf("expected ok, got %v", got)
	}
	if _, ok := got["database"]; ok {
		t.Fatalf("database should not be reported without a connection")
	}
}

func TestStatusReportsDatabasePing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	svc := NewService(db)
	if got := svc.Status(context.Background()); !got["ok"] || !got["database"] {
		t.Fatalf("expected healthy, got %v", got)
	}
	if got := svc.Status(context.Background()); got["ok"] || got["database"] {
		t.Fatalf("expected unhealthy, got %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
