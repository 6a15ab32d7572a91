package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	// DB is nil when the app runs on in-memory repositories.
	DB *sql.DB
}

// NewService constructs a new health service.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Status reports overall health plus one entry per dependency.
func (s *Service) Status(ctx context.Context) map[string]bool {
	status := map[string]bool{"ok": true}
	if s == nil || s.DB == nil {
		return status
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	dbOK := s.DB.PingContext(ctx) == nil
	status["database"] = dbOK
	status["ok"] = dbOK
	return status
}
