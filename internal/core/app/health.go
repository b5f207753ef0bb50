package app

import (
	"context"
	"fmt"

	"codequery/internal/shared/observability"
)

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

// Check reports "up" once an analysis has completed and every configured
// collaborator is present.
func (s *HealthService) Check(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:  "up",
		Details: make(map[string]string),
	}

	if s.app.codeParser != nil {
		status.Details["parser"] = "ok"
	} else {
		status.Status = "degraded"
		status.Details["parser"] = "missing"
	}

	if s.app.store != nil {
		status.Details["index"] = "ok"
	} else if s.app.Config.Index.Enabled {
		status.Status = "degraded"
		status.Details["index"] = "missing but enabled in config"
	}

	if session := s.app.Session(); session == nil {
		status.Status = "degraded"
		status.Details["analysis"] = "not run"
	} else {
		last := s.app.LastResult()
		status.Details["analysis"] = fmt.Sprintf("ok (run %s, %d files, %d types)", last.RunID, last.Files, last.Types)
	}
	return status
}
