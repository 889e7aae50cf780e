package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/framepipe/internal/api/models"
	"github.com/smazurov/framepipe/internal/logging"
)

// registerLogRoutes registers the recent-logs endpoint backed by the ring
// buffer.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Get recent log entries from the in-memory ring buffer, oldest first",
		Tags:        []string{"logs"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		Level string `query:"level" enum:"debug,info,warn,error," example:"warn" doc:"Only return entries at this level"`
	}) (*models.LogsResponse, error) {
		buffer := logging.GetBuffer()
		if buffer == nil {
			return &models.LogsResponse{Body: models.LogsData{Entries: []models.LogEntryData{}}}, nil
		}

		entries := buffer.ReadAll()
		out := make([]models.LogEntryData, 0, len(entries))
		for _, entry := range entries {
			if input.Level != "" && entry.Level != input.Level {
				continue
			}
			out = append(out, models.LogEntryData{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		}

		return &models.LogsResponse{
			Body: models.LogsData{
				Entries: out,
				Count:   len(out),
			},
		}, nil
	})
}
