package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"content":  s.checkContent(),
		"search":   s.checkSearchIndex(),
		"sse":      s.checkSSEManager(),
	}

	overall := "healthy"
	for _, c := range components {
		switch c.Status {
		case "unhealthy":
			overall = "unhealthy"
		case "degraded":
			if overall == "healthy" {
				overall = "degraded"
			}
		}
	}

	return &HealthOutput{Body: HealthResponse{Status: overall, Components: components}}, nil
}

func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.db == nil {
		return ComponentHealth{Status: "degraded", Message: "database not configured"}
	}

	start := time.Now()
	err := s.db.Ping(ctx)
	latency := time.Since(start)
	if err != nil {
		return ComponentHealth{Status: "unhealthy", Latency: latency.String(), Message: "database ping failed"}
	}
	return ComponentHealth{Status: "healthy", Latency: latency.String()}
}

// checkContent reports whether the chapter list loaded at startup.
func (s *Server) checkContent() ComponentHealth {
	if s.quran == nil {
		return ComponentHealth{Status: "degraded", Message: "content not configured"}
	}
	snap := s.quran.Snapshot()
	switch {
	case snap.Loading:
		return ComponentHealth{Status: "degraded", Message: "chapter list loading"}
	case snap.Error != "":
		return ComponentHealth{Status: "degraded", Message: snap.Error}
	}
	return ComponentHealth{Status: "healthy", Message: strconv.Itoa(len(snap.Chapters)) + " chapters"}
}

func (s *Server) checkSearchIndex() ComponentHealth {
	if s.search == nil {
		return ComponentHealth{Status: "degraded", Message: "search index not configured"}
	}

	start := time.Now()
	count, err := s.search.DocumentCount()
	latency := time.Since(start)
	if err != nil {
		return ComponentHealth{Status: "unhealthy", Latency: latency.String(), Message: "search index unreachable"}
	}
	// The index fills as chapters are opened, so an empty one is normal.
	return ComponentHealth{Status: "healthy", Latency: latency.String(), Message: strconv.FormatUint(count, 10) + " verses indexed"}
}

func (s *Server) checkSSEManager() ComponentHealth {
	if s.events == nil {
		return ComponentHealth{Status: "degraded", Message: "SSE manager not configured"}
	}
	switch n := s.events.ClientCount(); n {
	case 1:
		return ComponentHealth{Status: "healthy", Message: "1 connected client"}
	default:
		return ComponentHealth{Status: "healthy", Message: strconv.Itoa(n) + " connected clients"}
	}
}
