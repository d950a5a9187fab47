package app

import (
	"context"
	"net/http"
	"time"

	"github.com/shandysiswandi/twostep/internal/pkg/router"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h healthResponse) StatusCode() int {
	if h.Status != "ok" {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (h healthResponse) Message() string {
	return "service is " + h.Status
}

type pinger func(ctx context.Context) error

// health reports readiness: the app finished starting and every backing
// store answers a ping.
func (a *App) health(r *router.Request) (any, error) {
	return checkHealth(r.Context(), a.ready.Load(), map[string]pinger{
		"database": a.dbConn.Ping,
		"redis": func(ctx context.Context) error {
			return a.cacheConn.Ping(ctx).Err()
		},
	}), nil
}

func checkHealth(ctx context.Context, ready bool, deps map[string]pinger) healthResponse {
	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(deps)+1)}
	if !ready {
		resp.Status = "starting"
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	for name, ping := range deps {
		if err := ping(ctx); err != nil {
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "up"
	}

	return resp
}
