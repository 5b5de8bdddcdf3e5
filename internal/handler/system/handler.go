package system

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/scam-shield/backend/pkg/utils"
)

// Version is reported by the root and health endpoints.
const Version = "0.1.0"

// Info describes the running configuration without exposing secrets.
type Info struct {
	Provider    string
	Model       string
	Environment string
}

// SessionCounter reports the number of live chat sessions.
type SessionCounter interface {
	Len() int
}

// Handler 服务描述与健康检查
type Handler struct {
	info     Info
	sessions SessionCounter
	started  time.Time
}

// New 创建系统处理器
func New(info Info, sessions SessionCounter) *Handler {
	return &Handler{info: info, sessions: sessions, started: time.Now()}
}

// RegisterRoutes registers /health on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
}

// Check represents the status of a health check.
type Check struct {
	Status  string `json:"status"` // "pass" or "fail"
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status         string           `json:"status"` // "healthy" or "degraded"
	Version        string           `json:"version"`
	Environment    string           `json:"environment"`
	Uptime         string           `json:"uptime"`
	ActiveSessions int              `json:"activeSessions"`
	Checks         map[string]Check `json:"checks"`
	Timestamp      string           `json:"timestamp"`
}

// Health handles the health check endpoint. A missing model provider degrades
// the service.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]Check)
	status := "healthy"
	code := http.StatusOK

	if h.info.Provider != "" {
		checks["model"] = Check{Status: "pass", Message: h.info.Provider + "/" + h.info.Model}
	} else {
		checks["model"] = Check{Status: "fail", Message: "not configured"}
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	checks["knowledge_base"] = Check{Status: "pass"}

	active := 0
	if h.sessions != nil {
		active = h.sessions.Len()
	}

	utils.RespondJSON(w, code, HealthResponse{
		Status:         status,
		Version:        Version,
		Environment:    h.info.Environment,
		Uptime:         time.Since(h.started).Round(time.Second).String(),
		ActiveSessions: active,
		Checks:         checks,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

// RootResponse represents the root endpoint response.
type RootResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// Root handles the service descriptor endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, RootResponse{
		Name:    "scam-shield",
		Version: Version,
		Endpoints: []string{
			"POST /api/chat/sessions",
			"GET /api/chat/sessions/{id}",
			"DELETE /api/chat/sessions/{id}",
			"POST /api/chat/sessions/{id}/messages",
			"GET /api/chat/live",
			"POST /api/analyze",
			"GET /api/categories",
			"GET /api/categories/{id}",
			"GET /api/advice",
		},
	})
}
