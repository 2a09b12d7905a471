package httpx

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/announcement"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/auth"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/chat"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/collection"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/meeting"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/project"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/report"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/user"
)

// Router wires HTTP endpoints to services. API routes are mounted under
// /api; health, metrics, and the websocket endpoint stay at the root.
type Router struct {
	mux           *http.ServeMux
	api           *http.ServeMux
	logger        *slog.Logger
	auth          auth.Service
	users         user.Service
	chat          chat.Service
	projects      project.Service
	meetings      meeting.Service
	announcements announcement.Service
	collections   collection.Service
	reports       report.Service
	upgrader      websocket.Upgrader
	limiter       RateLimiter
	uploadsDir    string
	dbHealth      func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitSignup    = 5
	rateLimitLogin     = 12
	rateLimitUserWrite = 60
	rateLimitUserRead  = 120
	rateLimitWebsocket = 30
	rateLimitPublic    = 120
	healthCheckTimeout = 2 * time.Second
	maxUploadBytes     = 16 << 20
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, userSvc user.Service, chatSvc chat.Service, projectSvc project.Service, meetingSvc meeting.Service, announcementSvc announcement.Service, collectionSvc collection.Service, reportSvc report.Service, limiter RateLimiter, uploadsDir string, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:           http.NewServeMux(),
		api:           http.NewServeMux(),
		logger:        logger,
		auth:          authSvc,
		users:         userSvc,
		chat:          chatSvc,
		projects:      projectSvc,
		meetings:      meetingSvc,
		announcements: announcementSvc,
		collections:   collectionSvc,
		reports:       reportSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:    limiter,
		uploadsDir: strings.TrimSpace(uploadsDir),
		dbHealth:   dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/ws/chat", r.audit(r.handlerAuthRate("/ws/chat", rateLimitWebsocket, rateWindowRealtime, r.handleChatWS)))
	r.mux.Handle("/api/", http.StripPrefix("/api", r.api))

	r.api.HandleFunc("/auth/signup", r.audit(r.withRateLimit("/auth/signup", rateLimitSignup, rateWindowDefault, rateLimitKeyIP, r.handleSignup)))
	r.api.HandleFunc("/auth/login", r.audit(r.withRateLimit("/auth/login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.api.HandleFunc("/auth/refresh", r.audit(r.withRateLimit("/auth/refresh", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleRefresh)))
	r.api.HandleFunc("/auth/me", r.audit(r.handlerAuthRate("/auth/me", rateLimitUserRead, rateWindowDefault, r.handleMe)))

	r.api.HandleFunc("/users", r.audit(r.handlerAuthRate("/users", rateLimitUserWrite, rateWindowDefault, r.handleUsers)))
	r.api.HandleFunc("/users/", r.audit(r.handlerAuthRate("/users", rateLimitUserWrite, rateWindowDefault, r.handleUserByID)))

	r.api.HandleFunc("/conversations", r.audit(r.handlerAuthRate("/conversations", rateLimitUserWrite, rateWindowDefault, r.handleConversations)))
	r.api.HandleFunc("/conversations/direct", r.audit(r.handlerAuthRate("/conversations", rateLimitUserWrite, rateWindowDefault, r.handleDirectConversation)))
	r.api.HandleFunc("/conversations/", r.audit(r.handlerAuthRate("/conversations", rateLimitUserWrite, rateWindowDefault, r.handleConversationSubroutes)))
	r.api.HandleFunc("/messages/", r.audit(r.handlerAuthRate("/messages", rateLimitUserWrite, rateWindowDefault, r.handleMessageByID)))

	r.api.HandleFunc("/projects", r.audit(r.handlerAuthRate("/projects", rateLimitUserWrite, rateWindowDefault, r.handleProjects)))
	r.api.HandleFunc("/projects/", r.audit(r.handlerAuthRate("/projects", rateLimitUserWrite, rateWindowDefault, r.handleProjectSubroutes)))

	r.api.HandleFunc("/meetings", r.audit(r.handlerAuthRate("/meetings", rateLimitUserWrite, rateWindowDefault, r.handleMeetings)))
	r.api.HandleFunc("/meetings/", r.audit(r.handlerAuthRate("/meetings", rateLimitUserWrite, rateWindowDefault, r.handleMeetingSubroutes)))
	r.api.HandleFunc("/agenda-items/", r.audit(r.handlerAuthRate("/agenda-items", rateLimitUserWrite, rateWindowDefault, r.handleAgendaItemSubroutes)))

	r.api.HandleFunc("/announcements", r.audit(r.handlerAuthRate("/announcements", rateLimitUserWrite, rateWindowDefault, r.handleAnnouncements)))
	r.api.HandleFunc("/announcements/active", r.audit(r.withRateLimit("/announcements/active", rateLimitPublic, rateWindowDefault, rateLimitKeyIP, r.handleActiveAnnouncements)))
	r.api.HandleFunc("/announcements/", r.audit(r.handlerAuthRate("/announcements", rateLimitUserWrite, rateWindowDefault, r.handleAnnouncementByID)))

	r.api.HandleFunc("/hosts", r.audit(r.handlerAuthRate("/hosts", rateLimitUserWrite, rateWindowDefault, r.handleHosts)))
	r.api.HandleFunc("/hosts/", r.audit(r.handlerAuthRate("/hosts", rateLimitUserWrite, rateWindowDefault, r.handleHostByID)))
	r.api.HandleFunc("/recipients", r.audit(r.handlerAuthRate("/recipients", rateLimitUserWrite, rateWindowDefault, r.handleRecipients)))
	r.api.HandleFunc("/recipients/", r.audit(r.handlerAuthRate("/recipients", rateLimitUserWrite, rateWindowDefault, r.handleRecipientByID)))

	r.api.HandleFunc("/collections", r.audit(r.handlerAuthRate("/collections", rateLimitUserWrite, rateWindowDefault, r.handleCollections)))
	r.api.HandleFunc("/collections/totals", r.audit(r.handlerAuthRate("/collections", rateLimitUserRead, rateWindowDefault, r.handleCollectionTotals)))
	r.api.HandleFunc("/collections/totals/hosts", r.audit(r.handlerAuthRate("/collections", rateLimitUserRead, rateWindowDefault, r.handleHostTotals)))
	r.api.HandleFunc("/collections/totals/weekly", r.audit(r.handlerAuthRate("/collections", rateLimitUserRead, rateWindowDefault, r.handleWeeklyTotals)))
	r.api.HandleFunc("/collections/import", r.audit(r.handlerAuthRate("/collections/import", rateLimitUserWrite, rateWindowDefault, r.handleCollectionImport)))
	r.api.HandleFunc("/collections/", r.audit(r.handlerAuthRate("/collections", rateLimitUserWrite, rateWindowDefault, r.handleCollectionByID)))

	r.api.HandleFunc("/reports/weekly", r.audit(r.handlerAuthRate("/reports", rateLimitUserWrite, rateWindowDefault, r.handleWeeklyReport)))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, routeLabel(req.URL.Path), status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.User.ID, "role", info.User.Role)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

// routeLabel collapses a request path to its first segment so metric label
// cardinality stays bounded.
func routeLabel(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if idx := strings.IndexRune(trimmed, '/'); idx > 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := sr.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}

// requireActor fetches the authenticated user, writing a 500 when the auth
// middleware was skipped by mistake.
func (r *Router) requireActor(w http.ResponseWriter, req *http.Request) (authInfo, bool) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return authInfo{}, false
	}
	return info, true
}
