package httpserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	votingcore "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core"
	votingerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
	votinghttp "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/transport/http"
	_ "github.com/Yunusinusah/offline-voting/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	pollingAgentRole = "polling_agent"
	maxBodyBytes     = 1 << 20
)

// Options carries the optional platform handlers mounted next to the voting
// routes. A nil handler leaves its route unregistered. TrustProxyHeaders
// takes the audited client IP from X-Forwarded-For; enable it only behind a
// proxy that overwrites the header.
type Options struct {
	Addr              string
	AdminKey          string
	TrustProxyHeaders bool
	Events            http.Handler
	Metrics           http.Handler
	Logger            *slog.Logger
}

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	adminKey   string
	trustProxy bool
	events     http.Handler
	metrics    http.Handler
	voting     votingcore.Module
	server     *http.Server
}

func New(voting votingcore.Module, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		adminKey:   strings.TrimSpace(opts.AdminKey),
		trustProxy: opts.TrustProxyHeaders,
		events:     opts.Events,
		metrics:    opts.Metrics,
		voting:     voting,
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	s.mux.HandleFunc("POST /api/auth/voter/generate", s.handleIssueCode)
	s.mux.HandleFunc("POST /api/auth/voter/verify", s.handleVerifyCode)
	s.mux.HandleFunc("POST /api/votes", s.handleCastBallot)
	s.mux.HandleFunc("GET /api/ballot", s.handleBallot)
	s.mux.HandleFunc("GET /api/admin/events", s.handleAdminEvents)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIssueCode(w http.ResponseWriter, r *http.Request) {
	agentID := strings.TrimSpace(r.Header.Get("X-Agent-Id"))
	if agentID == "" {
		writeVotingError(w, http.StatusUnauthorized, "unauthorized", "X-Agent-Id header is required")
		return
	}
	if strings.TrimSpace(r.Header.Get("X-Agent-Role")) != pollingAgentRole {
		writeVotingError(w, http.StatusForbidden, "forbidden", "only polling agents may issue voter codes")
		return
	}

	var req votinghttp.IssueCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.voting.Handler.IssueCodeHandler(r.Context(), agentID, req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req votinghttp.VerifyCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.voting.Handler.VerifyCodeHandler(r.Context(), s.clientIP(r), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastBallot(w http.ResponseWriter, r *http.Request) {
	claims, err := s.voting.Handler.Authenticate(bearerToken(r))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}

	var req votinghttp.CastBallotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.voting.Handler.CastBallotHandler(r.Context(), claims, s.clientIP(r), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBallot(w http.ResponseWriter, r *http.Request) {
	claims, err := s.voting.Handler.Authenticate(bearerToken(r))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	resp, err := s.voting.Handler.BallotHandler(r.Context(), claims.VoterID)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAdminEvents accepts the key as a header or, for browser websocket
// clients that cannot set headers, as the admin_key query parameter.
func (s *Server) handleAdminEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil || s.adminKey == "" {
		writeVotingError(w, http.StatusNotFound, "not_found", "event stream is disabled")
		return
	}
	key := strings.TrimSpace(r.Header.Get("X-Admin-Key"))
	if key == "" {
		key = strings.TrimSpace(r.URL.Query().Get("admin_key"))
	}
	if key == "" {
		writeVotingError(w, http.StatusUnauthorized, "unauthorized", "X-Admin-Key header is required")
		return
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
		writeVotingError(w, http.StatusForbidden, "forbidden", "admin key rejected")
		return
	}
	s.events.ServeHTTP(w, r)
}

func writeVotingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, votingerrors.ErrInvalidBallot),
		errors.Is(err, votingerrors.ErrInvalidOTPRequest):
		writeVotingError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, votingerrors.ErrVoterNotFound),
		errors.Is(err, votingerrors.ErrElectionNotFound):
		writeVotingError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, votingerrors.ErrAlreadyVoted):
		writeVotingError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, votingerrors.ErrElectionNotActive):
		writeVotingError(w, http.StatusConflict, "election_not_active", err.Error())
	case errors.Is(err, votingerrors.ErrElectionWindowClosed):
		writeVotingError(w, http.StatusConflict, "election_window_closed", err.Error())
	case errors.Is(err, votingerrors.ErrOTPInvalid):
		writeVotingError(w, http.StatusConflict, "otp_invalid", err.Error())
	case errors.Is(err, votingerrors.ErrOTPInvalidOrExpired):
		writeVotingError(w, http.StatusBadRequest, "invalid_or_expired", err.Error())
	case errors.Is(err, votingerrors.ErrOverVoting):
		writeVotingError(w, http.StatusUnprocessableEntity, "over_voting", err.Error())
	case errors.Is(err, votingerrors.ErrUnderVotingNotAllowed):
		writeVotingError(w, http.StatusUnprocessableEntity, "under_voting_not_allowed", err.Error())
	case errors.Is(err, votingerrors.ErrInvalidToken):
		writeVotingError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		writeVotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votinghttp.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeVotingError(w, http.StatusRequestEntityTooLarge, "validation_error", "request body is too large")
			return false
		}
		writeVotingError(w, http.StatusBadRequest, "validation_error", "request body must be valid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// clientIP is the peer address unless proxy headers are trusted, in which
// case the first X-Forwarded-For hop wins.
func (s *Server) clientIP(r *http.Request) string {
	if s.trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
