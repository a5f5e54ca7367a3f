package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus-support-backend/internal/agent"
	"campus-support-backend/internal/config"
	"campus-support-backend/internal/store"
	"campus-support-backend/internal/types"
)

type Server struct {
	router  *chi.Mux
	cfg     config.Config
	log     *zap.Logger
	orch    *agent.Orchestrator
	tickets *store.TicketStore
	faculty *store.FacultyStore
	health  func() error
}

// Deps carries the collaborators the server routes to. The ticket and
// faculty stores may be nil when no database is configured; their endpoints
// then answer 503.
type Deps struct {
	Orchestrator *agent.Orchestrator
	Tickets      *store.TicketStore
	Faculty      *store.FacultyStore
	Health       func() error
}

func NewServer(cfg config.Config, log *zap.Logger, deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:  r,
		cfg:     cfg,
		log:     log,
		orch:    deps.Orchestrator,
		tickets: deps.Tickets,
		faculty: deps.Faculty,
		health:  deps.Health,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/api/chat", s.handleChat)
		r.Post("/api/chat/confirm", s.handleConfirm)
		r.Post("/api/chat/reset", s.handleReset)
		r.Get("/api/tickets", s.handleListTickets)
		r.Get("/api/tickets/{id}", s.handleGetTicket)
		r.Post("/api/tickets/{id}/close", s.handleCloseTicket)
		r.Get("/api/faculty", s.handleFacultySearch)
		r.Get("/api/faculty/departments", s.handleDepartments)
	})
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.health != nil {
		if err := s.health(); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	mode := agent.Mode(req.Mode)
	if req.Mode != "" && !agent.ValidMode(mode) {
		s.writeError(w, http.StatusBadRequest, "mode must be one of auto, email, ticket, faculty")
		return
	}

	id, _ := identityFrom(r.Context())
	sid := s.getOrCreateSessionID(r, w, req.SessionID)

	resp := s.orch.HandleTurn(r.Context(), agent.TurnRequest{
		SessionID: sid,
		Requester: id.Email,
		Name:      id.Name,
		Message:   req.Message,
		Mode:      mode,
	})
	s.writeChatResponse(w, sid, resp)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req types.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sid := s.getSessionID(r, req.SessionID)
	if sid == "" {
		s.writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	resp := s.orch.ConfirmTurn(r.Context(), sid, req.Confirmed, req.EditedFields)
	s.writeChatResponse(w, sid, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	sid := s.getSessionID(r, req.SessionID)
	if sid == "" {
		s.writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	s.orch.Reset(sid)
	s.writeChatResponse(w, sid, agent.Response{Type: agent.RespInformation, Text: "Conversation cleared."})
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	if s.tickets == nil {
		s.writeError(w, http.StatusServiceUnavailable, "ticket store not configured")
		return
	}
	id, _ := identityFrom(r.Context())
	list, err := s.tickets.ListByRequester(r.Context(), id.Email)
	if err != nil {
		s.log.Warn("ticket listing failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not list tickets")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"tickets": list})
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	if s.tickets == nil {
		s.writeError(w, http.StatusServiceUnavailable, "ticket store not configured")
		return
	}
	id, _ := identityFrom(r.Context())
	ticketID := chi.URLParam(r, "id")
	t, err := s.tickets.Get(r.Context(), ticketID)
	if err != nil {
		s.log.Warn("ticket lookup failed", zap.String("ticket", ticketID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not load ticket")
		return
	}
	if t == nil || t.RequesterEmail != id.Email {
		s.writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(t)
}

func (s *Server) handleCloseTicket(w http.ResponseWriter, r *http.Request) {
	if s.tickets == nil {
		s.writeError(w, http.StatusServiceUnavailable, "ticket store not configured")
		return
	}
	id, _ := identityFrom(r.Context())
	ticketID := chi.URLParam(r, "id")
	if err := s.tickets.Close(r.Context(), ticketID, id.Email); err != nil {
		s.writeError(w, http.StatusNotFound, "ticket not found or already closed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "closed", "id": ticketID})
}

func (s *Server) handleFacultySearch(w http.ResponseWriter, r *http.Request) {
	if s.faculty == nil {
		s.writeError(w, http.StatusServiceUnavailable, "faculty directory not configured")
		return
	}
	dept := r.URL.Query().Get("department")
	name := r.URL.Query().Get("name")
	if dept == "" && name == "" {
		s.writeError(w, http.StatusBadRequest, "department or name is required")
		return
	}
	matches, err := s.faculty.Find(r.Context(), dept, name)
	if err != nil {
		s.log.Warn("faculty search failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not search faculty")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"faculty": matches})
}

func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	if s.faculty == nil {
		s.writeError(w, http.StatusServiceUnavailable, "faculty directory not configured")
		return
	}
	departments, err := s.faculty.Departments(r.Context())
	if err != nil {
		s.log.Warn("department listing failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not list departments")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"departments": departments})
}

func (s *Server) writeChatResponse(w http.ResponseWriter, sid string, resp agent.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Session-Id", sid)
	_ = json.NewEncoder(w).Encode(types.ChatResponse{
		SessionID: sid,
		Type:      resp.Type,
		Text:      resp.Text,
		Draft:     resp.Draft,
		Success:   resp.Success,
	})
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg})
}

func newSessionID() string {
	return "s_" + uuid.NewString()
}

// getSessionID resolves the session id from body, cookie, header or query,
// in that order.
func (s *Server) getSessionID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if cookie, err := GetSessionCookie(r); err == nil && cookie != "" {
		return cookie
	}
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return sid
	}
	if sid := r.URL.Query().Get("sessionId"); sid != "" {
		return sid
	}
	return ""
}

// getOrCreateSessionID resolves an existing session id or creates a new one,
// setting the cookie.
func (s *Server) getOrCreateSessionID(r *http.Request, w http.ResponseWriter, fromBody string) string {
	sid := s.getSessionID(r, fromBody)
	if sid == "" {
		sid = newSessionID()
		s.log.Debug("creating new session", zap.String("session", sid), zap.String("path", r.URL.Path))
		SetSessionCookie(w, sid)
	}
	return sid
}
