package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tripdesk/internal/constants"
	"tripdesk/internal/errors"
	"tripdesk/internal/middleware"
	"tripdesk/internal/models"
	"tripdesk/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

// Server is the thin HTTP layer over the hub: routing, decoding and status
// codes only. All domain behavior lives in the service package.
type Server struct {
	router *mux.Router
	logger *logrus.Logger
	hub    service.Hub
	cfg    models.ServerConfig
	server *http.Server
}

func NewServer(cfg models.ServerConfig, hub service.Hub, logger *logrus.Logger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		logger: logger,
		hub:    hub,
		cfg:    cfg,
	}

	s.router.Use(middleware.Observability(logger))
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)

	webhooks := s.router.PathPrefix("/webhook").Subrouter()
	webhooks.HandleFunc("/{channel}", s.handleWebhook()).Methods(http.MethodPost)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus()).Methods(http.MethodGet)
	api.HandleFunc("/initialize", s.handleInitialize()).Methods(http.MethodPost)
	api.HandleFunc("/send", s.handleSend()).Methods(http.MethodPost)
	api.HandleFunc("/conversations", s.handleListConversations()).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/messages", s.handleListMessages()).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/read", s.handleMarkRead()).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/close", s.handleClose()).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/mode", s.handleGetMode()).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/mode", s.handleSetMode()).Methods(http.MethodPost)
	api.HandleFunc("/unread", s.handleUnread()).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats()).Methods(http.MethodGet)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.cfg.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func (s *Server) writeHubError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	s.writeError(w, status, errorBody(err, status))
}

// statusFromError maps the error taxonomy to HTTP status codes.
func statusFromError(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeNormalization:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// errorBody picks the response message: internal failures answer with the
// error's user-facing message so backend details stay out of responses.
func errorBody(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return errors.GetUserMessage(err)
	}
	return err.Error()
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channel, err := models.ParseChannel(mux.Vars(r)["channel"])
		if err != nil {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		result, err := s.hub.HandleIncoming(r.Context(), channel, body, service.HandleOptions{AutoReply: true})
		if err != nil {
			s.writeHubError(w, err)
			return
		}

		s.writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.hub.Status(r.Context()))
	}
}

func (s *Server) handleInitialize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := s.hub.Initialize(r.Context())
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"connectors": results,
		})
	}
}

type sendRequest struct {
	Channel    string `json:"channel"`
	ChatID     string `json:"chat_id"`
	Text       string `json:"text"`
	ChannelID  string `json:"channel_id,omitempty"`
	SenderID   string `json:"sender_id,omitempty"`
	SenderName string `json:"sender_name,omitempty"`
}

func (s *Server) handleSend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		channel, err := models.ParseChannel(req.Channel)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.ChatID == "" || req.Text == "" {
			s.writeError(w, http.StatusBadRequest, "chat_id and text are required")
			return
		}

		outcome := s.hub.Send(r.Context(), channel, req.ChatID, req.Text, models.SendOptions{
			ProviderChannelID: req.ChannelID,
			SenderID:          req.SenderID,
			SenderName:        req.SenderName,
		})
		if !outcome.Success {
			s.writeJSON(w, http.StatusBadGateway, outcome)
			return
		}
		s.writeJSON(w, http.StatusOK, outcome)
	}
}

// parseChannelFilter reads the optional ?channel= query parameter. An empty
// value means no filter.
func parseChannelFilter(r *http.Request) (models.Channel, error) {
	raw := r.URL.Query().Get("channel")
	if raw == "" {
		return "", nil
	}
	return models.ParseChannel(raw)
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return constants.DefaultListLimit
	}
	var limit int
	if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil {
		return constants.DefaultListLimit
	}
	return limit
}

func (s *Server) handleListConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channel, err := parseChannelFilter(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		conversations, err := s.hub.Conversations(r.Context(), channel, parseLimit(r))
		if err != nil {
			s.writeHubError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"conversations": conversations,
			"count":         len(conversations),
		})
	}
}

func (s *Server) handleListMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID := mux.Vars(r)["id"]

		messages, err := s.hub.Messages(r.Context(), conversationID, parseLimit(r))
		if err != nil {
			s.writeHubError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"messages": messages,
			"count":    len(messages),
		})
	}
}

func (s *Server) handleMarkRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID := mux.Vars(r)["id"]

		marked, err := s.hub.MarkConversationRead(r.Context(), conversationID)
		if err != nil {
			s.writeHubError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"marked_read": marked,
		})
	}
}

func (s *Server) handleClose() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID := mux.Vars(r)["id"]

		if err := s.hub.CloseConversation(r.Context(), conversationID); err != nil {
			s.writeHubError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}

type setModeRequest struct {
	Mode    string `json:"mode"`
	AgentID string `json:"agent_id,omitempty"`
}

func (s *Server) handleSetMode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID := mux.Vars(r)["id"]

		var req setModeRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		mode, err := models.ParseAutomationMode(req.Mode)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		record, err := s.hub.SetMode(r.Context(), conversationID, mode, req.AgentID)
		if err != nil {
			s.writeHubError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, record)
	}
}

func (s *Server) handleGetMode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID := mux.Vars(r)["id"]

		record, err := s.hub.GetMode(r.Context(), conversationID)
		if err != nil {
			s.writeHubError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, record)
	}
}

func (s *Server) handleUnread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channel, err := parseChannelFilter(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		count, err := s.hub.UnreadCount(r.Context(), channel)
		if err != nil {
			s.writeHubError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"unread": count})
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.hub.ChannelStats(r.Context())
		if err != nil {
			s.writeHubError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"channels": stats})
	}
}
