// Package api exposes topic lookups over HTTP and websocket.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/spinkonweb-dotcom/booxclash-pro/internal/curriculum"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/lookup"
)

const (
	maxBodyBytes = 64 << 10
	checkTimeout = 2 * time.Second
)

// Looker resolves topic lookups.
type Looker interface {
	Lookup(ctx context.Context, req lookup.Request) (lookup.Result, error)
}

// Checker is a dependency probed by /readyz.
type Checker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// HandlerConfig holds dependencies for the HTTP handler.
type HandlerConfig struct {
	Lookup     Looker
	Checks     []Checker
	APIKeyHash string // bcrypt hash; empty leaves /v1 routes open
}

// Handler serves the lookup API.
type Handler struct {
	lookup     Looker
	checks     []Checker
	apiKeyHash []byte
	validator  *requestValidator
}

// NewHandler creates the API handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Lookup == nil {
		return nil, fmt.Errorf("lookup is nil")
	}
	h := &Handler{
		lookup:    cfg.Lookup,
		checks:    cfg.Checks,
		validator: newRequestValidator(),
	}
	if cfg.APIKeyHash != "" {
		h.apiKeyHash = []byte(cfg.APIKeyHash)
	}
	return h, nil
}

// matchRequest is the body of POST /v1/match and each websocket message.
type matchRequest struct {
	Country         string   `json:"country" validate:"notblank,max=64"`
	Grade           string   `json:"grade" validate:"notblank,max=32"`
	Subject         string   `json:"subject" validate:"notblank,max=64"`
	Queries         []string `json:"queries" validate:"required,min=1,max=10,dive,max=500"`
	SchemeReference string   `json:"scheme_reference" validate:"max=500"`
}

func (m matchRequest) lookupRequest(requestID string) lookup.Request {
	return lookup.Request{
		Key: curriculum.ModuleKey{
			Country: m.Country,
			Grade:   m.Grade,
			Subject: m.Subject,
		},
		Queries:         m.Queries,
		SchemeReference: m.SchemeReference,
		RequestID:       requestID,
	}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Routes returns the HTTP router with health, readiness and lookup
// endpoints.
func (h *Handler) Routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/match", h.handleMatch)
	api.HandleFunc("GET /v1/match/ws", h.handleMatchWS)

	var protected http.Handler = api
	if h.apiKeyHash != nil {
		protected = requireAPIKey(h.apiKeyHash, api)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", h.handleReadyz)
	mux.Handle("/v1/", protected)
	return withRequestID(mux)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReadyz(w http.ResponseWriter, r *http.Request) {
	failed := make(map[string]string)
	for _, c := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		if err := c.HealthCheck(ctx); err != nil {
			failed[c.Name()] = err.Error()
			slog.Warn("readiness check failed", "dependency", c.Name(), "error", err)
		}
		cancel()
	}

	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"failed": failed,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeMatchRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}

	if fields, err := h.validator.Struct(req); err != nil || fields != nil {
		writeError(w, http.StatusBadRequest, "invalid request", fields)
		return
	}

	result, err := h.lookup.Lookup(r.Context(), req.lookupRequest(RequestID(r.Context())))
	if err != nil {
		slog.Error("lookup failed", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "lookup failed", nil)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeMatchRequest rejects unknown fields so HTTP and websocket clients
// see the same contract.
func decodeMatchRequest(r io.Reader) (matchRequest, error) {
	var req matchRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	err := dec.Decode(&req)
	return req, err
}

// handleMatchWS serves lookups over a websocket: each text message is a
// matchRequest and gets exactly one reply, a lookup.Result or an
// errorResponse.
func (h *Handler) handleMatchWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err, "request_id", RequestID(r.Context()))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	requestID := RequestID(ctx)
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				slog.Warn("websocket read failed", "error", err, "request_id", requestID)
			}
			return
		}

		if typ != websocket.MessageText {
			if err := wsjson.Write(ctx, conn, errorResponse{Error: "invalid JSON message"}); err != nil {
				return
			}
			continue
		}
		req, err := decodeMatchRequest(bytes.NewReader(data))
		if err != nil {
			if err := wsjson.Write(ctx, conn, errorResponse{Error: "invalid JSON message"}); err != nil {
				return
			}
			continue
		}

		var reply any
		if fields, err := h.validator.Struct(req); err != nil || fields != nil {
			reply = errorResponse{Error: "invalid request", Fields: fields}
		} else if result, err := h.lookup.Lookup(ctx, req.lookupRequest(requestID)); err != nil {
			slog.Error("lookup failed", "error", err, "request_id", requestID)
			reply = errorResponse{Error: "lookup failed"}
		} else {
			reply = result
		}

		if err := wsjson.Write(ctx, conn, reply); err != nil {
			slog.Warn("websocket write failed", "error", err, "request_id", requestID)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding response", "error", err)
		status = http.StatusInternalServerError
		data = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	writeJSON(w, status, errorResponse{Error: msg, Fields: fields})
}
