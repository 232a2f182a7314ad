// Package api exposes the tenant rewriter over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tenantsql/internal/middleware"
	"tenantsql/internal/sqlrewrite"
	"tenantsql/internal/tenant"
)

const maxRequestBody = 1 << 20

// RewriteRequest is the body of POST /v1/rewrite and POST /v1/tables.
type RewriteRequest struct {
	SQL string `json:"sql"`
}

// RewriteResponse is the body returned by POST /v1/rewrite.
type RewriteResponse struct {
	SQL     string   `json:"sql"`
	Changed bool     `json:"changed"`
	Type    string   `json:"type,omitempty"`
	Tables  []string `json:"tables"`
}

// TablesResponse is the body returned by POST /v1/tables.
type TablesResponse struct {
	Type   string   `json:"type"`
	Tables []string `json:"tables"`
	Target string   `json:"target,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler serves the rewrite endpoints.
type Handler struct {
	rewriter   *sqlrewrite.Rewriter
	tenantMode bool
	logger     *slog.Logger
}

// NewHandler creates a Handler. When tenantMode is false statements are
// echoed back unchanged.
func NewHandler(rw *sqlrewrite.Rewriter, tenantMode bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{rewriter: rw, tenantMode: tenantMode, logger: logger}
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Rewrite applies the caller's tenant context to the submitted statement.
func (h *Handler) Rewrite(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	if !h.tenantMode {
		writeJSON(w, http.StatusOK, RewriteResponse{SQL: req.SQL, Tables: []string{}})
		return
	}

	tc, _ := tenant.FromContext(r.Context())
	res, err := h.rewriter.RewriteSQL(req.SQL, tc)
	if err != nil {
		status := httpStatusFromRewriteError(err)
		h.logger.Info("rewrite rejected",
			"status", status,
			"error", err,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
		writeError(w, status, err.Error())
		return
	}

	tables := res.Tables
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, http.StatusOK, RewriteResponse{
		SQL:     res.SQL,
		Changed: res.Changed,
		Type:    res.Type.String(),
		Tables:  tables,
	})
}

// Tables lists the tables a statement touches without rewriting it.
func (h *Handler) Tables(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	tables, err := sqlrewrite.ExtractTableNames(req.SQL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	typ, err := sqlrewrite.ClassifyStatement(req.SQL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	target, err := sqlrewrite.ExtractTargetTable(req.SQL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, http.StatusOK, TablesResponse{Type: typ.String(), Tables: tables, Target: target})
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (RewriteRequest, bool) {
	var req RewriteRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return req, false
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeError(w, http.StatusBadRequest, "sql is required")
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Code: status, Message: msg})
}
