package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/health"
	"github.com/industriverse/capstream/input/udp"
	"github.com/industriverse/capstream/output/websocket"
	"github.com/industriverse/capstream/processor/alert"
	"github.com/industriverse/capstream/types"
)

const defaultReadingsLimit = 100

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

type rulesResponse struct {
	Rules []types.Rule `json:"rules"`
	Count int          `json:"count"`
}

type capsulesResponse struct {
	Capsules []*types.Capsule `json:"capsules"`
	Count    int              `json:"count"`
}

type sourcesResponse struct {
	Sources []string `json:"sources"`
	Count   int      `json:"count"`
}

type readingsResponse struct {
	SourceID string          `json:"sourceId"`
	Readings []types.Reading `json:"readings"`
	Count    int             `json:"count"`
}

type connectionsResponse struct {
	Connections []websocket.ConnectionStats `json:"connections"`
	Count       int                         `json:"count"`
}

type actionRequest struct {
	Action   string         `json:"action"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type actionResponse struct {
	CapsuleID string `json:"capsuleId"`
	Action    string `json:"action"`
	Result    string `json:"result"`
}

type statsResponse struct {
	Service   string                  `json:"service"`
	Rules     alert.RuleStats         `json:"rules"`
	Capsules  alert.CapsuleStats      `json:"capsules"`
	Ingest    *udp.Stats              `json:"ingest,omitempty"`
	Processor *alert.ProcessorStats   `json:"processor,omitempty"`
	Gateway   *websocket.GatewayStats `json:"gateway,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusForError maps pipeline errors onto HTTP statuses. NotFound must win
// over Invalid: the registry and manager wrap their not-found sentinels as
// invalid-class errors, so the class check alone would report 400.
func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrRuleExists):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrNoHandler), stderrors.Is(err, errors.ErrActionHandler):
		return http.StatusBadGateway
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the caller. This is an operator surface, so the
// raw error text goes out as-is rather than a sanitized public message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err, "status", status)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Status: status})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Status: http.StatusBadRequest})
}

// Rules

func (s *Server) handleRulesList(w http.ResponseWriter, _ *http.Request) {
	rules := s.deps.Rules.List()
	writeJSON(w, http.StatusOK, rulesResponse{Rules: rules, Count: len(rules)})
}

func (s *Server) handleRuleCreate(w http.ResponseWriter, r *http.Request) {
	var rule types.Rule
	if err := decodeJSON(r, &rule); err != nil {
		s.badRequest(w, "invalid rule body: "+err.Error())
		return
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if err := s.deps.Rules.Add(rule); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("rule created", "rule_id", rule.ID, "name", rule.Name)
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleRuleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rule, ok := s.deps.Rules.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "rule not found: " + id, Status: http.StatusNotFound})
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleRuleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch types.RulePatch
	if err := decodeJSON(r, &patch); err != nil {
		s.badRequest(w, "invalid rule patch: "+err.Error())
		return
	}
	rule, err := s.deps.Rules.Update(id, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("rule updated", "rule_id", id)
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleRuleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Rules.Remove(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("rule removed", "rule_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRuleEnable(w http.ResponseWriter, r *http.Request) {
	s.setRuleEnabled(w, r, true)
}

func (s *Server) handleRuleDisable(w http.ResponseWriter, r *http.Request) {
	s.setRuleEnabled(w, r, false)
}

func (s *Server) setRuleEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	id := chi.URLParam(r, "id")
	rule, err := s.deps.Rules.Update(id, types.RulePatch{Enabled: &enabled})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("rule toggled", "rule_id", id, "enabled", enabled)
	writeJSON(w, http.StatusOK, rule)
}

// Capsules

func (s *Server) handleCapsulesList(w http.ResponseWriter, _ *http.Request) {
	capsules := s.deps.Capsules.ListActive()
	writeJSON(w, http.StatusOK, capsulesResponse{Capsules: capsules, Count: len(capsules)})
}

func (s *Server) handleCapsuleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	capsule, ok := s.deps.Capsules.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "capsule not found: " + id, Status: http.StatusNotFound})
		return
	}
	writeJSON(w, http.StatusOK, capsule)
}

func (s *Server) handleCapsuleAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid action body: "+err.Error())
		return
	}
	if req.Action == "" {
		s.badRequest(w, "action is required")
		return
	}

	if err := s.deps.Capsules.PerformAction(r.Context(), id, req.Action, req.Metadata); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("capsule action performed", "capsule_id", id, "action", req.Action)
	writeJSON(w, http.StatusOK, actionResponse{CapsuleID: id, Action: req.Action, Result: "ok"})
}

// Readings

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	sources := []string{}
	if s.deps.History != nil {
		sources = s.deps.History.Sources()
	}
	writeJSON(w, http.StatusOK, sourcesResponse{Sources: sources, Count: len(sources)})
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "sourceId")

	limit := defaultReadingsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	readings := []types.Reading{}
	if s.deps.History != nil {
		if got := s.deps.History.Last(sourceID, limit); got != nil {
			readings = got
		}
	}
	writeJSON(w, http.StatusOK, readingsResponse{SourceID: sourceID, Readings: readings, Count: len(readings)})
}

// Stats and health

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	resp := statsResponse{
		Service:  s.serviceName,
		Rules:    s.deps.Rules.Stats(),
		Capsules: s.deps.Capsules.Stats(),
	}
	if s.deps.Ingest != nil {
		stats := s.deps.Ingest.Stats()
		resp.Ingest = &stats
	}
	if s.deps.Processor != nil {
		stats := s.deps.Processor.Stats()
		resp.Processor = &stats
	}
	if s.deps.Gateway != nil {
		stats := s.deps.Gateway.Stats()
		resp.Gateway = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConnections(w http.ResponseWriter, _ *http.Request) {
	conns := []websocket.ConnectionStats{}
	if s.deps.Gateway != nil {
		conns = s.deps.Gateway.Connections()
	}
	writeJSON(w, http.StatusOK, connectionsResponse{Connections: conns, Count: len(conns)})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	var status health.Status
	if s.deps.Health != nil {
		status = s.deps.Health.AggregateHealth(s.serviceName)
	} else {
		status = health.NewHealthy(s.serviceName, "ok")
	}
	writeJSON(w, status.HTTPStatus(), status)
}
