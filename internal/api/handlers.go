package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/nerrad567/vesta-core/internal/device"
	"github.com/nerrad567/vesta-core/internal/intent"
)

// stateResponse is the body of GET /state.
type stateResponse struct {
	device.State
	VoiceActive bool `json:"voice_active"`
}

// commandRequest is the body of POST /command.
type commandRequest struct {
	Cmd string `json:"cmd"`
}

// intentRequest is the body of POST /intents.
type intentRequest struct {
	Intent string `json:"intent"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// transcriptRequest is the body of POST /voice/transcripts.
type transcriptRequest struct {
	Text string `json:"text"`
}

// resolveResponse reports how an event was handled.
type resolveResponse struct {
	Intent   string         `json:"intent,omitempty"`
	Outcome  intent.Outcome `json:"outcome"`
	Command  string         `json:"command,omitempty"`
	ActionID string         `json:"action_id,omitempty"`
	State    device.State   `json:"state"`
}

func newResolveResponse(intentLabel string, res intent.Result) resolveResponse {
	return resolveResponse{
		Intent:   intentLabel,
		Outcome:  res.Outcome,
		Command:  string(res.Command),
		ActionID: res.ActionID,
		State:    res.State,
	}
}

// handleGetState returns the current snapshot and voice session flag.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		State:       s.store.Snapshot(),
		VoiceActive: s.resolver.VoiceActive(),
	})
}

// handleCommand resolves a dashboard command. The command doubles as the
// event text.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	cmd := strings.TrimSpace(req.Cmd)
	if cmd == "" {
		writeBadRequest(w, "no cmd provided")
		return
	}

	res := s.resolver.Resolve(r.Context(), intent.Event{
		Intent: cmd,
		Text:   cmd,
		Source: intent.SourceDashboard,
	})
	s.events.PublishEvent(intent.EventActionAck, intent.ActionAck{
		ID:      res.ActionID,
		Source:  intent.SourceDashboard,
		Intent:  cmd,
		Command: string(res.Command),
		Message: "Dashboard command: " + cmd,
	})

	writeJSON(w, http.StatusOK, newResolveResponse(cmd, res))
}

// handleIntent resolves a labelled intent from any producer.
func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Intent) == "" {
		writeBadRequest(w, "intent is required")
		return
	}
	src := intent.SourceDashboard
	if req.Source != "" {
		parsed, ok := intent.ParseSource(req.Source)
		if !ok {
			writeBadRequest(w, "source must be one of auto, dashboard, voice")
			return
		}
		src = parsed
	}

	res := s.resolver.Resolve(r.Context(), intent.Event{Intent: req.Intent, Text: req.Text, Source: src})
	writeJSON(w, http.StatusOK, newResolveResponse(req.Intent, res))
}

// handleTranscript interprets raw speech and resolves the result.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if s.interpreter == nil {
		writeUnavailable(w, "transcript interpretation is not configured")
		return
	}
	var req transcriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeBadRequest(w, "text is required")
		return
	}

	ev, ok := s.interpreter.Interpret(req.Text)
	if !ok {
		// Dropped by the cooldown.
		writeJSON(w, http.StatusAccepted, map[string]any{"ignored": true})
		return
	}
	res := s.resolver.Resolve(r.Context(), ev)
	writeJSON(w, http.StatusOK, newResolveResponse(ev.Intent, res))
}

// handleListActions returns recent action history, newest first.
func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "action history is not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	actions, err := s.history.ListActions(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing actions failed", "error", err)
		writeInternalError(w, "failed to list actions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actions": actions,
		"count":   len(actions),
	})
}

// handlePredictFan returns the regressor's suggestion for the current
// readings.
func (s *Server) handlePredictFan(w http.ResponseWriter, _ *http.Request) {
	st := s.store.Snapshot()
	if !st.HasClimate() {
		writeUnavailable(w, "no temperature and humidity reading yet")
		return
	}
	fan := s.predictor.PredictFan(*st.Temperature, *st.Humidity, st.LEDOn, st.Motion)
	writeJSON(w, http.StatusOK, map[string]any{
		"fan":     fan,
		"current": st.FanSpeed,
		"mode":    st.FanMode,
	})
}

// handlePredictIntent classifies free text.
func (s *Server) handlePredictIntent(w http.ResponseWriter, r *http.Request) {
	var req transcriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	label, ok := s.predictor.PredictIntent(req.Text)
	writeJSON(w, http.StatusOK, map[string]any{
		"intent": label,
		"known":  ok,
	})
}
