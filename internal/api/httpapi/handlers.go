package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/louisbranch/concord.quest/internal/errors"
	"github.com/louisbranch/concord.quest/internal/game/domain"
	"github.com/louisbranch/concord.quest/internal/game/engine"
)

func turnParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "turn"), 10, 64)
}

type submitActionRequest struct {
	PlayerID  string            `json:"player_id"`
	FactionID string            `json:"faction_id"`
	Kind      domain.ActionKind `json:"kind"`
	Payload   json.RawMessage   `json:"payload"`
}

type actionResponse struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Turn      int64             `json:"turn"`
	PlayerID  string            `json:"player_id"`
	FactionID string            `json:"faction_id"`
	Kind      domain.ActionKind `json:"kind"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

func (s *Server) handleSubmitAction(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turn, err := turnParam(r)
	if err != nil {
		writeBadRequest(w, s.logger, "turn must be an integer")
		return
	}

	var req submitActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, s.logger, "invalid request body")
		return
	}

	payload, err := domain.DecodePayload(req.Kind, req.Payload)
	if err != nil {
		writeBadRequest(w, s.logger, err.Error())
		return
	}

	action, err := domain.CreateAction(domain.CreateActionInput{
		SessionID: sessionID,
		Turn:      turn,
		PlayerID:  req.PlayerID,
		FactionID: req.FactionID,
		Kind:      req.Kind,
		Payload:   payload,
	}, nil, nil)
	if err != nil {
		writeBadRequest(w, s.logger, err.Error())
		return
	}

	if err := s.stores.Actions.PutAction(r.Context(), action); err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int64("turn", turn).
		Str("action_id", action.ID).
		Str("kind", string(action.Kind)).
		Msg("action submitted")

	// Push the fresh readiness status to watchers. A failed readiness read
	// must not undo the accepted submission.
	if status, err := s.engine.CheckReadiness(r.Context(), sessionID, turn); err == nil {
		s.hub.Notify(status)
	}

	writeJSON(w, http.StatusCreated, actionResponse{
		ID:        action.ID,
		SessionID: action.SessionID,
		Turn:      action.Turn,
		PlayerID:  action.PlayerID,
		FactionID: action.FactionID,
		Kind:      action.Kind,
		Status:    "submitted",
		CreatedAt: action.CreatedAt,
	})
}

type enrollParticipantRequest struct {
	PlayerID    string           `json:"player_id"`
	DisplayName string           `json:"display_name"`
	FactionID   string           `json:"faction_id"`
	Archetype   domain.Archetype `json:"archetype"`
}

type participantResponse struct {
	ID          string           `json:"id"`
	SessionID   string           `json:"session_id"`
	PlayerID    string           `json:"player_id"`
	DisplayName string           `json:"display_name"`
	FactionID   string           `json:"faction_id"`
	Archetype   domain.Archetype `json:"archetype"`
	CreatedAt   time.Time        `json:"created_at"`
}

// handleEnrollParticipant registers a player's faction and seeds its starting
// allotment from the catalog for turn one.
func (s *Server) handleEnrollParticipant(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req enrollParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, s.logger, "invalid request body")
		return
	}

	participant, err := domain.CreateParticipant(domain.CreateParticipantInput{
		SessionID:   sessionID,
		PlayerID:    req.PlayerID,
		DisplayName: req.DisplayName,
		FactionID:   req.FactionID,
		Archetype:   req.Archetype,
	}, nil, nil)
	if err != nil {
		writeBadRequest(w, s.logger, err.Error())
		return
	}

	if err := s.stores.Participants.PutParticipant(r.Context(), participant); err != nil {
		writeError(w, s.logger, err)
		return
	}

	if allotment := s.catalog.StartingResources(participant.Archetype); len(allotment) > 0 {
		if _, err := s.ledger.InitializeFaction(r.Context(), sessionID, participant.FactionID, 1, allotment); err != nil {
			writeError(w, s.logger, err)
			return
		}
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("faction_id", participant.FactionID).
		Str("archetype", string(participant.Archetype)).
		Msg("participant enrolled")

	writeJSON(w, http.StatusCreated, participantResponse{
		ID:          participant.ID,
		SessionID:   participant.SessionID,
		PlayerID:    participant.PlayerID,
		DisplayName: participant.DisplayName,
		FactionID:   participant.FactionID,
		Archetype:   participant.Archetype,
		CreatedAt:   participant.CreatedAt,
	})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turn, err := turnParam(r)
	if err != nil {
		writeBadRequest(w, s.logger, "turn must be an integer")
		return
	}

	status, err := s.engine.CheckReadiness(r.Context(), sessionID, turn)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleReadinessWatch(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turn, err := turnParam(r)
	if err != nil {
		writeBadRequest(w, s.logger, "turn must be an integer")
		return
	}

	status, err := s.engine.CheckReadiness(r.Context(), sessionID, turn)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.hub.Watch(w, r, status)
}

type resolveRequest struct {
	ValidateOnly        bool `json:"validate_only"`
	AllowPartialFailure bool `json:"allow_partial_failure"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turn, err := turnParam(r)
	if err != nil {
		writeBadRequest(w, s.logger, "turn must be an integer")
		return
	}

	var req resolveRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, s.logger, "invalid request body")
			return
		}
	}

	if !s.locks.tryAcquire(sessionID, turn) {
		writeError(w, s.logger, apperrors.Newf(apperrors.CodeResolutionInFlight,
			"turn %d of session %s is already being resolved", turn, sessionID))
		return
	}
	defer s.locks.release(sessionID, turn)

	result, err := s.engine.ResolveTurn(r.Context(), sessionID, turn, engine.Options{
		ValidateOnly:        req.ValidateOnly,
		AllowPartialFailure: req.AllowPartialFailure,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int64("turn", turn).
		Int("total_actions", result.Summary.TotalActions).
		Int("processed_actions", result.Summary.ProcessedActions).
		Int("failed_actions", result.Summary.FailedActions).
		Bool("success", result.Success).
		Msg("turn resolved")

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turn, err := turnParam(r)
	if err != nil {
		writeBadRequest(w, s.logger, "turn must be an integer")
		return
	}

	result, err := s.stores.TurnResults.GetTurnResult(r.Context(), sessionID, turn)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type resourceResponse struct {
	FactionID string              `json:"faction_id"`
	Resource  domain.ResourceType `json:"resource"`
	Turn      int64               `json:"turn"`
	Quantity  int64               `json:"quantity"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turn, err := turnParam(r)
	if err != nil {
		writeBadRequest(w, s.logger, "turn must be an integer")
		return
	}

	records, err := s.stores.Resources.ListResources(r.Context(), sessionID, turn)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	out := make([]resourceResponse, 0, len(records))
	for _, record := range records {
		out = append(out, resourceResponse{
			FactionID: record.FactionID,
			Resource:  record.Resource,
			Turn:      record.Turn,
			Quantity:  record.Quantity,
			UpdatedAt: record.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type auditEntryResponse struct {
	ID          string                `json:"id"`
	Operation   domain.AuditOperation `json:"operation"`
	FactionID   string                `json:"faction_id"`
	Resource    domain.ResourceType   `json:"resource"`
	Turn        int64                 `json:"turn"`
	OldQuantity int64                 `json:"old_quantity"`
	NewQuantity int64                 `json:"new_quantity"`
	Delta       int64                 `json:"delta"`
	Reason      string                `json:"reason,omitempty"`
	Metadata    map[string]string     `json:"metadata,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, s.logger, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := s.stores.AuditLogs.ListAuditLogs(r.Context(), sessionID, limit)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, auditEntryResponse{
			ID:          entry.ID,
			Operation:   entry.Operation,
			FactionID:   entry.FactionID,
			Resource:    entry.Resource,
			Turn:        entry.Turn,
			OldQuantity: entry.OldQuantity,
			NewQuantity: entry.NewQuantity,
			Delta:       entry.Delta,
			Reason:      entry.Reason,
			Metadata:    entry.Metadata,
			CreatedAt:   entry.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
