// Package ledger owns every resource mutation in the engine. Balances change
// only through Adjust and Transfer, each of which re-reads the latest
// turn-scoped balance before writing and appends an audit entry for every
// committed write.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/concord.quest/internal/errors"
	"github.com/louisbranch/concord.quest/internal/game/domain"
	"github.com/louisbranch/concord.quest/internal/id"
	"github.com/louisbranch/concord.quest/internal/storage"
)

// Result reports the records written and audit entries appended by one
// ledger call, plus any informational warnings.
type Result struct {
	Resources []domain.ResourceRecord
	AuditLogs []domain.AuditLogEntry
	Warnings  []string
}

// Ledger applies resource adjustments and transfers against the resource
// store, with a full audit trail.
type Ledger struct {
	resources    storage.ResourceStore
	auditLogs    storage.AuditLogStore
	participants storage.ParticipantStore
	clock        func() time.Time
	idGenerator  func() (string, error)
}

// New creates a ledger over the given stores.
func New(resources storage.ResourceStore, auditLogs storage.AuditLogStore, participants storage.ParticipantStore) *Ledger {
	return &Ledger{
		resources:    resources,
		auditLogs:    auditLogs,
		participants: participants,
		clock:        time.Now,
		idGenerator:  id.NewID,
	}
}

// WithClock overrides the ledger clock. Intended for tests.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

// Adjust applies one signed delta to a turn-scoped balance. It re-reads the
// current balance, rejects negative results unless the adjustment allows
// them, writes the new balance, and appends one audit entry. No write occurs
// when validation fails.
func (l *Ledger) Adjust(ctx context.Context, adj domain.ResourceAdjustment) (Result, error) {
	old, err := l.currentQuantity(ctx, adj.SessionID, adj.FactionID, adj.Resource, adj.Turn)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeLedgerReadFailed,
			fmt.Sprintf("read %s balance for faction %s", adj.Resource, adj.FactionID), err)
	}

	newQuantity := old + adj.Delta
	if newQuantity < 0 && !adj.AllowNegative {
		return Result{}, apperrors.Newf(apperrors.CodeInsufficientResources,
			"insufficient %s: has %d, needs %d", adj.Resource, old, -adj.Delta)
	}

	record, err := l.resources.UpsertResource(ctx, domain.ResourceRecord{
		SessionID: adj.SessionID,
		FactionID: adj.FactionID,
		Resource:  adj.Resource,
		Turn:      adj.Turn,
		Quantity:  newQuantity,
		UpdatedAt: l.clock().UTC(),
	})
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeLedgerWriteFailed,
			fmt.Sprintf("write %s balance for faction %s", adj.Resource, adj.FactionID), err)
	}

	entry, err := l.appendAudit(ctx, auditInput{
		sessionID: adj.SessionID,
		operation: domain.AuditOperationAdjust,
		factionID: adj.FactionID,
		resource:  adj.Resource,
		turn:      adj.Turn,
		old:       old,
		new:       newQuantity,
		delta:     adj.Delta,
		reason:    adj.Reason,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Resources: []domain.ResourceRecord{record},
		AuditLogs: []domain.AuditLogEntry{entry},
	}, nil
}

// Transfer moves an amount of one resource from one faction to another, or
// into the global pool when the destination is domain.GlobalPoolTarget. Both
// sides are validated before any write. The source decrement and destination
// increment are committed as separate writes; if the destination write fails
// after the source committed, the returned error names the half-applied
// state so the caller can surface it.
func (l *Ledger) Transfer(ctx context.Context, tr domain.ResourceTransfer) (Result, error) {
	if tr.Amount <= 0 {
		return Result{}, apperrors.Newf(apperrors.CodeActionInvalid,
			"transfer amount must be positive, got %d", tr.Amount)
	}

	old, err := l.currentQuantity(ctx, tr.SessionID, tr.FromFactionID, tr.Resource, tr.Turn)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeLedgerReadFailed,
			fmt.Sprintf("read %s balance for faction %s", tr.Resource, tr.FromFactionID), err)
	}
	if old < tr.Amount {
		return Result{}, apperrors.Newf(apperrors.CodeInsufficientResources,
			"insufficient %s: has %d, needs %d", tr.Resource, old, tr.Amount)
	}

	toGlobalPool := tr.ToFactionID == domain.GlobalPoolTarget
	if !toGlobalPool {
		exists, err := l.factionExists(ctx, tr.SessionID, tr.ToFactionID)
		if err != nil {
			return Result{}, apperrors.Wrap(apperrors.CodeLedgerReadFailed,
				fmt.Sprintf("check destination faction %s", tr.ToFactionID), err)
		}
		if !exists {
			return Result{}, apperrors.Newf(apperrors.CodeActionInvalid,
				"destination faction %s is not part of the session", tr.ToFactionID)
		}
	}

	var result Result

	// Source decrement.
	newSource := old - tr.Amount
	sourceRecord, err := l.resources.UpsertResource(ctx, domain.ResourceRecord{
		SessionID: tr.SessionID,
		FactionID: tr.FromFactionID,
		Resource:  tr.Resource,
		Turn:      tr.Turn,
		Quantity:  newSource,
		UpdatedAt: l.clock().UTC(),
	})
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeLedgerWriteFailed,
			fmt.Sprintf("write %s balance for faction %s", tr.Resource, tr.FromFactionID), err)
	}
	result.Resources = append(result.Resources, sourceRecord)

	sourceOp := domain.AuditOperationTransferOut
	if toGlobalPool {
		sourceOp = domain.AuditOperationContribute
	}
	sourceEntry, err := l.appendAudit(ctx, auditInput{
		sessionID: tr.SessionID,
		operation: sourceOp,
		factionID: tr.FromFactionID,
		resource:  tr.Resource,
		turn:      tr.Turn,
		old:       old,
		new:       newSource,
		delta:     -tr.Amount,
		reason:    tr.Reason,
		metadata:  transferMetadata(tr),
	})
	if err != nil {
		return result, err
	}
	result.AuditLogs = append(result.AuditLogs, sourceEntry)

	if toGlobalPool {
		return result, nil
	}

	// Destination increment. The source write is already durable; a failure
	// here must be loud so the half-applied transfer is never silent.
	oldDest, err := l.currentQuantity(ctx, tr.SessionID, tr.ToFactionID, tr.Resource, tr.Turn)
	if err != nil {
		return result, apperrors.Wrap(apperrors.CodeLedgerReadFailed,
			fmt.Sprintf("transfer half-applied: source %s debited %d %s but destination read failed",
				tr.FromFactionID, tr.Amount, tr.Resource), err)
	}
	newDest := oldDest + tr.Amount
	destRecord, err := l.resources.UpsertResource(ctx, domain.ResourceRecord{
		SessionID: tr.SessionID,
		FactionID: tr.ToFactionID,
		Resource:  tr.Resource,
		Turn:      tr.Turn,
		Quantity:  newDest,
		UpdatedAt: l.clock().UTC(),
	})
	if err != nil {
		return result, apperrors.Wrap(apperrors.CodeLedgerWriteFailed,
			fmt.Sprintf("transfer half-applied: source %s debited %d %s but destination write failed",
				tr.FromFactionID, tr.Amount, tr.Resource), err)
	}
	result.Resources = append(result.Resources, destRecord)

	destEntry, err := l.appendAudit(ctx, auditInput{
		sessionID: tr.SessionID,
		operation: domain.AuditOperationTransferIn,
		factionID: tr.ToFactionID,
		resource:  tr.Resource,
		turn:      tr.Turn,
		old:       oldDest,
		new:       newDest,
		delta:     tr.Amount,
		reason:    tr.Reason,
		metadata:  transferMetadata(tr),
	})
	if err != nil {
		return result, err
	}
	result.AuditLogs = append(result.AuditLogs, destEntry)

	return result, nil
}

// InitializeFaction seeds a faction's starting balances for a turn, one
// initialize audit entry per resource. Existing balances are overwritten.
func (l *Ledger) InitializeFaction(ctx context.Context, sessionID, factionID string, turn int64, allotment map[domain.ResourceType]int64) (Result, error) {
	var result Result
	for _, resource := range domain.ResourceTypes() {
		quantity, ok := allotment[resource]
		if !ok {
			continue
		}
		record, err := l.resources.UpsertResource(ctx, domain.ResourceRecord{
			SessionID: sessionID,
			FactionID: factionID,
			Resource:  resource,
			Turn:      turn,
			Quantity:  quantity,
			UpdatedAt: l.clock().UTC(),
		})
		if err != nil {
			return result, apperrors.Wrap(apperrors.CodeLedgerWriteFailed,
				fmt.Sprintf("seed %s balance for faction %s", resource, factionID), err)
		}
		result.Resources = append(result.Resources, record)

		entry, err := l.appendAudit(ctx, auditInput{
			sessionID: sessionID,
			operation: domain.AuditOperationInitialize,
			factionID: factionID,
			resource:  resource,
			turn:      turn,
			old:       0,
			new:       quantity,
			delta:     quantity,
			reason:    "starting allotment",
		})
		if err != nil {
			return result, err
		}
		result.AuditLogs = append(result.AuditLogs, entry)
	}
	return result, nil
}

// currentQuantity reads the latest balance for a key, treating a missing
// record as zero.
func (l *Ledger) currentQuantity(ctx context.Context, sessionID, factionID string, resource domain.ResourceType, turn int64) (int64, error) {
	record, err := l.resources.GetResource(ctx, sessionID, factionID, resource, turn)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return record.Quantity, nil
}

func (l *Ledger) factionExists(ctx context.Context, sessionID, factionID string) (bool, error) {
	participants, err := l.participants.ListParticipants(ctx, sessionID)
	if err != nil {
		return false, err
	}
	for _, participant := range participants {
		if participant.FactionID == factionID {
			return true, nil
		}
	}
	return false, nil
}

type auditInput struct {
	sessionID string
	operation domain.AuditOperation
	factionID string
	resource  domain.ResourceType
	turn      int64
	old       int64
	new       int64
	delta     int64
	reason    string
	metadata  map[string]string
}

func (l *Ledger) appendAudit(ctx context.Context, in auditInput) (domain.AuditLogEntry, error) {
	entryID, err := l.idGenerator()
	if err != nil {
		return domain.AuditLogEntry{}, fmt.Errorf("generate audit entry id: %w", err)
	}
	entry := domain.AuditLogEntry{
		ID:          entryID,
		SessionID:   in.sessionID,
		Operation:   in.operation,
		FactionID:   in.factionID,
		Resource:    in.resource,
		Turn:        in.turn,
		OldQuantity: in.old,
		NewQuantity: in.new,
		Delta:       in.delta,
		Reason:      in.reason,
		Metadata:    in.metadata,
		CreatedAt:   l.clock().UTC(),
	}
	if err := l.auditLogs.AppendAuditLog(ctx, entry); err != nil {
		return domain.AuditLogEntry{}, apperrors.Wrap(apperrors.CodeLedgerWriteFailed,
			fmt.Sprintf("append %s audit entry for faction %s", in.operation, in.factionID), err)
	}
	return entry, nil
}

func transferMetadata(tr domain.ResourceTransfer) map[string]string {
	return map[string]string{
		"from_faction": tr.FromFactionID,
		"to_faction":   tr.ToFactionID,
	}
}
