package domain

import "time"

// ResourceType identifies one resource tracked by the ledger.
type ResourceType string

const (
	// ResourceFood feeds the session's factions; shortages penalize everyone.
	ResourceFood ResourceType = "food"
	// ResourceTimber is the basic construction material.
	ResourceTimber ResourceType = "timber"
	// ResourceStone is the advanced construction material.
	ResourceStone ResourceType = "stone"
	// ResourceOre fuels tooling and special abilities.
	ResourceOre ResourceType = "ore"
	// ResourceInsight advances research.
	ResourceInsight ResourceType = "insight"
	// ResourceWard is the protection output produced by protect actions.
	ResourceWard ResourceType = "ward"
)

// ResourceTypes lists every recognized resource type.
func ResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceFood, ResourceTimber, ResourceStone,
		ResourceOre, ResourceInsight, ResourceWard,
	}
}

// ValidResourceType reports whether value names a recognized resource type.
func ValidResourceType(value ResourceType) bool {
	for _, rt := range ResourceTypes() {
		if rt == value {
			return true
		}
	}
	return false
}

// Archetype is a faction's systemic role, governing which resources and
// actions it may use.
type Archetype string

const (
	// ArchetypeProvisioner specializes in food and raw materials.
	ArchetypeProvisioner Archetype = "provisioner"
	// ArchetypeGuardian is the designated defensive archetype.
	ArchetypeGuardian Archetype = "guardian"
	// ArchetypeMystic specializes in insight.
	ArchetypeMystic Archetype = "mystic"
	// ArchetypeExplorer specializes in ore and stone.
	ArchetypeExplorer Archetype = "explorer"
)

// GlobalPoolTarget is the sentinel transfer destination meaning the resource
// is consumed without a concrete receiving faction.
const GlobalPoolTarget = "global"

// ResourceRecord is a turn-scoped balance: the quantity of one resource type
// held by one faction as of one specific turn. History is preserved by keying
// on turn number, enabling point-in-time reconstruction.
type ResourceRecord struct {
	SessionID string
	FactionID string
	Resource  ResourceType
	Turn      int64
	Quantity  int64
	UpdatedAt time.Time
}

// ResourceAdjustment is a command to apply a signed delta to one balance.
type ResourceAdjustment struct {
	SessionID string
	FactionID string
	Resource  ResourceType
	Turn      int64
	Delta     int64
	Reason    string
	// AllowNegative permits the resulting quantity to drop below zero.
	// Used only by emergency and penalty flows.
	AllowNegative bool
}

// ResourceTransfer is a command moving a quantity of one resource type from
// one faction to another, or to the global pool when ToFactionID equals
// GlobalPoolTarget.
type ResourceTransfer struct {
	SessionID     string
	FromFactionID string
	ToFactionID   string
	Resource      ResourceType
	Turn          int64
	Amount        int64
	Reason        string
}

// AuditOperation identifies the kind of ledger mutation that produced an
// audit entry.
type AuditOperation string

const (
	// AuditOperationAdjust records a single-balance adjustment.
	AuditOperationAdjust AuditOperation = "adjust"
	// AuditOperationTransferOut records the source side of a transfer.
	AuditOperationTransferOut AuditOperation = "transfer_outgoing"
	// AuditOperationTransferIn records the destination side of a transfer.
	AuditOperationTransferIn AuditOperation = "transfer_incoming"
	// AuditOperationContribute records a transfer into the global pool.
	AuditOperationContribute AuditOperation = "contribute"
	// AuditOperationInitialize records the seeding of a starting balance.
	AuditOperationInitialize AuditOperation = "initialize"
)

// AuditLogEntry is an append-only record of one ledger mutation. Entries are
// never mutated or deleted.
type AuditLogEntry struct {
	ID          string
	SessionID   string
	Operation   AuditOperation
	FactionID   string
	Resource    ResourceType
	Turn        int64
	OldQuantity int64
	NewQuantity int64
	Delta       int64
	Reason      string
	Metadata    map[string]string
	CreatedAt   time.Time
}
