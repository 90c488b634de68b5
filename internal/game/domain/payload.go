package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAmbiguousPayload indicates a payload with zero or multiple kind fields set.
var ErrAmbiguousPayload = errors.New("payload must set exactly one kind")

// ActionPayload is a tagged union of per-kind action payloads. Exactly one
// field is non-nil; Kind reports which. The kind tag is persisted alongside
// the payload body so decoding never depends on payload shape.
type ActionPayload struct {
	Gather   *GatherPayload
	Trade    *TradePayload
	Convert  *ConvertPayload
	Build    *BuildPayload
	Research *ResearchPayload
	Protect  *ProtectPayload
	Special  *SpecialPayload
}

// GatherPayload requests production of a resource.
type GatherPayload struct {
	Resource ResourceType `json:"resource"`
	Amount   int64        `json:"amount"`
}

// TradePayload moves a resource to another faction, or to the global pool when
// TargetFactionID is empty, and grants the trading faction the converted
// resource in exchange.
type TradePayload struct {
	OfferResource   ResourceType `json:"offer_resource"`
	Amount          int64        `json:"amount"`
	WantResource    ResourceType `json:"want_resource"`
	Rate            float64      `json:"rate"`
	TargetFactionID string       `json:"target_faction_id,omitempty"`
}

// ConvertPayload exchanges one of the faction's own resources for another at
// the given rate.
type ConvertPayload struct {
	FromResource ResourceType `json:"from_resource"`
	ToResource   ResourceType `json:"to_resource"`
	Amount       int64        `json:"amount"`
	Rate         float64      `json:"rate"`
}

// BuildPayload constructs a structure from the catalog.
type BuildPayload struct {
	Structure string `json:"structure"`
}

// ResearchPayload advances a research topic from the catalog.
type ResearchPayload struct {
	Topic string `json:"topic"`
}

// ProtectPayload spends the declared costs and produces ward.
type ProtectPayload struct {
	Costs  map[ResourceType]int64 `json:"costs,omitempty"`
	Amount int64                  `json:"amount"`
}

// SpecialPayload invokes an archetype special ability.
type SpecialPayload struct {
	Ability string                 `json:"ability"`
	Costs   map[ResourceType]int64 `json:"costs,omitempty"`
	Target  string                 `json:"target,omitempty"`
}

// Kind returns the action kind the payload carries, or the empty kind when the
// union is empty or ambiguous.
func (p ActionPayload) Kind() ActionKind {
	var kind ActionKind
	count := 0
	if p.Gather != nil {
		kind = ActionKindGather
		count++
	}
	if p.Trade != nil {
		kind = ActionKindTrade
		count++
	}
	if p.Convert != nil {
		kind = ActionKindConvert
		count++
	}
	if p.Build != nil {
		kind = ActionKindBuild
		count++
	}
	if p.Research != nil {
		kind = ActionKindResearch
		count++
	}
	if p.Protect != nil {
		kind = ActionKindProtect
		count++
	}
	if p.Special != nil {
		kind = ActionKindSpecial
		count++
	}
	if count != 1 {
		return ActionKind("")
	}
	return kind
}

// EncodePayload serializes a payload body for persistence. The caller stores
// the returned bytes next to the explicit kind tag.
func EncodePayload(payload ActionPayload) ([]byte, error) {
	kind := payload.Kind()
	if kind == "" {
		return nil, ErrAmbiguousPayload
	}
	var body any
	switch kind {
	case ActionKindGather:
		body = payload.Gather
	case ActionKindTrade:
		body = payload.Trade
	case ActionKindConvert:
		body = payload.Convert
	case ActionKindBuild:
		body = payload.Build
	case ActionKindResearch:
		body = payload.Research
	case ActionKindProtect:
		body = payload.Protect
	case ActionKindSpecial:
		body = payload.Special
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return raw, nil
}

// DecodePayload deserializes a payload body using the stored kind tag.
func DecodePayload(kind ActionKind, raw []byte) (ActionPayload, error) {
	var payload ActionPayload
	var err error
	switch kind {
	case ActionKindGather:
		payload.Gather = &GatherPayload{}
		err = json.Unmarshal(raw, payload.Gather)
	case ActionKindTrade:
		payload.Trade = &TradePayload{}
		err = json.Unmarshal(raw, payload.Trade)
	case ActionKindConvert:
		payload.Convert = &ConvertPayload{}
		err = json.Unmarshal(raw, payload.Convert)
	case ActionKindBuild:
		payload.Build = &BuildPayload{}
		err = json.Unmarshal(raw, payload.Build)
	case ActionKindResearch:
		payload.Research = &ResearchPayload{}
		err = json.Unmarshal(raw, payload.Research)
	case ActionKindProtect:
		payload.Protect = &ProtectPayload{}
		err = json.Unmarshal(raw, payload.Protect)
	case ActionKindSpecial:
		payload.Special = &SpecialPayload{}
		err = json.Unmarshal(raw, payload.Special)
	default:
		return ActionPayload{}, fmt.Errorf("%w: %q", ErrInvalidActionKind, kind)
	}
	if err != nil {
		return ActionPayload{}, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return payload, nil
}
