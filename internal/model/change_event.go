package model

import "fmt"

type EntityKind string

const (
	EntityLead    EntityKind = "lead"
	EntityMessage EntityKind = "message"
)

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ChangeEvent describes one committed mutation. Exactly one of Lead or
// Message is set, matching Entity. LeadID is always the owning lead.
type ChangeEvent struct {
	Entity  EntityKind `json:"entity"`
	Change  ChangeKind `json:"change"`
	LeadID  int64      `json:"lead_id,string"`
	Lead    *Lead      `json:"lead,omitempty"`
	Message *Message   `json:"message,omitempty"`
}

func LeadChanged(change ChangeKind, lead Lead) ChangeEvent {
	return ChangeEvent{Entity: EntityLead, Change: change, LeadID: lead.ID, Lead: &lead}
}

func MessageCreated(msg Message) ChangeEvent {
	return ChangeEvent{Entity: EntityMessage, Change: ChangeCreated, LeadID: msg.LeadID, Message: &msg}
}

// Kind renders the event as "<entity>.<change>" for logs and metrics.
func (e ChangeEvent) Kind() string {
	return string(e.Entity) + "." + string(e.Change)
}

// Validate checks the tagged-record invariant.
func (e ChangeEvent) Validate() error {
	switch e.Entity {
	case EntityLead:
		if e.Lead == nil || e.Message != nil {
			return fmt.Errorf("lead event must carry only a lead payload")
		}
	case EntityMessage:
		if e.Message == nil || e.Lead != nil {
			return fmt.Errorf("message event must carry only a message payload")
		}
	default:
		return fmt.Errorf("unknown entity kind %q", e.Entity)
	}
	switch e.Change {
	case ChangeCreated, ChangeUpdated, ChangeDeleted:
	default:
		return fmt.Errorf("unknown change kind %q", e.Change)
	}
	return nil
}
