package model

import "time"

type MessageRole string

const (
	MessageRoleUser  MessageRole = "user"
	MessageRoleAgent MessageRole = "agent"
)

func (r MessageRole) Valid() bool {
	return r == MessageRoleUser || r == MessageRoleAgent
}

// Message is one dialogue turn. Messages are append-only.
type Message struct {
	ID        int64       `json:"id,string"`
	LeadID    int64       `json:"lead_id,string"`
	Role      MessageRole `json:"role"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
}
