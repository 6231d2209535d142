package normalize

import "time"

// Source identifies the webhook provider an event came from
type Source string

// Known sources
const (
	SourceGitHub Source = "github"
	SourceLinear Source = "linear"
	SourceSlack  Source = "slack"
)

// Valid reports whether s is a recognized provider
func (s Source) Valid() bool {
	switch s {
	case SourceGitHub, SourceLinear, SourceSlack:
		return true
	}
	return false
}

// ParseSource maps a path or config token to a Source
func ParseSource(s string) (Source, bool) {
	src := Source(s)
	return src, src.Valid()
}

// Event is the canonical record of one webhook delivery
// created once at normalization time and never mutated after
type Event struct {
	ID     string `json:"id,omitempty"`
	Source Source `json:"source"`

	EventType    string `json:"event_type"`
	RawEventType string `json:"raw_event_type,omitempty"`
	Action       string `json:"action,omitempty"`

	// Payload keeps the provider's original decoded body
	Payload map[string]any `json:"payload,omitempty"`

	Repository     string `json:"repository,omitempty"`
	RepositoryID   string `json:"repository_id,omitempty"`
	Organization   string `json:"organization,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`

	Actor      string `json:"actor,omitempty"`
	ActorID    string `json:"actor_id,omitempty"`
	ActorType  string `json:"actor_type,omitempty"`
	ActorEmail string `json:"actor_email,omitempty"`

	Channel     string `json:"channel,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	ChannelType string `json:"channel_type,omitempty"`

	TargetEntity     string `json:"target_entity,omitempty"`
	TargetEntityID   string `json:"target_entity_id,omitempty"`
	TargetEntityType string `json:"target_entity_type,omitempty"`

	DeliveryID string `json:"delivery_id,omitempty"`
	WebhookID  string `json:"webhook_id,omitempty"`

	// EventHash is the persisted dedup key, stamped after normalization
	EventHash string `json:"event_hash,omitempty"`

	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}
