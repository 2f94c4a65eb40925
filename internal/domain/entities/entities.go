// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "time"

// TopicDefinition is the immutable identity of a curated topic: what it is
// called, which keywords select it and which document backs it.
type TopicDefinition struct {
	ID           string
	DisplayName  string
	Keywords     []string // base keywords, before homophone expansion
	DocumentPath string   // relative to the catalog base directory, slash-separated
	Description  string
}

// Topic is a read snapshot of a definition plus its content state.
// Content is either the full document text (Loaded true) or empty
// (not yet loaded, or the backing file is unavailable).
type Topic struct {
	TopicDefinition
	Content string
	Loaded  bool
}

// IntentKind labels what kind of query was submitted.
type IntentKind int

const (
	IntentGreeting IntentKind = iota
	IntentTopicMatch
	IntentUnknown
)

// String returns the intent kind label.
func (k IntentKind) String() string {
	switch k {
	case IntentGreeting:
		return "GREETING"
	case IntentTopicMatch:
		return "TOPIC_MATCH"
	default:
		return "UNKNOWN"
	}
}

// Intent is the classifier's per-query verdict. Confidence is in [0, 1].
type Intent struct {
	Kind       IntentKind
	Confidence float64
}

// Message roles for completion calls and conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a conversation turn.
type ChatMessage struct {
	Role    string // RoleSystem, RoleUser or RoleAssistant
	Content string
}

// ChatRecord is one persisted query/response exchange.
type ChatRecord struct {
	ID        int64
	Username  string
	Query     string
	Response  string
	Topic     string // topic id the user had selected, empty for all-topics queries
	CreatedAt time.Time
}

// Preferences holds per-user settings, stored as a JSON blob.
type Preferences struct {
	Language     string `json:"language"`
	Notification bool   `json:"notification"`
}

// DefaultPreferences returns the preferences assigned to new accounts.
func DefaultPreferences() Preferences {
	return Preferences{Language: "zh", Notification: true}
}
