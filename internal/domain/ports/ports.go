// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"
	"fmt"

	"github.com/hzyuan/campusqa-go/internal/domain/entities"
)

// CompletionOptions holds per-request options for a completion call.
type CompletionOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// CompletionService turns an ordered message list into a generated answer.
// Failures are reported as *EndpointError so callers can branch on the kind
// instead of inspecting error text. A single attempt per call; retry policy,
// if any, belongs to the caller.
type CompletionService interface {
	Complete(ctx context.Context, messages []entities.ChatMessage, opts CompletionOptions) (string, error)
}

// EndpointErrorKind classifies completion endpoint failures.
type EndpointErrorKind int

const (
	EndpointAuth EndpointErrorKind = iota
	EndpointConnectivity
	EndpointRateLimit
	EndpointOther
)

// String returns the error kind label.
func (k EndpointErrorKind) String() string {
	switch k {
	case EndpointAuth:
		return "auth"
	case EndpointConnectivity:
		return "connectivity"
	case EndpointRateLimit:
		return "rate_limit"
	default:
		return "other"
	}
}

// EndpointError is a typed completion endpoint failure.
type EndpointError struct {
	Kind EndpointErrorKind
	Err  error
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("completion endpoint (%s): %v", e.Kind, e.Err)
}

func (e *EndpointError) Unwrap() error { return e.Err }

// TopicCatalog is the registry of curated topics with lazily loaded content.
// Get and All trigger content loads for topics not yet loaded; a missing
// backing document is not an error, it degrades to an unloaded snapshot.
type TopicCatalog interface {
	// Get looks up a topic by id, case-insensitively.
	Get(id string) (entities.Topic, bool)

	// All returns every topic in catalog order, loading content as needed.
	All() []entities.Topic

	// List returns every topic definition in catalog order without
	// touching content (used for listings and menus).
	List() []entities.TopicDefinition

	// MatchTopics returns the ids of topics whose expanded keyword set
	// matches the normalized query text. The match direction is "query
	// text found inside a keyword", so short queries match broadly and
	// multi-word queries may not match at all.
	MatchTopics(text string) []string
}

// ChatLogStore is an append-only record of query/response exchanges.
type ChatLogStore interface {
	Append(ctx context.Context, rec entities.ChatRecord) (int64, error)

	// Recent returns up to limit records for a user, newest first.
	Recent(ctx context.Context, username string, limit int) ([]entities.ChatRecord, error)
}

// UserStore holds account credentials and preferences.
type UserStore interface {
	// Create registers a new account. Returns ErrUserExists (from the
	// implementing package) when the username is taken.
	Create(ctx context.Context, username, password string) error

	// Verify checks credentials. A wrong password or unknown user is
	// (false, nil), not an error.
	Verify(ctx context.Context, username, password string) (bool, error)

	Preferences(ctx context.Context, username string) (entities.Preferences, error)
	SetPreferences(ctx context.Context, username string, prefs entities.Preferences) error
}

// TopicWatcher monitors the topic document directory for changes.
type TopicWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
