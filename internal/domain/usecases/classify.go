// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
package usecases

import (
	"strings"

	"github.com/hzyuan/campusqa-go/internal/domain/entities"
	"github.com/hzyuan/campusqa-go/internal/domain/ports"
)

// greetingPhrases trigger the GREETING intent when they appear anywhere in
// the normalized query (containment, not exact match).
var greetingPhrases = []string{"你好", "hi", "hello", "早上好", "下午好", "晚上好"}

// IntentClassifier labels a raw query as greeting, topic match or unknown.
// State-free and deterministic given the fixed tables.
type IntentClassifier struct {
	catalog ports.TopicCatalog
}

// NewIntentClassifier creates a classifier over the given catalog.
func NewIntentClassifier(catalog ports.TopicCatalog) *IntentClassifier {
	return &IntentClassifier{catalog: catalog}
}

// Classify returns the intent for a raw query. The normalized form is used
// only for matching and never returned to the caller.
func (c *IntentClassifier) Classify(query string) entities.Intent {
	text := normalize(query)

	for _, g := range greetingPhrases {
		if strings.Contains(text, g) {
			return entities.Intent{Kind: entities.IntentGreeting, Confidence: 1.0}
		}
	}

	if len(c.catalog.MatchTopics(text)) > 0 {
		return entities.Intent{Kind: entities.IntentTopicMatch, Confidence: 0.8}
	}

	return entities.Intent{Kind: entities.IntentUnknown, Confidence: 0.0}
}

func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
