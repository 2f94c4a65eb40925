package usecases

import (
	"context"

	"github.com/hzyuan/campusqa-go/internal/domain/entities"
)

// maxHistoryTurns bounds the recent-turn window forwarded to the composer.
const maxHistoryTurns = 10

// cannedReplies maps an exactly-matching normalized phrase to its reply.
// Note the asymmetry with classification: a greeting phrase anywhere in the
// query classifies as GREETING, but only an exact table key gets its specific
// reply; everything else falls back to the default.
var cannedReplies = map[string]string{
	"你好":     "你好！我是校园助手，有什么可以帮你的吗？",
	"hi":     "Hi! 我是校园助手，有什么可以帮你的吗？",
	"hello":  "Hello! 我是校园助手，有什么可以帮你的吗？",
	"谢谢":     "不客气，很高兴能帮到你！",
	"thanks": "You're welcome! Glad to help!",
	"再见":     "再见，祝你学习愉快！",
	"拜拜":     "拜拜，有问题随时来找我哦~",
}

const defaultGreetingReply = "你好！有什么可以帮你的吗？"

// QueryResolver dispatches a query to a canned greeting reply or to the
// response composer. Stateless: each call is independent apart from the
// caller-supplied history.
type QueryResolver struct {
	classifier *IntentClassifier
	composer   *ResponseComposer
}

// NewQueryResolver creates the orchestrator.
func NewQueryResolver(classifier *IntentClassifier, composer *ResponseComposer) *QueryResolver {
	return &QueryResolver{classifier: classifier, composer: composer}
}

// Resolve classifies the query and returns the final answer text. It never
// fails: every error kind has already been converted to a fixed reply by the
// time it returns.
func (r *QueryResolver) Resolve(ctx context.Context, query, topicID string, history []entities.ChatMessage) string {
	intent := r.classifier.Classify(query)

	if intent.Kind == entities.IntentGreeting {
		if reply, ok := cannedReplies[normalize(query)]; ok {
			return reply
		}
		return defaultGreetingReply
	}

	// Truncation is the orchestrator's job, not the composer's.
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	return r.composer.Compose(ctx, query, topicID, history)
}
