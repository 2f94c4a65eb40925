package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hzyuan/campusqa-go/internal/domain/entities"
	"github.com/hzyuan/campusqa-go/internal/domain/ports"
)

// Fixed user-facing replies. These are stable sentinels: failures are
// absorbed here and converted to plain text, never surfaced as errors.
const (
	NotFoundReply     = "找不到相关信息，请尝试其他查询"
	AuthFailedReply   = "API认证失败，请检查配置"
	NetworkReply      = "网络连接失败，请检查网络设置"
	RateLimitedReply  = "请求过于频繁，请稍后再试"
	ServiceDownReply  = "服务暂时不可用"
	notFoundMarker    = "找不到"
	defaultModel      = "gpt-4o-mini"
	completionTemp    = 0.5
	completionMaxToks = 5000
)

const systemPromptTemplate = `你是一个专业的校园助手，请根据以下信息回答问题：

%s

回答要求:
1. 严格遵循文档内容,若文档中找不到则返回找不到相关信息
2. 简洁明了(3-5句话)
3. 使用与问题相同的语言
4. 如涉及流程，分步骤说明
5. 结合对话历史上下文进行回答`

// ResponseComposer assembles the completion prompt from topic documents and
// history, invokes the endpoint once and applies the fallback policy.
type ResponseComposer struct {
	catalog    ports.TopicCatalog
	completion ports.CompletionService
	model      string
}

// NewResponseComposer creates a composer with injected dependencies.
func NewResponseComposer(catalog ports.TopicCatalog, completion ports.CompletionService, model string) *ResponseComposer {
	if model == "" {
		model = defaultModel
	}
	return &ResponseComposer{
		catalog:    catalog,
		completion: completion,
		model:      model,
	}
}

// Compose resolves the document set, builds the message sequence and returns
// the answer text. It always returns a string; every failure kind maps to a
// fixed reply.
func (rc *ResponseComposer) Compose(ctx context.Context, query, topicID string, history []entities.ChatMessage) string {
	docs := rc.resolveDocs(topicID)
	if len(docs) == 0 {
		return NotFoundReply
	}

	// Any selected topic without usable content invalidates the whole
	// retrieval, not just that topic.
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			slog.Debug("topic content empty, returning not-found reply",
				slog.String("topic", doc.ID))
			return NotFoundReply
		}
	}

	messages := rc.buildMessages(query, docs, history)

	answer, err := rc.completion.Complete(ctx, messages, ports.CompletionOptions{
		Model:       rc.model,
		Temperature: completionTemp,
		MaxTokens:   completionMaxToks,
	})
	if err != nil {
		slog.Warn("completion call failed", slog.String("error", err.Error()))
		return replyForError(err)
	}

	if answer == "" || strings.Contains(answer, notFoundMarker) {
		// Grounded fallback: the user always gets document text rather
		// than a bare failure.
		return documentExcerpt(docs[0].Content)
	}
	return answer
}

// resolveDocs returns the single requested topic, or every topic when no
// filter is given. An unknown id yields an empty set.
func (rc *ResponseComposer) resolveDocs(topicID string) []entities.Topic {
	if topicID != "" {
		topic, ok := rc.catalog.Get(topicID)
		if !ok {
			return nil
		}
		return []entities.Topic{topic}
	}
	return rc.catalog.All()
}

// buildMessages produces [system instruction] + history + [query as user turn].
func (rc *ResponseComposer) buildMessages(query string, docs []entities.Topic, history []entities.ChatMessage) []entities.ChatMessage {
	sections := make([]string, len(docs))
	for i, doc := range docs {
		sections[i] = fmt.Sprintf("## %s\n%s\n%s", doc.DisplayName, doc.Description, doc.Content)
	}
	contextBlock := strings.Join(sections, "\n\n")

	messages := make([]entities.ChatMessage, 0, len(history)+2)
	messages = append(messages, entities.ChatMessage{
		Role:    entities.RoleSystem,
		Content: fmt.Sprintf(systemPromptTemplate, contextBlock),
	})
	messages = append(messages, history...)
	messages = append(messages, entities.ChatMessage{
		Role:    entities.RoleUser,
		Content: query,
	})
	return messages
}

// documentExcerpt returns the first line of the content, a blank line, then
// the next three lines.
func documentExcerpt(content string) string {
	lines := strings.Split(content, "\n")
	rest := lines[1:]
	if len(rest) > 3 {
		rest = rest[:3]
	}
	return lines[0] + "\n\n" + strings.Join(rest, "\n")
}

// replyForError maps a typed endpoint failure to its fixed reply. Anything
// that is not an *EndpointError gets the generic reply.
func replyForError(err error) string {
	var ep *ports.EndpointError
	if !errors.As(err, &ep) {
		return ServiceDownReply
	}
	switch ep.Kind {
	case ports.EndpointAuth:
		return AuthFailedReply
	case ports.EndpointConnectivity:
		return NetworkReply
	case ports.EndpointRateLimit:
		return RateLimitedReply
	default:
		return ServiceDownReply
	}
}
