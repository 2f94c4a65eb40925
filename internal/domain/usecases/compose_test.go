package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hzyuan/campusqa-go/internal/domain/entities"
	"github.com/hzyuan/campusqa-go/internal/domain/ports"
)

// mockCatalog implements ports.TopicCatalog for testing.
type mockCatalog struct {
	topics  map[string]entities.Topic
	order   []string
	matches []string
	gotText string
}

func (m *mockCatalog) Get(id string) (entities.Topic, bool) {
	t, ok := m.topics[strings.ToLower(id)]
	return t, ok
}

func (m *mockCatalog) All() []entities.Topic {
	out := make([]entities.Topic, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.topics[id])
	}
	return out
}

func (m *mockCatalog) List() []entities.TopicDefinition {
	out := make([]entities.TopicDefinition, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.topics[id].TopicDefinition)
	}
	return out
}

func (m *mockCatalog) MatchTopics(text string) []string {
	m.gotText = text
	return m.matches
}

// mockCompletion implements ports.CompletionService and captures the call.
type mockCompletion struct {
	response    string
	err         error
	calls       int
	gotMessages []entities.ChatMessage
	gotOpts     ports.CompletionOptions
}

func (m *mockCompletion) Complete(ctx context.Context, messages []entities.ChatMessage, opts ports.CompletionOptions) (string, error) {
	m.calls++
	m.gotMessages = messages
	m.gotOpts = opts
	return m.response, m.err
}

func diningTopic(content string) entities.Topic {
	return entities.Topic{
		TopicDefinition: entities.TopicDefinition{
			ID:          "dining",
			DisplayName: "餐饮选项",
			Description: "食堂、周边餐厅、外卖等餐饮信息",
		},
		Content: content,
		Loaded:  content != "",
	}
}

func TestCompose_UnknownTopicReturnsNotFound(t *testing.T) {
	catalog := &mockCatalog{topics: map[string]entities.Topic{}}
	llm := &mockCompletion{response: "should not be used"}
	rc := NewResponseComposer(catalog, llm, "")

	got := rc.Compose(context.Background(), "食堂几点开门", "no-such-topic", nil)

	if got != NotFoundReply {
		t.Errorf("expected not-found reply, got %q", got)
	}
	if llm.calls != 0 {
		t.Error("completion should not be called for unknown topics")
	}
}

func TestCompose_EmptyContentReturnsNotFound(t *testing.T) {
	catalog := &mockCatalog{
		topics: map[string]entities.Topic{"dining": diningTopic("   \n  ")},
	}
	llm := &mockCompletion{}
	rc := NewResponseComposer(catalog, llm, "")

	got := rc.Compose(context.Background(), "食堂几点开门", "dining", nil)

	if got != NotFoundReply {
		t.Errorf("expected not-found reply, got %q", got)
	}
}

func TestCompose_AnyEmptyTopicInvalidatesAllTopicsQuery(t *testing.T) {
	catalog := &mockCatalog{
		topics: map[string]entities.Topic{
			"dining":  diningTopic("食堂信息"),
			"courses": {TopicDefinition: entities.TopicDefinition{ID: "courses", DisplayName: "选课指南"}},
		},
		order: []string{"dining", "courses"},
	}
	llm := &mockCompletion{}
	rc := NewResponseComposer(catalog, llm, "")

	got := rc.Compose(context.Background(), "选课流程", "", nil)

	if got != NotFoundReply {
		t.Errorf("one empty topic should invalidate the whole retrieval, got %q", got)
	}
	if llm.calls != 0 {
		t.Error("completion should not be called when any topic is empty")
	}
}

func TestCompose_ReturnsAnswerVerbatim(t *testing.T) {
	catalog := &mockCatalog{
		topics: map[string]entities.Topic{"dining": diningTopic("第一食堂 7:00-21:00")},
	}
	llm := &mockCompletion{response: "第一食堂早上七点开门。"}
	rc := NewResponseComposer(catalog, llm, "")

	got := rc.Compose(context.Background(), "食堂几点开门", "dining", nil)

	if got != "第一食堂早上七点开门。" {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestCompose_EmptyAnswerFallsBackToExcerpt(t *testing.T) {
	catalog := &mockCatalog{
		topics: map[string]entities.Topic{
			"dining": diningTopic("Line1\nLine2\nLine3\nLine4\nLine5"),
		},
	}
	llm := &mockCompletion{response: ""}
	rc := NewResponseComposer(catalog, llm, "")

	got := rc.Compose(context.Background(), "食堂", "dining", nil)

	want := "Line1\n\nLine2\nLine3\nLine4"
	if got != want {
		t.Errorf("fallback excerpt mismatch:\ngot  %q\nwant %q", got, want)
	}
}

func TestCompose_NotFoundMarkerFallsBackToExcerpt(t *testing.T) {
	catalog := &mockCatalog{
		topics: map[string]entities.Topic{
			"dining": diningTopic("Line1\nLine2\nLine3\nLine4\nLine5"),
		},
	}
	llm := &mockCompletion{response: "抱歉，文档中找不到相关信息。"}
	rc := NewResponseComposer(catalog, llm, "")

	got := rc.Compose(context.Background(), "食堂", "dining", nil)

	if got != "Line1\n\nLine2\nLine3\nLine4" {
		t.Errorf("marker answer should trigger fallback, got %q", got)
	}
}

func TestCompose_FallbackWithShortDocument(t *testing.T) {
	catalog := &mockCatalog{
		topics: map[string]entities.Topic{"dining": diningTopic("OnlyLine")},
	}
	llm := &mockCompletion{response: ""}
	rc := NewResponseComposer(catalog, llm, "")

	got := rc.Compose(context.Background(), "食堂", "dining", nil)

	if got != "OnlyLine\n\n" {
		t.Errorf("single-line fallback mismatch, got %q", got)
	}
}

func TestCompose_EndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"auth", &ports.EndpointError{Kind: ports.EndpointAuth, Err: errors.New("401")}, AuthFailedReply},
		{"connectivity", &ports.EndpointError{Kind: ports.EndpointConnectivity, Err: errors.New("refused")}, NetworkReply},
		{"rate limit", &ports.EndpointError{Kind: ports.EndpointRateLimit, Err: errors.New("429")}, RateLimitedReply},
		{"other", &ports.EndpointError{Kind: ports.EndpointOther, Err: errors.New("500")}, ServiceDownReply},
		{"untyped", errors.New("boom"), ServiceDownReply},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := &mockCatalog{
				topics: map[string]entities.Topic{"dining": diningTopic("有效内容")},
			}
			llm := &mockCompletion{err: tc.err}
			rc := NewResponseComposer(catalog, llm, "")

			got := rc.Compose(context.Background(), "有效查询", "dining", nil)
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCompose_MessageSequence(t *testing.T) {
	catalog := &mockCatalog{
		topics: map[string]entities.Topic{"dining": diningTopic("第一食堂 7:00-21:00")},
	}
	llm := &mockCompletion{response: "ok"}
	rc := NewResponseComposer(catalog, llm, "")

	history := []entities.ChatMessage{
		{Role: entities.RoleUser, Content: "之前的问题"},
		{Role: entities.RoleAssistant, Content: "之前的回答"},
	}
	rc.Compose(context.Background(), "食堂几点开门", "dining", history)

	msgs := llm.gotMessages
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[0].Role != entities.RoleSystem {
		t.Errorf("first message should be the system instruction, got role %s", msgs[0].Role)
	}
	for _, fragment := range []string{"## 餐饮选项", "食堂、周边餐厅、外卖等餐饮信息", "第一食堂 7:00-21:00"} {
		if !strings.Contains(msgs[0].Content, fragment) {
			t.Errorf("system instruction missing %q", fragment)
		}
	}
	if msgs[1].Content != "之前的问题" || msgs[2].Content != "之前的回答" {
		t.Error("history should follow the system instruction in original order")
	}
	if msgs[3].Role != entities.RoleUser || msgs[3].Content != "食堂几点开门" {
		t.Errorf("last message should be the current query, got %+v", msgs[3])
	}
}

func TestCompose_CompletionOptions(t *testing.T) {
	catalog := &mockCatalog{
		topics: map[string]entities.Topic{"dining": diningTopic("内容")},
	}
	llm := &mockCompletion{response: "ok"}
	rc := NewResponseComposer(catalog, llm, "test-model")

	rc.Compose(context.Background(), "食堂", "dining", nil)

	if llm.gotOpts.Model != "test-model" {
		t.Errorf("unexpected model: %s", llm.gotOpts.Model)
	}
	if llm.gotOpts.Temperature != 0.5 {
		t.Errorf("unexpected temperature: %v", llm.gotOpts.Temperature)
	}
	if llm.gotOpts.MaxTokens != 5000 {
		t.Errorf("unexpected max tokens: %d", llm.gotOpts.MaxTokens)
	}
}

func TestCompose_ContextBlockOrder(t *testing.T) {
	catalog := &mockCatalog{
		topics: map[string]entities.Topic{
			"a": {TopicDefinition: entities.TopicDefinition{ID: "a", DisplayName: "甲"}, Content: "甲内容", Loaded: true},
			"b": {TopicDefinition: entities.TopicDefinition{ID: "b", DisplayName: "乙"}, Content: "乙内容", Loaded: true},
		},
		order: []string{"a", "b"},
	}
	llm := &mockCompletion{response: "ok"}
	rc := NewResponseComposer(catalog, llm, "")

	rc.Compose(context.Background(), "查询", "", nil)

	system := llm.gotMessages[0].Content
	ia := strings.Index(system, "## 甲")
	ib := strings.Index(system, "## 乙")
	if ia < 0 || ib < 0 || ia > ib {
		t.Errorf("documents should appear in catalog order, got indices %d and %d", ia, ib)
	}
}
