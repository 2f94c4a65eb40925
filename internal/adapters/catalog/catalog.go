// Package catalog provides the topic registry with lazily loaded document content.
// Clean Architecture: Adapter implementing ports.TopicCatalog.
package catalog

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hzyuan/campusqa-go/internal/adapters/keywords"
	"github.com/hzyuan/campusqa-go/internal/domain/entities"
)

// topicTable is the fixed set of topic definitions. Reference data, not user
// data: the same set every run, in this order.
var topicTable = []entities.TopicDefinition{
	{
		ID:           "academic",
		DisplayName:  "学术资源",
		Keywords:     []string{"图书馆", "学术支持", "学习资源", "文献", "数据库"},
		DocumentPath: "data/topics/Academic_Resources.md",
		Description:  "图书馆、学术支持、学习资源等相关信息",
	},
	{
		ID:           "life_services",
		DisplayName:  "基础生活服务",
		Keywords:     []string{"宿舍", "洗衣", "水电", "维修", "保洁"},
		DocumentPath: "data/topics/Basic_Life_Services.md",
		Description:  "宿舍、洗衣、水电等基础生活服务信息",
	},
	{
		ID:           "activities",
		DisplayName:  "校园活动",
		Keywords:     []string{"社团", "活动", "讲座", "比赛", "晚会"},
		DocumentPath: "data/topics/Campus_Activities_and_Events.md",
		Description:  "社团活动、讲座、比赛等校园活动信息",
	},
	{
		ID:           "dining",
		DisplayName:  "餐饮选项",
		Keywords:     []string{"食堂", "清真食堂", "餐厅", "外卖", "美食", "营业时间"},
		DocumentPath: "data/topics/Campus_and_Nearby_Dining_Options.md",
		Description:  "食堂、周边餐厅、外卖等餐饮信息",
	},
	{
		ID:           "navigation",
		DisplayName:  "校园导航",
		Keywords:     []string{"地图", "建筑", "设施", "位置", "导航"},
		DocumentPath: "data/topics/Campus_Navigation_and_Facilities.md",
		Description:  "校园地图、建筑位置、设施使用等信息",
	},
	{
		ID:           "policies",
		DisplayName:  "校园政策",
		Keywords:     []string{"规定", "安全", "紧急", "违纪", "申诉"},
		DocumentPath: "data/topics/Campus_Policies_and_Safety.md",
		Description:  "校园规定、安全事项、紧急处理等信息",
	},
	{
		ID:           "courses",
		DisplayName:  "选课指南",
		Keywords:     []string{"选课", "课程", "学分", "退选", "改选"},
		DocumentPath: "data/topics/Course_Selection_Guide.md",
		Description:  "选课流程、课程评价、学分要求等信息",
	},
	{
		ID:           "contacts",
		DisplayName:  "重要联系方式",
		Keywords:     []string{"电话", "办公", "部门", "紧急", "联系"},
		DocumentPath: "data/topics/Important_Contact_Numbers.md",
		Description:  "重要电话、办公部门联系方式等信息",
	},
	{
		ID:           "procedures",
		DisplayName:  "办事流程",
		Keywords:     []string{"申请", "流程", "手续", "审批", "备案"},
		DocumentPath: "data/topics/Procedures_and_Processes.md",
		Description:  "各类申请流程、手续办理等信息",
	},
	{
		ID:           "transportation",
		DisplayName:  "周边交通",
		Keywords:     []string{"公交", "地铁", "校车", "共享单车", "电动车"},
		DocumentPath: "data/topics/Surrounding_Transportation.md",
		Description:  "公交、地铁、校车等交通信息",
	},
}

// topicState pairs a definition with its content state and the expanded
// keyword set derived from its base keywords.
type topicState struct {
	def      entities.TopicDefinition
	expanded map[string]struct{}
	content  string
	loaded   bool
}

// Catalog implements ports.TopicCatalog over a base directory of UTF-8
// markdown documents. Content loads lazily on first access; a missing file
// degrades to an unloaded snapshot and is retried on later access.
// Safe for concurrent reads; concurrent first loads of the same topic are a
// benign race (idempotent re-read of the same file).
type Catalog struct {
	baseDir string

	mu     sync.RWMutex
	topics map[string]*topicState
	order  []string
}

// New builds the catalog from the fixed topic table. Expanded keyword sets
// are derived once here; content is not touched until first access.
func New(baseDir string, expander *keywords.Expander) *Catalog {
	c := &Catalog{
		baseDir: baseDir,
		topics:  make(map[string]*topicState, len(topicTable)),
	}
	for _, def := range topicTable {
		c.topics[def.ID] = &topicState{
			def:      def,
			expanded: expander.Expand(def.Keywords),
		}
		c.order = append(c.order, def.ID)
	}
	return c
}

// Get looks up a topic by id, case-insensitively, loading content if needed.
func (c *Catalog) Get(id string) (entities.Topic, bool) {
	st, ok := c.topics[strings.ToLower(id)]
	if !ok {
		return entities.Topic{}, false
	}
	c.ensureLoaded(st)
	return c.snapshot(st), true
}

// All returns every topic in catalog order, loading any still unloaded.
func (c *Catalog) All() []entities.Topic {
	out := make([]entities.Topic, 0, len(c.order))
	for _, id := range c.order {
		st := c.topics[id]
		c.ensureLoaded(st)
		out = append(out, c.snapshot(st))
	}
	return out
}

// List returns the topic definitions in catalog order without loading content.
func (c *Catalog) List() []entities.TopicDefinition {
	out := make([]entities.TopicDefinition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.topics[id].def)
	}
	return out
}

// MatchTopics returns ids of topics where the normalized query text appears
// inside any expanded keyword. Note the direction: the query is searched for
// inside the keyword, not the reverse, so multi-word queries that are a
// superset of a keyword do not match.
func (c *Catalog) MatchTopics(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}
	var matched []string
	for _, id := range c.order {
		for kw := range c.topics[id].expanded {
			if strings.Contains(strings.ToLower(kw), text) {
				matched = append(matched, id)
				break
			}
		}
	}
	return matched
}

// Reload re-reads the document backing the given path (as emitted by the
// topic watcher) and replaces the topic's content state. A failed read keeps
// whatever content was loaded before.
func (c *Catalog) Reload(path string) {
	name := filepath.Base(path)
	for _, id := range c.order {
		st := c.topics[id]
		if filepath.Base(st.def.DocumentPath) != name {
			continue
		}
		data, err := os.ReadFile(c.documentPath(st))
		if err != nil {
			slog.Warn("topic document reload failed",
				slog.String("topic", id),
				slog.String("error", err.Error()))
			return
		}
		c.mu.Lock()
		st.content = string(data)
		st.loaded = true
		c.mu.Unlock()
		slog.Debug("topic document reloaded", slog.String("topic", id))
		return
	}
}

func (c *Catalog) documentPath(st *topicState) string {
	return filepath.Join(c.baseDir, filepath.FromSlash(st.def.DocumentPath))
}

func (c *Catalog) ensureLoaded(st *topicState) {
	c.mu.RLock()
	loaded := st.loaded
	c.mu.RUnlock()
	if loaded {
		return
	}

	path := c.documentPath(st)
	data, err := os.ReadFile(path)
	if err != nil {
		// Not fatal: the topic degrades to empty content and the next
		// access retries the read.
		slog.Warn("topic document unavailable",
			slog.String("topic", st.def.ID),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	c.mu.Lock()
	st.content = string(data)
	st.loaded = true
	c.mu.Unlock()
}

func (c *Catalog) snapshot(st *topicState) entities.Topic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return entities.Topic{
		TopicDefinition: st.def,
		Content:         st.content,
		Loaded:          st.loaded,
	}
}
