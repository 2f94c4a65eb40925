package keywords

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpander_HomophoneVariant(t *testing.T) {
	e := NewExpander()
	set := e.Expand([]string{"清真食堂"})

	if _, ok := set["清真食堂"]; !ok {
		t.Error("expanded set should contain the original keyword")
	}
	if _, ok := set["清蒸食堂"]; !ok {
		t.Error("expanded set should contain the 清蒸 variant")
	}
	if len(set) < 2 {
		t.Errorf("expected at least 2 keywords, got %d", len(set))
	}
}

func TestExpander_SupersetOfInput(t *testing.T) {
	e := NewExpander()
	input := []string{"选课", "宿舍", "图书馆", "维修"}
	set := e.Expand(input)

	for _, kw := range input {
		if _, ok := set[kw]; !ok {
			t.Errorf("base keyword %q missing from expanded set", kw)
		}
	}
}

func TestExpander_MultipleVariants(t *testing.T) {
	e := NewExpander()
	set := e.Expand([]string{"选课"})

	for _, want := range []string{"选课", "改选", "退选"} {
		if _, ok := set[want]; !ok {
			t.Errorf("expected %q in expanded set", want)
		}
	}
}

func TestExpander_NoFragmentMatch(t *testing.T) {
	e := NewExpander()
	set := e.Expand([]string{"宿舍"})

	if len(set) != 1 {
		t.Errorf("keyword without fragments should not expand, got %d entries", len(set))
	}
}

func TestExpander_Deterministic(t *testing.T) {
	e := NewExpander()
	a := e.Expand([]string{"清真食堂", "选课", "讲座"})
	b := e.Expand([]string{"清真食堂", "选课", "讲座"})

	if len(a) != len(b) {
		t.Fatalf("set sizes differ: %d vs %d", len(a), len(b))
	}
	for kw := range a {
		if _, ok := b[kw]; !ok {
			t.Errorf("%q present in first result but not second", kw)
		}
	}
}

func TestExpander_Deduplicates(t *testing.T) {
	e := NewExpander()
	set := e.Expand([]string{"食堂", "食堂"})

	if len(set) != 1 {
		t.Errorf("duplicate inputs should collapse, got %d entries", len(set))
	}
}

func TestExpanderFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.yaml")
	os.WriteFile(path, []byte("cafeteria: [dining hall]\n"), 0644)

	e, err := NewExpanderFromFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	set := e.Expand([]string{"cafeteria hours"})
	if _, ok := set["dining hall hours"]; !ok {
		t.Error("expected substituted keyword from external table")
	}
}

func TestExpanderFromFile_Missing(t *testing.T) {
	if _, err := NewExpanderFromFile("/nonexistent/table.yaml"); err == nil {
		t.Error("should error on missing table file")
	}
}
