package audit

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestScope(t *testing.T) {
	ctx, s := WithScope(context.Background())

	if ScopeFromContext(ctx) != s {
		t.Fatal("scope not found in context")
	}
	if ScopeFromContext(context.Background()) != nil {
		t.Error("expected nil scope for bare context")
	}

	s.SetAction(ActionClassify)
	s.Annotate(map[string]any{MetaVertices: 3})
	s.Annotate(map[string]any{MetaAlgorithm: "bfs"})

	if s.Action() != ActionClassify {
		t.Errorf("Action() = %s", s.Action())
	}

	meta := s.Metadata()
	meta[MetaVertices] = 99
	if got := s.Metadata()[MetaVertices]; got != 3 {
		t.Errorf("Metadata() must return a copy, got %v", got)
	}
	if len(meta) != 2 {
		t.Errorf("expected 2 metadata keys, got %d", len(meta))
	}
}

func TestRecord_WithScope(t *testing.T) {
	original := Get()
	t.Cleanup(func() { SetGlobal(original) })

	var buf bytes.Buffer
	SetGlobal(NewWriterLogger(&Config{Enabled: true}, &buf))

	ctx, s := WithScope(context.Background())
	if err := Record(ctx, NewEntry(), ActionSolve, map[string]any{MetaRoutes: 2}); err != nil {
		t.Fatal(err)
	}

	if buf.Len() != 0 {
		t.Errorf("scoped record must not write an entry, got %q", buf.String())
	}
	if s.Action() != ActionSolve || s.Metadata()[MetaRoutes] != 2 {
		t.Errorf("scope not annotated: %s %v", s.Action(), s.Metadata())
	}
}

func TestRecord_Standalone(t *testing.T) {
	original := Get()
	t.Cleanup(func() { SetGlobal(original) })

	var buf bytes.Buffer
	SetGlobal(NewWriterLogger(&Config{Enabled: true}, &buf))

	b := NewEntry().Service("console").Outcome(OutcomeSuccess)
	if err := Record(context.Background(), b, ActionReadMatrix, map[string]any{MetaPath: "in.txt"}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, `"action":"READ_MATRIX"`) || !strings.Contains(out, `"path":"in.txt"`) {
		t.Errorf("unexpected entry: %q", out)
	}
}
