package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	datasourcedomain "collabboard/backend/internal/datasource/domain"
	datasourcesvc "collabboard/backend/internal/datasource/service"
)

type fakeCompleter struct {
	lastSystem string
	lastUser   string
	reply      string
	err        error
}

func (c *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	c.lastSystem = system
	c.lastUser = user
	return c.reply, c.err
}

type fakeGetter struct {
	ds *datasourcedomain.DataSource
}

func (g *fakeGetter) Get(_ context.Context, userID, id int64) (*datasourcedomain.DataSource, error) {
	if g.ds == nil || g.ds.ID != id {
		return nil, datasourcesvc.ErrNotFound
	}
	return g.ds, nil
}

func testDataSource() *datasourcedomain.DataSource {
	return &datasourcedomain.DataSource{
		ID:          1,
		DashboardID: 1,
		Name:        "revenue.csv",
		Type:        datasourcedomain.TypeCSV,
		Data:        []byte(`[{"month":"Jan","revenue":100},{"month":"Feb","revenue":200}]`),
		Metadata:    []byte(`{"columns":["month","revenue"],"rowCount":2}`),
	}
}

func TestQueryBuildsPrompt(t *testing.T) {
	completer := &fakeCompleter{reply: `{"answer":"revenue doubled"}`}
	svc := NewAIService(completer, &fakeGetter{ds: testDataSource()}, nil)

	out, err := svc.Query(context.Background(), 10, 1, "how did revenue change?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if string(out) != `{"answer":"revenue doubled"}` {
		t.Fatalf("out = %s", out)
	}
	if !strings.Contains(completer.lastUser, "how did revenue change?") {
		t.Fatalf("question missing from prompt: %s", completer.lastUser)
	}
	if !strings.Contains(completer.lastUser, `"revenue":200`) {
		t.Fatalf("sample rows missing from prompt: %s", completer.lastUser)
	}
	if !strings.Contains(completer.lastSystem, "JSON object") {
		t.Fatalf("system prompt missing JSON instruction: %s", completer.lastSystem)
	}
}

func TestAnalysisVariants(t *testing.T) {
	completer := &fakeCompleter{reply: `{"ok":true}`}
	svc := NewAIService(completer, &fakeGetter{ds: testDataSource()}, nil)
	ctx := context.Background()

	if _, err := svc.Insights(ctx, 10, 1); err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if _, err := svc.Anomalies(ctx, 10, 1); err != nil {
		t.Fatalf("Anomalies: %v", err)
	}
	if _, err := svc.ChartSuggestions(ctx, 10, 1); err != nil {
		t.Fatalf("ChartSuggestions: %v", err)
	}
}

func TestQueryMissingDataSource(t *testing.T) {
	svc := NewAIService(&fakeCompleter{reply: `{}`}, &fakeGetter{}, nil)
	if _, err := svc.Query(context.Background(), 10, 99, "q"); !errors.Is(err, datasourcesvc.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryInvalidModelReply(t *testing.T) {
	svc := NewAIService(&fakeCompleter{reply: "sorry, I cannot"}, &fakeGetter{ds: testDataSource()}, nil)
	if _, err := svc.Query(context.Background(), 10, 1, "q"); err == nil {
		t.Fatal("non-JSON model reply accepted")
	}
}

func TestNotConfigured(t *testing.T) {
	svc := NewAIService(nil, &fakeGetter{ds: testDataSource()}, nil)
	if _, err := svc.Query(context.Background(), 10, 1, "q"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
