package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mycelica/mycimport/internal/core/db"
	"github.com/mycelica/mycimport/internal/core/graph"
	"github.com/mycelica/mycimport/internal/core/models"
	"github.com/mycelica/mycimport/internal/platform/logger"
	"github.com/mycelica/mycimport/pkg/claudeexport"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })
	_ = tmpfile.Close()

	database, err := db.New(tmpfile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = database.Close() })

	return database
}

// makeConversations returns n conversations with a human/assistant pair and
// a trailing orphan assistant message each.
func makeConversations(n int) []claudeexport.Conversation {
	convs := make([]claudeexport.Conversation, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("conv-%d", i)
		convs = append(convs, claudeexport.Conversation{
			UUID:      id,
			Name:      fmt.Sprintf("Conversation %d", i),
			CreatedAt: "2024-03-01T10:00:00Z",
			Messages: []claudeexport.Message{
				{UUID: id + "-m0", Sender: "human", Body: "Q", CreatedAt: "2024-03-01T10:00:00Z"},
				{UUID: id + "-m1", Sender: "assistant", Body: "A", CreatedAt: "2024-03-01T10:00:01Z"},
				{UUID: id + "-m2", Sender: "assistant", Body: "more", CreatedAt: "2024-03-01T10:00:02Z"},
			},
		})
	}
	return convs
}

func buildGraph(t *testing.T, convs []claudeexport.Conversation, strategy string) *graph.Graph {
	t.Helper()
	s, err := graph.NewStrategy(strategy, "")
	if err != nil {
		t.Fatal(err)
	}
	return graph.BuildGraph(convs, s, graph.DefaultLayout())
}

func countRows(t *testing.T, database *db.DB, table string) int {
	t.Helper()
	var count int
	if err := database.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		t.Fatal(err)
	}
	return count
}

type recordingProgress struct {
	updates   int
	committed []int
	onUpdate  func(done int)
}

func (r *recordingProgress) Update(done int, _ string) {
	r.updates++
	if r.onUpdate != nil {
		r.onUpdate(done)
	}
}

func (r *recordingProgress) Committed(done int) {
	r.committed = append(r.committed, done)
}

func TestImport_Exchanges(t *testing.T) {
	database := newTestDB(t)
	imp := New(database, nil, Options{})

	res, err := imp.Import(context.Background(), buildGraph(t, makeConversations(3), graph.StrategyExchanges), nil)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if res.Conversations != 3 || res.Items != 6 || res.Edges != 0 {
		t.Errorf("Result = %+v, want 3 conversations, 6 items, 0 edges", res)
	}
	if got := countRows(t, database, "nodes"); got != 9 {
		t.Errorf("Expected 9 nodes, got %d", got)
	}

	// Every item points at a container inserted in the same run
	var dangling int
	err = database.QueryRowContext(context.Background(), `
		SELECT COUNT(*) FROM nodes i
		WHERE i.conversation_id IS NOT NULL
		AND NOT EXISTS (SELECT 1 FROM nodes c WHERE c.id = i.conversation_id AND c.is_item = 0)
	`).Scan(&dangling)
	if err != nil {
		t.Fatal(err)
	}
	if dangling != 0 {
		t.Errorf("Expected no dangling conversation references, got %d", dangling)
	}
}

func TestImport_ExchangesTwiceAborts(t *testing.T) {
	database := newTestDB(t)
	imp := New(database, nil, Options{})
	ctx := context.Background()

	if _, err := imp.Import(ctx, buildGraph(t, makeConversations(2), graph.StrategyExchanges), nil); err != nil {
		t.Fatal(err)
	}
	before := countRows(t, database, "nodes")

	// A second export with new conversations must not be merged in either
	res, err := imp.Import(ctx, buildGraph(t, makeConversations(5), graph.StrategyExchanges), nil)
	if !errors.Is(err, ErrAlreadyImported) {
		t.Fatalf("Import() error = %v, want ErrAlreadyImported", err)
	}
	if res.Conversations != 0 || res.Items != 0 {
		t.Errorf("aborted run reported imports: %+v", res)
	}
	if res.Existing != 4 {
		t.Errorf("Existing = %d, want 4", res.Existing)
	}
	if after := countRows(t, database, "nodes"); after != before {
		t.Errorf("aborted run changed row count: %d -> %d", before, after)
	}
}

func TestImport_SkipsExistingConversation(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	// A container without linked exchanges does not trigger the abort
	err := database.InsertNode(ctx, database, &models.Node{
		ID:        "conv-1",
		Type:      models.NodeTypeContext,
		Title:     "Already here",
		CreatedAt: 1,
		UpdatedAt: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	imp := New(database, nil, Options{})
	res, err := imp.Import(ctx, buildGraph(t, makeConversations(3), graph.StrategyExchanges), nil)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if res.Skipped != 1 || res.Conversations != 2 || res.Items != 4 {
		t.Errorf("Result = %+v, want 1 skipped, 2 conversations, 4 items", res)
	}

	node, err := database.GetNode(ctx, "conv-1-ex-0")
	if err != nil {
		t.Fatal(err)
	}
	if node != nil {
		t.Error("children of a skipped conversation must not be inserted")
	}
}

func TestImport_MessagesReplace(t *testing.T) {
	database := newTestDB(t)
	imp := New(database, nil, Options{})
	ctx := context.Background()

	var counts [2][2]int
	for run := 0; run < 2; run++ {
		res, err := imp.Import(ctx, buildGraph(t, makeConversations(4), graph.StrategyMessages), nil)
		if err != nil {
			t.Fatalf("run %d: Import() error = %v", run, err)
		}
		if res.Conversations != 4 || res.Items != 4 || res.Edges != 4 {
			t.Errorf("run %d: Result = %+v", run, res)
		}
		if run == 1 && res.Cleared != 8 {
			t.Errorf("second run cleared %d nodes, want 8", res.Cleared)
		}
		counts[run] = [2]int{countRows(t, database, "nodes"), countRows(t, database, "edges")}
	}

	if counts[0] != counts[1] {
		t.Errorf("replace runs differ: %v vs %v", counts[0], counts[1])
	}
	if counts[0] != [2]int{8, 4} {
		t.Errorf("Expected 8 nodes and 4 edges, got %v", counts[0])
	}
}

func TestImport_MessagesReplaceIgnoresExchanges(t *testing.T) {
	database := newTestDB(t)
	imp := New(database, nil, Options{MaxItems: 1})
	ctx := context.Background()

	if _, err := imp.Import(ctx, buildGraph(t, makeConversations(2), graph.StrategyExchanges), nil); err != nil {
		t.Fatal(err)
	}

	res, err := imp.Import(ctx, buildGraph(t, makeConversations(2), graph.StrategyMessages), nil)
	if err != nil {
		t.Fatalf("replace run should not abort: %v", err)
	}
	if res.LimitReached || res.Items != 2 {
		t.Errorf("replace run should ignore MaxItems: %+v", res)
	}
}

func TestImport_MaxItems(t *testing.T) {
	database := newTestDB(t)
	imp := New(database, nil, Options{MaxItems: 3})

	res, err := imp.Import(context.Background(), buildGraph(t, makeConversations(5), graph.StrategyExchanges), nil)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if !res.LimitReached {
		t.Error("LimitReached should be set")
	}
	if res.Items != 3 || res.Conversations != 2 {
		t.Errorf("Result = %+v, want 3 items over 2 conversations", res)
	}
	if got := countRows(t, database, "nodes"); got != 5 {
		t.Errorf("Expected 5 nodes, got %d", got)
	}
}

func TestImport_Batches(t *testing.T) {
	database := newTestDB(t)
	imp := New(database, nil, Options{BatchSize: 2})
	progress := &recordingProgress{}

	if _, err := imp.Import(context.Background(), buildGraph(t, makeConversations(5), graph.StrategyExchanges), progress); err != nil {
		t.Fatal(err)
	}

	if progress.updates != 5 {
		t.Errorf("Expected 5 updates, got %d", progress.updates)
	}
	if fmt.Sprint(progress.committed) != "[2 4]" {
		t.Errorf("Committed at %v, want [2 4]", progress.committed)
	}
}

func TestImport_CancelKeepsCommittedBatches(t *testing.T) {
	database := newTestDB(t)
	imp := New(database, nil, Options{BatchSize: 2})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	progress := &recordingProgress{onUpdate: func(done int) {
		if done == 3 {
			cancel()
		}
	}}

	_, err := imp.Import(ctx, buildGraph(t, makeConversations(5), graph.StrategyExchanges), progress)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Import() error = %v, want context.Canceled", err)
	}

	// First batch (2 conversations x 3 nodes) is committed, the third
	// conversation is rolled back.
	if got := countRows(t, database, "nodes"); got != 6 {
		t.Errorf("Expected 6 committed nodes, got %d", got)
	}
}

func TestImport_DuplicateIDRollsBackBatch(t *testing.T) {
	database := newTestDB(t)
	imp := New(database, nil, Options{BatchSize: 2})

	convs := makeConversations(3)
	convs = append(convs, convs[2])

	_, err := imp.Import(context.Background(), buildGraph(t, convs, graph.StrategyMessages), nil)
	if err == nil {
		t.Fatal("Expected a primary key error for a duplicated conversation")
	}
	if !strings.Contains(err.Error(), "conv-2") {
		t.Errorf("error should name the failing node: %v", err)
	}
	if got := countRows(t, database, "nodes"); got != 4 {
		t.Errorf("Expected only the first batch (4 nodes), got %d", got)
	}
}

func TestRecordRun(t *testing.T) {
	database := newTestDB(t)
	imp := New(database, nil, Options{})
	ctx := context.Background()

	source := filepath.Join(t.TempDir(), "conversations.json")
	if err := os.WriteFile(source, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := imp.RecordRun(ctx, source, &Result{Strategy: "exchanges", Conversations: 2, Items: 4}, nil); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if err := imp.RecordRun(ctx, source, &Result{Strategy: "exchanges"}, ErrAlreadyImported); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	records, err := database.RecentImports(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Status != db.ImportAborted || records[1].Status != db.ImportSuccess {
		t.Errorf("statuses = %s, %s", records[0].Status, records[1].Status)
	}
	// sha256 of "[]"
	if records[1].FileHash != "4f53cda18c2baa0c0354bb5f9a3ecbe5ed12ab4d8e11ba873c2f11161202b945" {
		t.Errorf("FileHash = %s", records[1].FileHash)
	}
}

func TestImport_AppSchema(t *testing.T) {
	ddl, err := os.ReadFile(filepath.Join("..", "db", "testdata", "app_schema.sql"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "mycelica.db")
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := raw.Exec(string(ddl)); err != nil {
		t.Fatal(err)
	}
	_ = raw.Close()

	database, err := db.New(path)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	ctx := context.Background()

	res, err := New(database, nil, Options{}).Import(ctx, buildGraph(t, makeConversations(2), graph.StrategyExchanges), nil)
	if err != nil {
		t.Fatalf("exchange Import() error = %v", err)
	}
	if res.Conversations != 2 || res.Items != 4 {
		t.Errorf("exchange Result = %+v", res)
	}

	res, err = New(database, nil, Options{}).Import(ctx, buildGraph(t, makeConversations(2), graph.StrategyMessages), nil)
	if err != nil {
		t.Fatalf("message Import() error = %v", err)
	}
	if res.Cleared != 6 || res.Items != 2 || res.Edges != 2 {
		t.Errorf("message Result = %+v", res)
	}

	var depth int
	if err := database.QueryRowContext(ctx, "SELECT depth FROM nodes WHERE id = 'conv-0-m0'").Scan(&depth); err != nil {
		t.Fatal(err)
	}
	if depth != 1 {
		t.Errorf("message depth = %d, want 1", depth)
	}

	stats, err := database.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalNodes != 4 || len(stats.ByLevel) != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestImport_LogsBadTimestamps(t *testing.T) {
	database := newTestDB(t)
	core, logs := observer.New(zap.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	convs := makeConversations(1)
	convs[0].CreatedAt = "not a date"

	if _, err := New(database, log, Options{}).Import(context.Background(), buildGraph(t, convs, graph.StrategyExchanges), nil); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	entries := logs.FilterMessage("unparseable timestamp, using current time").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 timestamp entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["conversation"] != "conv-0" || fields["value"] != "not a date" {
		t.Errorf("unexpected fields: %v", fields)
	}
}
