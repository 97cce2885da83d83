package mcpserver

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/caffeinsmuggler/timesheet-ai/internal/index"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
	"github.com/caffeinsmuggler/timesheet-ai/internal/ocr"
	"github.com/caffeinsmuggler/timesheet-ai/internal/review"
	"github.com/caffeinsmuggler/timesheet-ai/internal/roster"
	"github.com/caffeinsmuggler/timesheet-ai/internal/storage"
)

type fakeEngine struct {
	result ocr.Result
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	return f.result, nil
}

func nameBlock(text string, x, y float64) models.Block {
	box := models.QuadFromRect(x, y, x+90, y+30)
	return models.Block{
		Text:   text,
		Tokens: []models.Token{{Text: text, Box: box}},
		Box:    box,
	}
}

func sheetPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1400, 900))
	for y := 0; y < 900; y++ {
		for x := 0; x < 1400; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testServer(t *testing.T) (*Server, *review.Service) {
	t.Helper()

	dir := t.TempDir()
	fsp, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "tsai-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rosterPath := filepath.Join(dir, "roster.json")
	rosterJSON := `{"day_shift":["김철수","이영희"],"night_shift":["최지우"]}`
	if err := os.WriteFile(rosterPath, []byte(rosterJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	rost, err := roster.Load(rosterPath, logger)
	if err != nil {
		t.Fatal(err)
	}

	eng := &fakeEngine{result: ocr.Result{
		PlainText: "연가 김철수 최지",
		Blocks: []models.Block{
			nameBlock("연가", 100, 200),
			nameBlock("김철수", 250, 200),
			nameBlock("최지", 850, 260),
		},
	}}

	svc := review.NewService(review.NewStore(fsp), db, eng, rost, review.DefaultConfig(), logger)
	return New(svc, rost), svc
}

func createSession(t *testing.T, svc *review.Service) *models.ReviewSession {
	t.Helper()
	sess, err := svc.CreateSession(context.Background(), "sheet-001", sheetPNG(t))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return sess
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go does not expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_sessions":
		result, err = srv.listSessions(ctx, req)
	case "get_session":
		result, err = srv.getSession(ctx, req)
	case "list_unresolved":
		result, err = srv.listUnresolved(ctx, req)
	case "resolve_item":
		result, err = srv.resolveItem(ctx, req)
	case "search_employees":
		result, err = srv.searchEmployees(ctx, req)
	case "finalize_session":
		result, err = srv.finalizeSession(ctx, req)
	case "get_export_contract":
		result, err = srv.getExportContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListAndGetSession(t *testing.T) {
	srv, svc := testServer(t)
	sess := createSession(t, svc)

	r := callTool(t, srv, "list_sessions", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, sess.ID) {
		t.Errorf("list result = %q", text)
	}

	r = callTool(t, srv, "get_session", map[string]interface{}{"session_id": sess.ID})
	text := resultText(r)
	if !strings.Contains(text, "sheet-001") || !strings.Contains(text, "김철수") {
		t.Errorf("get result = %q", text)
	}
}

func TestGetSessionMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_session", map[string]interface{}{"session_id": "rs-nope"})
	if !r.IsError {
		t.Error("expected error for missing session")
	}
}

func TestListUnresolved(t *testing.T) {
	srv, svc := testServer(t)
	sess := createSession(t, svc)

	r := callTool(t, srv, "list_unresolved", map[string]interface{}{"session_id": sess.ID})
	text := resultText(r)
	if !strings.Contains(text, "최지") {
		t.Errorf("unresolved = %q", text)
	}
	if strings.Contains(text, "김철수") {
		t.Errorf("resolved item listed as unresolved: %q", text)
	}
}

func TestResolveAndFinalize(t *testing.T) {
	srv, svc := testServer(t)
	sess := createSession(t, svc)

	var pendingID string
	for _, it := range sess.Items {
		if !it.Resolved() {
			pendingID = it.ID
		}
	}
	if pendingID == "" {
		t.Fatal("no unresolved item in fixture")
	}

	// Finalize refused before resolution.
	r := callTool(t, srv, "finalize_session", map[string]interface{}{"session_id": sess.ID})
	if !r.IsError {
		t.Error("expected finalize to fail with unresolved items")
	}

	r = callTool(t, srv, "resolve_item", map[string]interface{}{
		"session_id": sess.ID,
		"item_id":    pendingID,
		"name":       "최지우",
	})
	if r.IsError {
		t.Fatalf("resolve_item failed: %s", resultText(r))
	}

	r = callTool(t, srv, "finalize_session", map[string]interface{}{"session_id": sess.ID})
	if r.IsError {
		t.Fatalf("finalize failed: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "최지우") || !strings.Contains(text, "NIGHT") {
		t.Errorf("export = %q", text)
	}

	r = callTool(t, srv, "list_unresolved", map[string]interface{}{"session_id": sess.ID})
	if text := resultText(r); text != "all items resolved" {
		t.Errorf("unresolved after finalize = %q", text)
	}
}

func TestResolveItemMissing(t *testing.T) {
	srv, svc := testServer(t)
	sess := createSession(t, svc)

	r := callTool(t, srv, "resolve_item", map[string]interface{}{
		"session_id": sess.ID,
		"item_id":    "it-missing",
		"name":       "이영희",
	})
	if !r.IsError {
		t.Error("expected error for a missing item")
	}
}

func TestSearchEmployees(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "search_employees", map[string]interface{}{"query": "김"})
	if text := resultText(r); text != "김철수" {
		t.Errorf("search = %q", text)
	}

	r = callTool(t, srv, "search_employees", map[string]interface{}{"shift": "NIGHT"})
	if text := resultText(r); text != "최지우" {
		t.Errorf("night search = %q", text)
	}

	r = callTool(t, srv, "search_employees", map[string]interface{}{"query": "zzz"})
	if text := resultText(r); text != "no matches" {
		t.Errorf("miss = %q", text)
	}
}

func TestGetExportContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_export_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "finalize_session") {
		t.Error("contract text missing")
	}
}
