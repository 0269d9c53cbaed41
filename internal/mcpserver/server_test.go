package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dealroom/internal/clientservice"
	"github.com/starford/dealroom/internal/testutil"
)

func testServer(t *testing.T) (*Server, *clientservice.Service) {
	t.Helper()
	svc, _ := testutil.TestService(t)
	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_clients":              srv.listClients,
		"get_client":                srv.getClient,
		"search_clients":            srv.searchClients,
		"update_client":             srv.updateClient,
		"add_comment":               srv.addComment,
		"add_idea":                  srv.addIdea,
		"add_action_item":           srv.addActionItem,
		"set_action_item_completed": srv.setActionItemCompleted,
		"upload_document":           srv.uploadDocument,
		"get_record_contract":       srv.getRecordContract,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
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

func resultDetail(t *testing.T, r *mcp.CallToolResult) clientservice.ClientDetail {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	var d clientservice.ClientDetail
	if err := json.Unmarshal([]byte(resultText(r)), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return d
}

func TestListClients(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_clients", map[string]interface{}{"bucket": "archived"})
	if !strings.Contains(resultText(r), "Spotify") {
		t.Errorf("archived list = %s", resultText(r))
	}

	r = callTool(t, srv, "list_clients", map[string]interface{}{"bucket": "nope"})
	if !r.IsError {
		t.Error("expected error for unknown bucket")
	}
}

func TestGetClient(t *testing.T) {
	srv, _ := testServer(t)

	d := resultDetail(t, callTool(t, srv, "get_client", map[string]interface{}{"id": "2"}))
	if d.Name != "Netflix" || d.Checksum == "" {
		t.Errorf("client = %q, checksum = %q", d.Name, d.Checksum)
	}

	r := callTool(t, srv, "get_client", map[string]interface{}{"id": "nope"})
	if !r.IsError || resultText(r) != "not found: nope" {
		t.Errorf("missing client = %q", resultText(r))
	}
}

func TestUpdateClient(t *testing.T) {
	srv, _ := testServer(t)
	before := resultDetail(t, callTool(t, srv, "get_client", map[string]interface{}{"id": "1"}))

	d := resultDetail(t, callTool(t, srv, "update_client", map[string]interface{}{
		"id":       "1",
		"patch":    `{"budget": "$300,000", "goals": ["One goal"]}`,
		"if_match": before.Checksum,
	}))
	if d.Budget != "$300,000" || len(d.Goals) != 1 || d.Name != "Giphy" {
		t.Errorf("updated = %+v", d.Client)
	}

	// Stale checksum.
	r := callTool(t, srv, "update_client", map[string]interface{}{
		"id":       "1",
		"patch":    `{"budget": "$1"}`,
		"if_match": before.Checksum,
	})
	if !r.IsError || !strings.Contains(resultText(r), "changed") {
		t.Errorf("stale update = %q", resultText(r))
	}

	r = callTool(t, srv, "update_client", map[string]interface{}{"id": "1", "patch": "{not json"})
	if !r.IsError {
		t.Error("expected error for invalid patch")
	}

	r = callTool(t, srv, "update_client", map[string]interface{}{"id": "1", "patch": `{"teamSize": -3}`})
	if !r.IsError || !strings.Contains(resultText(r), "invalid input") {
		t.Errorf("negative team size = %q", resultText(r))
	}
}

func TestAppendTools(t *testing.T) {
	srv, svc := testServer(t)

	d := resultDetail(t, callTool(t, srv, "add_comment", map[string]interface{}{"id": "2", "text": "Call Maria"}))
	if len(d.Comments) == 0 || d.Comments[len(d.Comments)-1].Content != "Call Maria" {
		t.Errorf("comments = %+v", d.Comments)
	}

	r := callTool(t, srv, "add_idea", map[string]interface{}{"id": "2", "text": "  "})
	if r.IsError || resultText(r) != "ignored: blank text" {
		t.Errorf("blank idea = %q", resultText(r))
	}

	d = resultDetail(t, callTool(t, srv, "add_action_item", map[string]interface{}{"id": "2", "text": "Draft SOW"}))
	item := d.ActionItems[len(d.ActionItems)-1]
	if item.Task != "Draft SOW" || item.Completed {
		t.Errorf("action item = %+v", item)
	}

	d = resultDetail(t, callTool(t, srv, "set_action_item_completed", map[string]interface{}{
		"id": "2", "item_id": item.ID, "completed": true,
	}))
	if !d.ActionItems[len(d.ActionItems)-1].Completed {
		t.Error("action item not completed")
	}

	got, err := svc.Get(context.Background(), "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Comments) != len(d.Comments) {
		t.Errorf("store comments = %d, want %d", len(got.Comments), len(d.Comments))
	}

	r = callTool(t, srv, "add_comment", map[string]interface{}{"id": "ghost", "text": "x"})
	if !r.IsError {
		t.Error("expected error for unknown client")
	}
}

func TestSearchClients(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "search_clients", map[string]interface{}{"query": "streaming"})
	text := resultText(r)
	if !strings.Contains(text, "Netflix") || !strings.Contains(text, "Spotify") {
		t.Errorf("search = %s", text)
	}
}

func TestUploadDocument_DataURI(t *testing.T) {
	srv, svc := testServer(t)
	pdf := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake"))

	r := callTool(t, srv, "upload_document", map[string]interface{}{"id": "3", "url": pdf, "filename": "brief.pdf"})
	if r.IsError {
		t.Fatalf("upload error: %s", resultText(r))
	}
	var res uploadResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Name != "brief.pdf" || res.Type != "pdf" {
		t.Errorf("result = %+v", res)
	}

	_, info, rc, err := svc.OpenDocument(context.Background(), "3", res.ID)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	rc.Close()
	if info.Size != int64(len("%PDF-1.4 fake")) {
		t.Errorf("size = %d", info.Size)
	}
}

func TestUploadDocument_Rejected(t *testing.T) {
	srv, _ := testServer(t)
	png := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png"))

	cases := map[string]map[string]interface{}{
		"magic mismatch": {"id": "1", "url": png},
		"bad extension":  {"id": "1", "url": png, "filename": "run.exe"},
		"bad scheme":     {"id": "1", "url": "ftp://example.com/a.pdf"},
		"loopback":       {"id": "1", "url": "http://127.0.0.1/a.pdf"},
		"not base64":     {"id": "1", "url": "data:application/pdf,plain"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if r := callTool(t, srv, "upload_document", args); !r.IsError {
				t.Errorf("expected error, got %s", resultText(r))
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd": "passwd",
		"my brief.pdf":     "my brief.pdf",
		"a$b?.png":         "a_b_.png",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRecordContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_record_contract", nil)
	if resultText(r) != ClientRecordContract {
		t.Error("contract mismatch")
	}

	contents, err := srv.readContractResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != contractURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
