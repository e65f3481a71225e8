package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/locgrid/internal/config"
	"github.com/JonMunkholm/locgrid/internal/core"
	"github.com/JonMunkholm/locgrid/internal/translate"
)

type fakeTranslator struct{}

func (fakeTranslator) Translate(_ context.Context, req translate.Request) (string, error) {
	return req.Target + ":" + req.Text, nil
}

type memHistory struct {
	mu      sync.Mutex
	records []core.SaveRecord
}

func (h *memHistory) RecordSave(_ context.Context, rec core.SaveRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append([]core.SaveRecord{rec}, h.records...)
	return nil
}

func (h *memHistory) RecentSaves(_ context.Context, limit int) ([]core.SaveRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.records) < limit {
		limit = len(h.records)
	}
	return append([]core.SaveRecord(nil), h.records[:limit]...), nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Translate.BatchDelay = 0
	cfg.Translate.QueueDelay = 0
	cfg.Rate.Enabled = false
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, tr translate.Translator, hist core.HistoryRecorder) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig(t)
	}
	srv := NewServer(core.NewService(cfg, tr, nil, hist), cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, srv *Server, method, target string, v any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(data)
	}
	return do(t, srv, method, target, body, map[string]string{"Content-Type": "application/json"})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/session", nil, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d: %s", rec.Code, rec.Body)
	}
	return decode[struct {
		SessionID string `json:"session_id"`
	}](t, rec).SessionID
}

// upload posts name/content pairs as multipart "files".
func upload(t *testing.T, srv *Server, sessionID, label string, files ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := 0; i+1 < len(files); i += 2 {
		part, err := mw.CreateFormFile("files", files[i])
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(files[i+1]))
	}
	if label != "" {
		mw.WriteField("label", label)
	}
	mw.Close()

	return do(t, srv, http.MethodPost, "/api/session/"+sessionID+"/files", &buf,
		map[string]string{"Content-Type": mw.FormDataContentType()})
}

func loadSession(t *testing.T, srv *Server, files ...string) string {
	t.Helper()
	id := createSession(t, srv)
	if rec := upload(t, srv, id, "", files...); rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body)
	}
	return id
}

type gridJSON struct {
	Label string `json:"label"`
	Grid  struct {
		Files []struct {
			Name string `json:"name"`
		} `json:"files"`
		Rows []struct {
			Key   string `json:"key"`
			Cells []struct {
				Value      string `json:"value"`
				Original   string `json:"original"`
				Unmodified bool   `json:"unmodified"`
			} `json:"cells"`
		} `json:"rows"`
	} `json:"grid"`
	Warnings map[string][]struct {
		Kind string `json:"kind"`
	} `json:"warnings"`
}

func TestLoadFiles(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	id := createSession(t, srv)

	rec := upload(t, srv, id, "",
		"fr.csv", "\"hello\",\"Bonjour\"\n\"bye\",\"\"",
		"de.csv", "\"hello\",\"Hallo\"\n\"zebra\",\"Zebra\"",
	)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	got := decode[gridJSON](t, rec)
	if got.Label != "translations" {
		t.Errorf("Label = %q", got.Label)
	}
	if len(got.Grid.Files) != 2 || got.Grid.Files[0].Name != "fr.csv" {
		t.Errorf("files = %+v, want input order", got.Grid.Files)
	}
	var keys []string
	for _, r := range got.Grid.Rows {
		keys = append(keys, r.Key)
	}
	if strings.Join(keys, ",") != "bye,hello,zebra" {
		t.Errorf("keys = %v", keys)
	}

	// The table endpoint returns the same grid.
	tbl := decode[gridJSON](t, do(t, srv, http.MethodGet, "/api/session/"+id+"/table", nil, nil))
	if len(tbl.Grid.Rows) != 3 {
		t.Errorf("table rows = %d, want 3", len(tbl.Grid.Rows))
	}
}

func TestLoadFiles_FailureListsFiles(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	id := createSession(t, srv)

	rec := upload(t, srv, id, "", "de.csv", `"hello","Hallo"`, "fr.csv", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
	resp := decode[ErrorResponse](t, rec)
	if resp.Code != "FILE005" {
		t.Errorf("Code = %q, want FILE005", resp.Code)
	}
	if len(resp.Files) != 1 || resp.Files[0] != "fr.csv" {
		t.Errorf("Files = %v", resp.Files)
	}

	// Nothing was installed.
	if rec := do(t, srv, http.MethodGet, "/api/session/"+id+"/table", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("table after failed load status = %d, want 400", rec.Code)
	}
}

func TestLoadFiles_TooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.MaxFileSize = 16
	srv := newTestServer(t, cfg, nil, nil)
	id := createSession(t, srv)

	rec := upload(t, srv, id, "",
		"de.csv", `"hello","Hallo"`,
		"fr.csv", `"hello","Bonjour tout le monde"`,
		"es.csv", `"hello","Hola a todo el mundo"`,
	)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413: %s", rec.Code, rec.Body)
	}
	resp := decode[ErrorResponse](t, rec)
	if resp.Code != "FILE001" || strings.Join(resp.Files, ",") != "fr.csv,es.csv" {
		t.Errorf("response = %+v", resp)
	}
}

func TestLoadFiles_FolderLabel(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	id := createSession(t, srv)

	rec := upload(t, srv, id, "shop/de.csv", "de.csv", `"hello","Hallo"`, "notes.txt", "skip")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[gridJSON](t, rec)
	if got.Label != "shop" || len(got.Grid.Files) != 1 {
		t.Errorf("label = %q, files = %+v", got.Label, got.Grid.Files)
	}

	rec = upload(t, srv, id, "docs", "readme.txt", "nothing")
	if resp := decode[ErrorResponse](t, rec); resp.Code != "FILE004" {
		t.Errorf("folder without csv code = %q, want FILE004", resp.Code)
	}
}

func TestLoadFiles_BOMWarning(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	id := createSession(t, srv)

	rec := upload(t, srv, id, "", "de.csv", "\uFEFF\"hello\",\"Hallo\"")
	got := decode[gridJSON](t, rec)
	if len(got.Warnings["de.csv"]) == 0 {
		t.Errorf("no warnings reported: %s", rec.Body)
	}
	if got.Grid.Rows[0].Key != "hello" {
		t.Errorf("key = %q, BOM not stripped", got.Grid.Rows[0].Key)
	}
}

func TestEditCellAndExport(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	id := loadSession(t, srv, "de.csv", "\"hello\",\"Hallo\"\n\"bye\",\"\"")

	rec := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/cell",
		map[string]any{"file": 0, "key": "bye", "value": ` Sag "Tschüss" `})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d: %s", rec.Code, rec.Body)
	}
	cell := decode[struct {
		Value    string `json:"value"`
		Modified bool   `json:"modified"`
	}](t, rec)
	if !cell.Modified || cell.Value != ` Sag "Tschüss" ` {
		t.Errorf("cell = %+v", cell)
	}

	rec = do(t, srv, http.MethodGet, "/api/session/"+id+"/export/0", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d: %s", rec.Code, rec.Body)
	}
	if want := "\"bye\",\"Sag \"\"Tschüss\"\"\"\n\"hello\",\"Hallo\""; rec.Body.String() != want {
		t.Errorf("export = %q, want %q", rec.Body.String(), want)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename=de.csv` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestEditCell_Errors(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	id := loadSession(t, srv, "de.csv", `"hello","Hallo"`)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"bad file index", `{"file":3,"key":"hello","value":"x"}`, http.StatusBadRequest, "EDIT002"},
		{"header key", `{"file":0,"key":"Key","value":"x"}`, http.StatusBadRequest, "EDIT001"},
		{"malformed body", `{"file":`, http.StatusBadRequest, "REQ003"},
		{"unknown field", `{"file":0,"key":"a","value":"b","extra":1}`, http.StatusBadRequest, "REQ003"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/session/"+id+"/cell", strings.NewReader(tt.body),
				map[string]string{"Content-Type": "application/json"})
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := decode[ErrorResponse](t, rec).Code; got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	for _, path := range []string{"/api/session/nope/table", "/api/session/nope/export"} {
		rec := do(t, srv, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, rec.Code)
		}
		if code := decode[ErrorResponse](t, rec).Code; code != "SES001" {
			t.Errorf("%s code = %q, want SES001", path, code)
		}
	}

	// Pages answer in plain text.
	rec := do(t, srv, http.MethodGet, "/session/nope/preview", nil, nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "SES001") {
		t.Errorf("preview page = %d %q", rec.Code, rec.Body)
	}
}

func TestCloseSession(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	id := createSession(t, srv)

	if rec := do(t, srv, http.MethodDelete, "/api/session/"+id, nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodDelete, "/api/session/"+id, nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestSave_ToOutputDir(t *testing.T) {
	hist := &memHistory{}
	cfg := testConfig(t)
	srv := newTestServer(t, cfg, nil, hist)
	id := loadSession(t, srv, "de.csv", `"hello","Hallo"`)

	rec := do(t, srv, http.MethodPost, "/api/session/"+id+"/save", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		Saved bool     `json:"saved"`
		Dir   string   `json:"dir"`
		Files []string `json:"files"`
	}](t, rec)
	if !resp.Saved || filepath.Dir(resp.Dir) != cfg.Output.Dir {
		t.Fatalf("response = %+v", resp)
	}
	if !strings.HasPrefix(filepath.Base(resp.Dir), "translations_modified_") {
		t.Errorf("dir = %q", resp.Dir)
	}
	data, err := os.ReadFile(filepath.Join(resp.Dir, "de.csv"))
	if err != nil || string(data) != `"hello","Hallo"` {
		t.Errorf("saved file = %q, %v", data, err)
	}

	hrec := do(t, srv, http.MethodGet, "/api/history?limit=5", nil, nil)
	saves := decode[struct {
		Saves []core.SaveRecord `json:"saves"`
	}](t, hrec).Saves
	if len(saves) != 1 || saves[0].Dir != resp.Dir || saves[0].Kind != "folder" {
		t.Errorf("history = %+v", saves)
	}
}

func TestSave_FallsBackToDownload(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Dir = ""
	srv := newTestServer(t, cfg, nil, nil)
	id := loadSession(t, srv, "de.csv", `"hello","Hallo"`)

	rec := do(t, srv, http.MethodPost, "/api/session/"+id+"/save", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body)
	}
	resp := decode[map[string]any](t, rec)
	if resp["fallback"] != true || resp["download"] != "/api/session/"+id+"/export" {
		t.Errorf("response = %v", resp)
	}
	if _, ok := resp["dir"]; ok {
		t.Error("fallback response carries a dir")
	}

	zip := do(t, srv, http.MethodGet, "/api/session/"+id+"/export", nil, nil)
	if zip.Code != http.StatusOK || zip.Header().Get("Content-Type") != "application/zip" {
		t.Errorf("zip download = %d %q", zip.Code, zip.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(zip.Body.Bytes(), []byte("PK")) {
		t.Error("download is not a zip")
	}
}

func TestTranslateCell(t *testing.T) {
	srv := newTestServer(t, nil, fakeTranslator{}, nil)
	id := loadSession(t, srv, "de.csv", `"hello",""`)

	rec := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/cell/translate", map[string]any{"file": 0, "key": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[core.CellTranslation](t, rec)
	if got.Status != core.CellStatusSuccess || got.Value != "de:hello" || got.RevertAfterMs != 1500 {
		t.Errorf("result = %+v", got)
	}
}

func TestTranslate_Disabled(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	id := loadSession(t, srv, "de.csv", `"hello",""`)

	for path, body := range map[string]any{
		"/cell/translate": map[string]any{"file": 0, "key": "hello"},
		"/translate":      nil,
	} {
		rec := doJSON(t, srv, http.MethodPost, "/api/session/"+id+path, body)
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("%s status = %d, want 501", path, rec.Code)
		}
		if code := decode[ErrorResponse](t, rec).Code; code != "TR004" {
			t.Errorf("%s code = %q, want TR004", path, code)
		}
	}
}

func TestAutoTranslate_ProgressStream(t *testing.T) {
	srv := newTestServer(t, nil, fakeTranslator{}, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	id := loadSession(t, srv, "de.csv", "\"a\",\"\"\n\"b\",\"\"", "fr.csv", `"a","A"`)

	rec := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/translate", map[string]string{"target": ""})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body)
	}
	start := decode[map[string]string](t, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+start["progress_url"], nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("progress request: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	stream := string(body)
	if !strings.Contains(stream, "event: progress") {
		t.Errorf("stream has no progress event:\n%s", stream)
	}
	if !strings.Contains(stream, "event: complete\ndata: {") || !strings.Contains(stream, `"phase":"complete"`) {
		t.Errorf("stream did not complete:\n%s", stream)
	}

	res := decode[core.TranslateResult](t, do(t, srv, http.MethodGet, start["result_url"], nil, nil))
	// fr/a is unmodified, so it is retranslated along with the three empty cells.
	if res.Phase != core.PhaseComplete || res.Applied != 4 {
		t.Errorf("result = %+v", res)
	}

	tbl := decode[gridJSON](t, do(t, srv, http.MethodGet, "/api/session/"+id+"/table", nil, nil))
	if got := tbl.Grid.Rows[1].Cells[0].Value; got != "de:b" {
		t.Errorf("b/de = %q, want de:b", got)
	}
}

func TestAutoTranslate_UnknownJob(t *testing.T) {
	srv := newTestServer(t, nil, fakeTranslator{}, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/translate/nope/progress"},
		{http.MethodGet, "/api/translate/nope/result"},
		{http.MethodGet, "/api/translate/nope"},
		{http.MethodPost, "/api/translate/nope/cancel"},
	} {
		rec := do(t, srv, tc.method, tc.path, nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", tc.method, tc.path, rec.Code)
		}
	}
}

func TestAccessTokens(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.AccessTokens = []string{"secret"}
	srv := newTestServer(t, cfg, nil, nil)

	if rec := do(t, srv, http.MethodPost, "/api/session", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/api/session", nil, map[string]string{"Authorization": "Bearer secret"}); rec.Code != http.StatusCreated {
		t.Errorf("with token status = %d, want 201", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/healthz", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 2
	srv := newTestServer(t, cfg, nil, nil)

	for i := 0; i < 2; i++ {
		if rec := do(t, srv, http.MethodGet, "/api/languages", nil, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := do(t, srv, http.MethodGet, "/api/languages", nil, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	if code := decode[ErrorResponse](t, rec).Code; code != "RATE001" {
		t.Errorf("code = %q, want RATE001", code)
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	defer rl.stop()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("a") || rl.allow("a") {
		t.Fatal("limit of 1 not enforced")
	}
	if !rl.allow("b") {
		t.Error("limit shared across clients")
	}
	now = now.Add(61 * time.Second)
	if !rl.allow("a") {
		t.Error("window did not reset")
	}
}

func TestPages(t *testing.T) {
	srv := newTestServer(t, nil, fakeTranslator{}, nil)

	rec := do(t, srv, http.MethodGet, "/", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `id="auto-translate"`) {
		t.Errorf("editor page = %d", rec.Code)
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "default-src 'self'") {
		t.Errorf("CSP = %q", csp)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("X-Frame-Options missing")
	}

	id := loadSession(t, srv, "de.csv", `"hello","Hallo"`)
	doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/cell", map[string]any{"file": 0, "key": "hello", "value": "Servus"})
	rec = do(t, srv, http.MethodGet, "/session/"+id+"/preview", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<tr class="modified"><td>hello</td><td>Servus</td></tr>`) {
		t.Errorf("preview body:\n%s", rec.Body)
	}

	rec = do(t, srv, http.MethodGet, "/static/editor.js", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "EventSource") {
		t.Errorf("editor.js = %d", rec.Code)
	}
}

func TestLanguagesAndHealth(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	createSession(t, srv)

	langs := decode[struct {
		Source  string `json:"source"`
		Targets []struct {
			Code string `json:"code"`
		} `json:"targets"`
		TranslationEnabled bool `json:"translation_enabled"`
	}](t, do(t, srv, http.MethodGet, "/api/languages", nil, nil))
	if langs.Source != "en" || len(langs.Targets) != 11 || langs.TranslationEnabled {
		t.Errorf("languages = %+v", langs)
	}

	health := decode[map[string]any](t, do(t, srv, http.MethodGet, "/healthz", nil, nil))
	if health["status"] != "ok" || health["sessions"] != float64(1) {
		t.Errorf("health = %v", health)
	}
}

func TestFolders(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "shop"), 0o755)
	os.WriteFile(filepath.Join(root, "shop", "de.csv"), []byte(`"hello","Hallo"`), 0o644)

	cfg := testConfig(t)
	cfg.Upload.InputDir = root
	srv := newTestServer(t, cfg, nil, nil)

	folders := decode[struct {
		Folders []core.FolderInfo `json:"folders"`
	}](t, do(t, srv, http.MethodGet, "/api/folders", nil, nil))
	if len(folders.Folders) != 1 || folders.Folders[0].Name != "shop" {
		t.Fatalf("folders = %+v", folders)
	}

	id := createSession(t, srv)
	rec := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/folder", map[string]string{"folder": "shop"})
	if rec.Code != http.StatusOK {
		t.Fatalf("load folder status = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[gridJSON](t, rec); got.Label != "shop" {
		t.Errorf("label = %q", got.Label)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/folder", map[string]string{"folder": "../etc"})
	if code := decode[ErrorResponse](t, rec).Code; code != "FILE008" {
		t.Errorf("bad folder code = %q, want FILE008", code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", core.ErrJobNotFound), http.StatusNotFound},
		{core.ErrStaleSession, http.StatusConflict},
		{&core.FileTooLargeError{Names: []string{"a.csv"}, Limit: 1}, http.StatusRequestEntityTooLarge},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{core.ErrTooManyLoads, http.StatusServiceUnavailable},
		{core.ErrNoTranslator, http.StatusNotImplemented},
		{&translate.APIError{Status: 500, Body: "x"}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{&requestError{err: io.ErrUnexpectedEOF}, http.StatusBadRequest},
		{core.ErrNothingToTranslate, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestUploadNames(t *testing.T) {
	for in, want := range map[string]string{
		"de.csv":             "de.csv",
		"shop/de.csv":        "de.csv",
		`C:\shop\de_AT.csv`:  "de_AT.csv",
		"deep/nested/fr.csv": "fr.csv",
	} {
		if got := baseName(in); got != want {
			t.Errorf("baseName(%q) = %q, want %q", in, got, want)
		}
	}
	for in, want := range map[string]string{
		"":            "",
		"shop":        "shop",
		"shop/de.csv": "shop",
		"/shop/":      "shop",
		"../x":        "",
	} {
		if got := folderLabel(in); got != want {
			t.Errorf("folderLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRespondError_HTMXFragment(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	rec := do(t, srv, http.MethodGet, "/session/nope/preview", nil, map[string]string{"HX-Request": "true"})

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `class="alert alert-error"`) {
		t.Errorf("body = %q", rec.Body)
	}
}
