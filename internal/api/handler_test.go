package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"fredetl/internal/schema"
	"fredetl/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const balanceSheetCSV = `资产负债表,,
编制单位：测试公司,2024年12月31日,
项目,期末余额,年初余额
货币资金,"1,500.00","1,000.00"
应收账款,"2,000.00","1,800.00"
流动资产合计,"3,500.00","2,800.00"
固定资产,"5,000.00","4,000.00"
减：累计折旧,"1,000.00",800.00
非流动资产合计,"4,000.00","3,200.00"
负债合计,"4,500.00","3,000.00"
所有者权益合计,"3,000.00","3,000.00"
`

type testServer struct {
	router *gin.Engine
	store  *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "fredetl.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	h := NewHandler(st, schema.MustBuiltin(), Options{
		UploadDir: t.TempDir(),
		ExportDir: t.TempDir(),
	})
	router := gin.New()
	h.RegisterRoutes(router.Group("/api"))
	return &testServer{router: router, store: st}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T, filename, content, kind string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.WriteField("kind", kind); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return s.do(t, http.MethodPost, "/api/extract", buf.Bytes(), mw.FormDataContentType())
}

type sseEvent struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()

	var events []sseEvent
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		var evt sseEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &evt); err != nil {
			t.Fatalf("bad event %q: %v", chunk, err)
		}
		events = append(events, evt)
	}
	return events
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

// extractRun 上传资产负债表并返回运行 ID
func extractRun(t *testing.T, s *testServer) string {
	t.Helper()

	w := s.upload(t, "资产负债表.csv", balanceSheetCSV, "BS")
	if w.Code != http.StatusOK {
		t.Fatalf("extract status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type=%q", ct)
	}

	events := parseSSE(t, w.Body.String())
	var types []string
	for _, evt := range events {
		types = append(types, evt.Type)
	}
	if got := strings.Join(types, ","); got != "start,loaded,extracted,done" {
		t.Fatalf("events=%s (%+v)", got, events)
	}

	var done struct {
		RunID string `json:"runId"`
	}
	if err := json.Unmarshal(events[len(events)-1].Data, &done); err != nil || done.RunID == "" {
		t.Fatalf("done data=%s: %v", events[len(events)-1].Data, err)
	}
	return done.RunID
}

func TestExtractAndQueryRun(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	runID := extractRun(t, s)

	w := s.do(t, http.MethodGet, "/api/runs", nil, "")
	var list struct {
		Runs []store.Run `json:"runs"`
	}
	decode(t, w, &list)
	if len(list.Runs) != 1 || list.Runs[0].ID != runID || list.Runs[0].Filename != "资产负债表.csv" {
		t.Fatalf("runs=%+v", list.Runs)
	}

	w = s.do(t, http.MethodGet, "/api/runs/"+runID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get run status=%d", w.Code)
	}
	var run store.Run
	decode(t, w, &run)
	if run.Result == nil || len(run.Result.Table.Rows) != 10 || !run.Balanced {
		t.Fatalf("unexpected run: %+v", run)
	}

	w = s.do(t, http.MethodGet, "/api/runs/"+runID+"/cells", nil, "")
	var cells struct {
		Cells []json.RawMessage `json:"cells"`
	}
	decode(t, w, &cells)
	if len(cells.Cells) != 16 {
		t.Fatalf("cells=%d, want 16", len(cells.Cells))
	}

	if w := s.do(t, http.MethodGet, "/api/runs/missing", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing run status=%d", w.Code)
	}
	if w := s.do(t, http.MethodDelete, "/api/runs/"+runID, nil, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/runs/"+runID, nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("deleted run status=%d", w.Code)
	}
}

func TestExportDownloadOnce(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	runID := extractRun(t, s)

	w := s.do(t, http.MethodPost, "/api/runs/"+runID+"/export?format=xlsx", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("export status=%d body=%s", w.Code, w.Body.String())
	}
	var exp struct {
		Filename    string `json:"filename"`
		DownloadURL string `json:"downloadUrl"`
	}
	decode(t, w, &exp)
	if exp.Filename != "Standard_BS_Report.xlsx" {
		t.Fatalf("filename=%q", exp.Filename)
	}

	w = s.do(t, http.MethodGet, exp.DownloadURL, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download status=%d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "Standard_BS_Report.xlsx") {
		t.Fatalf("content-disposition=%q", cd)
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open download: %v", err)
	}
	defer f.Close()
	v, err := f.GetCellValue("Standard", "A2")
	if err != nil || v != "货币资金" {
		t.Fatalf("A2=%q, %v", v, err)
	}

	if w := s.do(t, http.MethodGet, exp.DownloadURL, nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("second download status=%d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/runs/"+runID+"/export?format=pdf", nil, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("pdf export status=%d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/runs/"+runID+"/export?format=csv", nil, "")
	decode(t, w, &exp)
	w = s.do(t, http.MethodGet, exp.DownloadURL, nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "资产总计,6000.00,7500.00") {
		t.Fatalf("csv download status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestExtractRejectsBadInput(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	if w := s.upload(t, "notes.docx", "x", "BS"); w.Code != http.StatusBadRequest {
		t.Fatalf("docx status=%d", w.Code)
	}
	if w := s.upload(t, "bs.csv", balanceSheetCSV, "cash-flow"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad kind status=%d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/extract", nil, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("no file status=%d", w.Code)
	}
}

func TestSettingsAndStatus(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w := s.do(t, http.MethodPatch, "/api/settings", []byte(`{"defaultKind":"pl","tolerance":0.5}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", w.Code, w.Body.String())
	}
	var settings struct {
		DefaultKind string  `json:"defaultKind"`
		Tolerance   float64 `json:"tolerance"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/settings", nil, ""), &settings)
	if settings.DefaultKind != "income-statement" || settings.Tolerance != 0.5 {
		t.Fatalf("settings=%+v", settings)
	}

	w = s.do(t, http.MethodPatch, "/api/settings", []byte(`{"defaultKind":"CF","tolerance":1}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid kind status=%d", w.Code)
	}
	decode(t, s.do(t, http.MethodGet, "/api/settings", nil, ""), &settings)
	if settings.Tolerance != 0.5 {
		t.Fatalf("rejected update must not apply: %+v", settings)
	}

	var status StatusResponse
	decode(t, s.do(t, http.MethodGet, "/api/status", nil, ""), &status)
	if strings.Join(status.Schemas, ",") != "balance-sheet,income-statement" || status.LastRunTime != "" {
		t.Fatalf("status=%+v", status)
	}

	var schemas struct {
		Schemas []SchemaInfo `json:"schemas"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/schemas", nil, ""), &schemas)
	if len(schemas.Schemas) != 2 || schemas.Schemas[0].Short != "BS" || len(schemas.Schemas[0].Periods) != 2 {
		t.Fatalf("schemas=%+v", schemas.Schemas)
	}
}

func TestContentDisposition(t *testing.T) {
	t.Parallel()

	got := contentDisposition("Standard_PL_Report.csv")
	want := "attachment; filename=\"Standard_PL_Report.csv\"; filename*=UTF-8''Standard_PL_Report.csv"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}
