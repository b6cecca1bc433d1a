package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tpgen-hq/tpgen/pkg/catalog"
	"tpgen-hq/tpgen/pkg/check"
	"tpgen-hq/tpgen/pkg/config"
	"tpgen-hq/tpgen/pkg/document/lint"
	"tpgen-hq/tpgen/pkg/telemetry"
)

const selection = `{
	"cpu": "Ryzen Threadripper",
	"gpu": "Radeon RX 7900 Series",
	"machines": [2, 1],
	"os": {"method": "same", "same": {"os": "Ubuntu 22.04", "deployment": "Bare Metal"}},
	"kernel": {"method": "same", "same": {"type": "LTS", "version": "6.1"}},
	"firmware": {"gpu_version": "23.40", "comparison": true},
	"test_cases": [201, 101]
}`

const plainPlan = `hardware:
  cpu: Intel Xeon
  gpu: Radeon Pro W7800
`

func newTestServer(t *testing.T, opts ...func(*Deps)) (*Server, *telemetry.Telemetry) {
	t.Helper()
	cfg := config.NewDefault()
	tel, err := telemetry.New(&cfg.Telemetry, "test", telemetry.WithLogWriter(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	checker, err := check.New(nil, check.Options{UseDecoder: true, Source: "http"},
		check.WithLogger(tel.Logger().Slog()), check.WithMetrics(tel.Metrics()))
	if err != nil {
		t.Fatal(err)
	}
	deps := Deps{
		Checker:   checker,
		Catalog:   catalog.NewMemoryCatalog(nil),
		Telemetry: tel,
		Version:   "1.2.3",
		Now:       func() time.Time { return time.Date(2024, 3, 9, 14, 5, 2, 0, time.Local) },
	}
	for _, o := range opts {
		o(&deps)
	}
	srv, err := New(&cfg.Server, deps)
	if err != nil {
		t.Fatal(err)
	}
	return srv, tel
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(nil, Deps{}); err == nil {
		t.Error("nil config accepted")
	}
	if _, err := New(&config.ServerConfig{}, Deps{}); err == nil {
		t.Error("missing checker accepted")
	}
}

func TestGenerate(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/v1/plans/generate", selection)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	resp := decode[struct {
		Document    string `json:"document"`
		Filename    string `json:"filename"`
		LineNumbers []int  `json:"lineNumbers"`
		Report      struct {
			Valid   bool   `json:"valid"`
			Verdict string `json:"verdict"`
		} `json:"report"`
	}](t, rec)

	if resp.Filename != "test_plan_2024-03-09_140502.yaml" {
		t.Errorf("filename = %q", resp.Filename)
	}
	if !resp.Report.Valid || resp.Report.Verdict != "True:0" {
		t.Errorf("report = %+v\n%s", resp.Report, resp.Document)
	}
	if len(resp.LineNumbers) != strings.Count(resp.Document, "\n") {
		t.Errorf("%d line numbers for %d lines", len(resp.LineNumbers), strings.Count(resp.Document, "\n"))
	}
	if strings.Index(resp.Document, "Machine B") > strings.Index(resp.Document, "Machine A") {
		t.Error("machines not in selection order")
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestGenerate_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name string
		body string
		kind string
	}{
		{"not json", "{", "invalid_json"},
		{"unknown machine", `{"machines": [99]}`, "unknown_reference"},
		{"per-machine entry for unselected machine", `{
			"machines": [1],
			"os": {"method": "individual", "machines": {"5": {"os": "RHEL 8", "deployment": "VM"}}}
		}`, "invalid_selection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodPost, "/api/v1/plans/generate", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if body := decode[errorBody](t, rec); body.Error != tt.kind {
				t.Errorf("error = %+v", body)
			}
		})
	}
}

func TestLint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/v1/documents/lint", "hardware:\n\tcpu: x\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	res := decode[lint.Result](t, rec)
	if !res.HasBlockingError || res.Diagnostics[0].Line != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestValidateDocument(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/v1/documents/validate?name=lab.yaml", plainPlan)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rep := decode[check.Report](t, rec)
	if rep.Valid || rep.Stage != check.StageCompatibility || rep.Verdict == "" {
		t.Errorf("report = %+v", rep)
	}
}

func TestValidateConfiguration(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"yamlData": {"hardware": {"cpu": "Ryzen 9", "gpu": "Radeon Pro W7800", "machines": [{"id": "one"}]}}}`
	rec := do(t, srv.Handler(), http.MethodPost, "/api/v1/configurations/validate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	res := decode[ConfigurationResult](t, rec)
	if res.Success || res.Error == nil {
		t.Fatalf("result = %+v", res)
	}
	if res.Error.Code != "E001" || res.Error.Key != "environment.os.method" || !strings.HasPrefix(res.Verdict, "False:E001") {
		t.Errorf("error = %+v", res.Error)
	}

	for _, missing := range []string{`{}`, `{"yamlData": null}`} {
		rec = do(t, srv.Handler(), http.MethodPost, "/api/v1/configurations/validate", missing)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", missing, rec.Code)
		}
	}
}

func TestCompatibility(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/v1/documents/compatibility", "hardware:\n  cpu: EPYC\n  gpu: Radeon Pro W7800\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	rep := decode[catalog.Report](t, rec)
	if len(rep.Compatible) != 1 || rep.Compatible[0].Name != "Machine D" {
		t.Errorf("compatible = %+v", rep.Compatible)
	}

	rec = do(t, srv.Handler(), http.MethodPost, "/api/v1/documents/compatibility", "hardware: [unclosed\n")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unparsable document: status = %d", rec.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/v1/catalog/machines", "")
	if m := decode[MachinesResponse](t, rec); len(m.Machines) != 15 {
		t.Errorf("machines = %d", len(m.Machines))
	}
	rec = do(t, srv.Handler(), http.MethodGet, "/api/v1/catalog/test-cases", "")
	if tc := decode[TestCasesResponse](t, rec); len(tc.TestCases) == 0 || tc.TestCases[0].ID != 101 {
		t.Errorf("test cases = %+v", tc.TestCases)
	}

	if rec := do(t, srv.Handler(), http.MethodPost, "/api/v1/catalog/machines", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST machines: status = %d", rec.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	srv, _ := newTestServer(t, func(d *Deps) { d.MaxBodyBytes = 16 })
	rec := do(t, srv.Handler(), http.MethodPost, "/api/v1/documents/validate", plainPlan)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	do(t, h, http.MethodPost, "/api/v1/documents/validate", plainPlan)

	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("/health = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/ready", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "catalog") {
		t.Errorf("/ready = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/version", ""); !strings.Contains(rec.Body.String(), "1.2.3") {
		t.Errorf("/version = %s", rec.Body.String())
	}

	rec := do(t, h, http.MethodGet, "/metrics", "")
	for _, want := range []string{
		`tpgen_documents_checked_total{result="compatibility",source="http"} 1`,
		`route="POST /api/v1/documents/validate"`,
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("/metrics missing %s", want)
		}
	}
}

func TestRequestIDPropagation(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}
}

func TestRecovery(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := do(t, h, http.MethodGet, "/", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.config.ListenAddress = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Addr() == nil {
		t.Fatal("server did not start")
	}

	resp, err := http.Post("http://"+srv.Addr().String()+"/api/v1/documents/lint", "text/plain", bytes.NewBufferString("a: 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if srv.IsRunning() {
		t.Error("server still running")
	}
}
