package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/njchilds90/exactode"
	"github.com/njchilds90/exactode/internal/config"
	"github.com/njchilds90/exactode/internal/render"
	"github.com/njchilds90/exactode/symbolic"
)

func newTestServer(t *testing.T, opts ...exactode.Option) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default().Server
	s := New(cfg, exactode.New(opts...), zaptest.NewLogger(t))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// ============================================================
// /solve
// ============================================================

func TestSolve(t *testing.T) {
	_, ts := newTestServer(t)
	resp := post(t, ts.URL+"/solve", `{"name":"exact","m":"y*cos(x) + 2*x*exp(y)","n":"sin(x) + x^2*exp(y) - 1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var doc render.Document
	decodeBody(t, resp, &doc)
	assert.Equal(t, "exact", doc.Name)
	assert.True(t, doc.Solved)
	assert.Equal(t, "x^2*exp(y) + y*sin(x) - y = C", doc.SolutionText)
	assert.Len(t, doc.Steps, 5)
}

func TestSolve_FailureIsStillOK(t *testing.T) {
	_, ts := newTestServer(t)
	resp := post(t, ts.URL+"/solve", `{"m":"x*y","n":"x + y"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc render.Document
	decodeBody(t, resp, &doc)
	assert.False(t, doc.Solved)
	assert.Equal(t, exactode.TitleNoFactor, doc.Steps[len(doc.Steps)-1].Title)
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestSolve_BadRequests(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing n", `{"m":"y"}`, http.StatusBadRequest},
		{"unknown field", `{"m":"y","n":"x","p":"z"}`, http.StatusBadRequest},
		{"trailing data", `{"m":"y","n":"x"} {}`, http.StatusBadRequest},
		{"not json", `m=y`, http.StatusBadRequest},
		{"too large", `{"m":"` + strings.Repeat("x+", 1<<20) + `x","n":"1"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, http.MethodPost, "/solve", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSolve_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/solve")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// slowEngine delays parsing to exercise the solve timeout.
type slowEngine struct {
	*symbolic.Engine
	delay time.Duration
}

func (e slowEngine) Parse(text string) (symbolic.Expr, error) {
	time.Sleep(e.delay)
	return e.Engine.Parse(text)
}

func TestSolve_Timeout(t *testing.T) {
	cfg := config.Default().Server
	cfg.SolveTimeout = 10 * time.Millisecond
	eng := slowEngine{Engine: symbolic.NewEngine(symbolic.WithVariables("x", "y")), delay: 200 * time.Millisecond}
	s := New(cfg, exactode.New(exactode.WithEngine(eng)), zaptest.NewLogger(t))

	rec := serve(s, http.MethodPost, "/solve", `{"m":"y","n":"x"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "timed out")

	metrics := serve(s, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, metrics, `exactode_solves_total{outcome="timeout"} 1`)
}

func TestRequestID_Reused(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

// ============================================================
// /tool
// ============================================================

func callTool(t *testing.T, url string, req ToolRequest) ToolResponse {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	resp := post(t, url+"/tool", string(b))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out ToolResponse
	decodeBody(t, resp, &out)
	return out
}

func TestTool_SolveExactODE(t *testing.T) {
	_, ts := newTestServer(t)
	out := callTool(t, ts.URL, ToolRequest{Tool: "solve_exact_ode", Params: map[string]interface{}{"m": "y", "n": "x"}})
	assert.Empty(t, out.Error)
	assert.Equal(t, "x*y = C", out.String)
	assert.Equal(t, "x y = C", out.LaTeX)

	out = callTool(t, ts.URL, ToolRequest{Tool: "solve_exact_ode", Params: map[string]interface{}{"m": "y +", "n": "x"}})
	assert.Contains(t, out.Error, "No se pudo procesar")
}

func TestTool_SolveExactODE_Trees(t *testing.T) {
	_, ts := newTestServer(t)
	m := symbolic.ToJSONMap(symbolic.MustParse("2*x*y"))
	n := symbolic.ToJSONMap(symbolic.MustParse("x^2 - y^2"))
	out := callTool(t, ts.URL, ToolRequest{Tool: "solve_exact_ode", Params: map[string]interface{}{"m": m, "n": n}})
	assert.Empty(t, out.Error)
	assert.Equal(t, "x^2*y - y^3/3 = C", out.String)
}

func TestTool_Algebra(t *testing.T) {
	_, ts := newTestServer(t)
	tests := []struct {
		req    ToolRequest
		string string
	}{
		{ToolRequest{Tool: "diff", Params: map[string]interface{}{"expr": "x^3", "var": "x"}}, "3*x^2"},
		{ToolRequest{Tool: "integrate", Params: map[string]interface{}{"expr": "cos(x)", "var": "x"}}, "sin(x)"},
		{ToolRequest{Tool: "integrate", Params: map[string]interface{}{"expr": "x^2", "var": "x"}}, "x^3/3"},
		{ToolRequest{Tool: "integrate", Params: map[string]interface{}{"expr": "sin(x)^2 + cos(x)^2", "var": "x"}}, "x"},
		{ToolRequest{Tool: "simplify", Params: map[string]interface{}{"expr": "(x^2 - 1)/(x - 1)"}}, "x + 1"},
		{ToolRequest{Tool: "to_latex", Params: map[string]interface{}{"expr": "exp(t)"}}, "exp(t)"},
		{ToolRequest{Tool: "check_exactness", Params: map[string]interface{}{"m": "y", "n": "x"}}, "exact: true"},
	}
	for _, tt := range tests {
		t.Run(tt.req.Tool, func(t *testing.T) {
			out := callTool(t, ts.URL, tt.req)
			assert.Empty(t, out.Error)
			assert.Equal(t, tt.string, out.String)
		})
	}
}

func TestTool_FreeSymbols(t *testing.T) {
	_, ts := newTestServer(t)
	out := callTool(t, ts.URL, ToolRequest{Tool: "free_symbols", Params: map[string]interface{}{"expr": "b*sin(a) + pi"}})
	assert.Equal(t, []interface{}{"a", "b"}, out.Result)
}

func TestTool_Errors(t *testing.T) {
	_, ts := newTestServer(t)
	tests := []struct {
		req  ToolRequest
		want string
	}{
		{ToolRequest{Tool: "bogus"}, "unknown tool: bogus"},
		{ToolRequest{Tool: "diff", Params: map[string]interface{}{"var": "x"}}, "missing param: expr"},
		{ToolRequest{Tool: "diff", Params: map[string]interface{}{"expr": 3, "var": "x"}}, "must be a string or an expression object"},
		{ToolRequest{Tool: "integrate", Params: map[string]interface{}{"expr": "exp(x^2)", "var": "x"}}, "no closed-form"},
		{ToolRequest{Tool: "simplify", Params: map[string]interface{}{"expr": "1/(x - x)"}}, "undefined"},
	}
	for _, tt := range tests {
		out := callTool(t, ts.URL, tt.req)
		assert.Contains(t, out.Error, tt.want, tt.req.Tool)
	}
}

// ============================================================
// /schema, /health, /metrics
// ============================================================

func TestSchema(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/schema")
	require.NoError(t, err)
	defer resp.Body.Close()

	var spec struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	decodeBody(t, resp, &spec)
	var names []string
	for _, tool := range spec.Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{
		"solve_exact_ode", "check_exactness", "diff", "integrate",
		"simplify", "to_latex", "free_symbols", "mcp_spec",
	}, names)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	_, err = time.Parse(time.RFC3339, body["time"])
	assert.NoError(t, err)
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	serve(s, http.MethodPost, "/solve", `{"m":"y","n":"x"}`)
	serve(s, http.MethodPost, "/solve", `{"m":"x*y","n":"x + y"}`)
	serve(s, http.MethodPost, "/solve", `{"m":"y +","n":"x"}`)
	serve(s, http.MethodPost, "/tool", `{"tool":"solve_exact_ode","params":{"m":"y","n":"x"}}`)

	rec := serve(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	text := rec.Body.String()

	assert.Contains(t, text, `exactode_solves_total{outcome="solved"} 2`)
	assert.Contains(t, text, `exactode_solves_total{outcome="no_factor"} 1`)
	assert.Contains(t, text, `exactode_solves_total{outcome="error"} 1`)
	assert.Contains(t, text, `exactode_solve_duration_seconds_count 3`)
	assert.Contains(t, text, `exactode_http_requests_total{code="200",route="POST /solve"} 3`)
	assert.Contains(t, text, `exactode_http_requests_total{code="200",route="POST /tool"} 1`)
}

// ============================================================
// Lifecycle
// ============================================================

func TestServe_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(config.Default().Server, exactode.New(), zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Post("http://"+ln.Addr().String()+"/solve", "application/json", bytes.NewBufferString(`{"m":"y","n":"x"}`))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
