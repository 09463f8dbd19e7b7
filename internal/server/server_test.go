package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pullwave/pullwave/pkg/scenario"
	"github.com/pullwave/pullwave/pkg/snapshot"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	p, err := scenario.Build(scenario.Scenario{
		Cells: []scenario.CellDef{{Name: "price", Value: 3.5}, {Name: "qty", Value: 2}},
		Sets:  []scenario.SetDef{{Name: "tags", Items: []string{"sale"}}},
		Nodes: []scenario.NodeDef{
			{Name: "total", Op: "mul", Inputs: []string{"price", "qty"}},
			{Name: "tag-count", Op: "count", Inputs: []string{"tags"}},
		},
		Outputs: []string{"total"},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	ts := httptest.NewServer(New(p, nil).Routes())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	ts := testServer(t)
	var body map[string]any
	if code := getJSON(t, ts.URL+"/healthz", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if body["nodes"] != float64(5) {
		t.Errorf("nodes = %v, want 5", body["nodes"])
	}
}

func TestGraphSnapshot(t *testing.T) {
	ts := testServer(t)
	var snap snapshot.Graph
	if code := getJSON(t, ts.URL+"/api/graph", &snap); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(snap.Nodes) != 5 {
		t.Errorf("snapshot has %d nodes, want 5", len(snap.Nodes))
	}
}

func TestGraphDOT(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Get(ts.URL + "/api/graph.dot")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestEvaluateNode(t *testing.T) {
	ts := testServer(t)

	var body struct {
		ID    string  `json:"id"`
		Value float64 `json:"value"`
	}
	if code := getJSON(t, ts.URL+"/api/nodes/total", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body.Value != 7 {
		t.Errorf("value = %v, want 7", body.Value)
	}

	if code := getJSON(t, ts.URL+"/api/nodes/nope", nil); code != http.StatusNotFound {
		t.Errorf("unknown node status = %d, want 404", code)
	}
}

func TestWriteCell(t *testing.T) {
	ts := testServer(t)

	if code := postJSON(t, ts.URL+"/api/cells/qty", `{"value": 5}`); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var body struct {
		Value float64 `json:"value"`
	}
	getJSON(t, ts.URL+"/api/nodes/total", &body)
	if body.Value != 17.5 {
		t.Errorf("total = %v after write, want 17.5", body.Value)
	}

	if code := postJSON(t, ts.URL+"/api/cells/nope", `{"value": 1}`); code != http.StatusNotFound {
		t.Errorf("unknown cell status = %d, want 404", code)
	}
	if code := postJSON(t, ts.URL+"/api/cells/qty", `not json`); code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", code)
	}
}

func TestUpdateSet(t *testing.T) {
	ts := testServer(t)

	if code := postJSON(t, ts.URL+"/api/sets/tags", `{"add": ["new", "clearance"], "remove": ["sale"]}`); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var body struct {
		Value float64 `json:"value"`
	}
	getJSON(t, ts.URL+"/api/nodes/tag-count", &body)
	if body.Value != 2 {
		t.Errorf("tag-count = %v, want 2", body.Value)
	}

	if code := postJSON(t, ts.URL+"/api/sets/nope", `{"add": ["x"]}`); code != http.StatusNotFound {
		t.Errorf("unknown set status = %d, want 404", code)
	}
}
