package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/reqrun/internal/model"
	"github.com/unkn0wn-root/reqrun/internal/vars"
)

type pathRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *pathRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	r.paths = append(r.paths, req.URL.Path)
	r.mu.Unlock()
	w.Write([]byte("ok"))
}

func (r *pathRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

func testProject(baseURL string) *model.Project {
	return &model.Project{
		ID:   "proj-1",
		Name: "checkout",
		Items: []model.ProjectItem{
			{Request: &model.Request{URL: baseURL + "/one"}},
			{Folder: &model.Folder{
				ID: "folder-a",
				Items: []model.ProjectItem{
					{Request: &model.Request{URL: baseURL + "/two"}},
				},
			}},
			{Request: &model.Request{URL: baseURL + "/three"}},
		},
	}
}

func testConfig() Config {
	return Config{Logger: zerolog.Nop()}
}

func TestSerialRunsInDocumentOrder(t *testing.T) {
	recorder := &pathRecorder{}
	server := httptest.NewServer(recorder)
	defer server.Close()

	log, err := NewSerial(testConfig(), nil).Run(context.Background(), testProject(server.URL))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(log.Iterations) != 1 {
		t.Fatalf("expected one iteration, got %d", len(log.Iterations))
	}

	paths := recorder.seen()
	want := []string{"/one", "/two", "/three"}
	if len(paths) != len(want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("expected document order %v, got %v", want, paths)
		}
	}

	execs := log.Iterations[0].Executions
	if len(execs) != 3 {
		t.Fatalf("expected 3 executions, got %d", len(execs))
	}
	if execs[1].FolderID != "folder-a" {
		t.Fatalf("expected folder id recorded, got %q", execs[1].FolderID)
	}
	for _, exec := range execs {
		if exec.Err != nil || exec.Log == nil || exec.Log.Response.Status != 200 {
			t.Fatalf("unexpected execution %+v", exec)
		}
	}
}

func TestSerialMultipleIterations(t *testing.T) {
	recorder := &pathRecorder{}
	server := httptest.NewServer(recorder)
	defer server.Close()

	cfg := testConfig()
	cfg.Iterations = 3
	log, err := NewSerial(cfg, nil).Run(context.Background(), testProject(server.URL))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(log.Iterations) != 3 {
		t.Fatalf("expected 3 iterations, got %d", len(log.Iterations))
	}
	if got := len(recorder.seen()); got != 9 {
		t.Fatalf("expected 9 requests, got %d", got)
	}
}

func TestSerialRecordsTransportFailures(t *testing.T) {
	project := &model.Project{
		ID: "p",
		Items: []model.ProjectItem{
			{Request: &model.Request{URL: "http://127.0.0.1:1/nope"}},
		},
	}
	log, err := NewSerial(testConfig(), nil).Run(context.Background(), project)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	exec := log.Iterations[0].Executions[0]
	if exec.Err != nil {
		t.Fatalf("transport failure must live in the log, got %v", exec.Err)
	}
	if exec.Log == nil || !exec.Log.Response.IsError() {
		t.Fatalf("expected error response recorded, got %+v", exec.Log)
	}
}

func TestSerialNilProject(t *testing.T) {
	if _, err := NewSerial(testConfig(), nil).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil project")
	}
}

func TestSerialCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig()
	cfg.Iterations = 2
	cfg.IterationDelay = 1 // forces the delay branch before iteration 2

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	log, err := NewSerial(cfg, nil).Run(ctx, testProject(server.URL))
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
	if log == nil {
		t.Fatalf("expected partial log on cancellation")
	}
}

func TestParallelRunsAllRequests(t *testing.T) {
	recorder := &pathRecorder{}
	server := httptest.NewServer(recorder)
	defer server.Close()

	cfg := testConfig()
	cfg.Workers = 2
	log, err := NewParallel(cfg, nil).Run(context.Background(), testProject(server.URL))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	paths := recorder.seen()
	sort.Strings(paths)
	want := []string{"/one", "/three", "/two"}
	if len(paths) != len(want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("expected all requests executed, got %v", paths)
		}
	}

	execs := log.Iterations[0].Executions
	if len(execs) != 3 {
		t.Fatalf("expected 3 executions, got %d", len(execs))
	}
	// Slots follow document order even though completion order is free.
	if execs[1].FolderID != "folder-a" {
		t.Fatalf("expected stable execution slots, got %+v", execs)
	}
}

func TestParallelFailureDoesNotCancelSiblings(t *testing.T) {
	recorder := &pathRecorder{}
	server := httptest.NewServer(recorder)
	defer server.Close()

	project := &model.Project{
		ID: "p",
		Items: []model.ProjectItem{
			{Request: &model.Request{URL: "http://127.0.0.1:1/dead"}},
			{Request: &model.Request{URL: server.URL + "/alive"}},
		},
	}
	log, err := NewParallel(testConfig(), nil).Run(context.Background(), project)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := recorder.seen(); len(got) != 1 || got[0] != "/alive" {
		t.Fatalf("expected the healthy request to run, got %v", got)
	}
	if !log.Iterations[0].Executions[0].Log.Response.IsError() {
		t.Fatalf("expected the dead request recorded as an error response")
	}
	if log.Iterations[0].Executions[1].Log.Response.Status != 200 {
		t.Fatalf("expected the healthy request to succeed")
	}
}

func TestBuildDepsScopesVariablesByProjectID(t *testing.T) {
	arena := vars.NewArena()
	cfg := testConfig()

	deps := buildDeps(cfg, &model.Project{ID: "p1", Variables: map[string]string{"base": "x"}}, arena)
	if deps.Vars == nil || deps.Resolver == nil {
		t.Fatalf("expected variable store and resolver wired")
	}
	if err := deps.Vars.Set("token", "t"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok := arena.Get("p1", "token"); !ok || got != "t" {
		t.Fatalf("expected variable stored under the project scope, got %q ok=%v", got, ok)
	}
	if got, _ := deps.Resolver.Resolve("base"); got != "x" {
		t.Fatalf("expected project variables resolvable, got %q", got)
	}
	if got, _ := deps.Resolver.Resolve("token"); got != "t" {
		t.Fatalf("expected captured variables resolvable, got %q", got)
	}
}

func TestBuildDepsFallsBackToProjectName(t *testing.T) {
	arena := vars.NewArena()
	deps := buildDeps(testConfig(), &model.Project{Name: "named"}, arena)
	if err := deps.Vars.Set("a", "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := arena.Get("named", "a"); !ok {
		t.Fatalf("expected name-keyed scope when id is empty")
	}
}

func TestVariableCaptureFlowsBetweenRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"s3cret"}`))
	})
	var gotAuth string
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Token")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	project := &model.Project{
		ID: "p",
		Items: []model.ProjectItem{
			{Request: &model.Request{
				URL: server.URL + "/login",
				Actions: &model.RequestActions{
					Response: []model.RunnableAction{{
						Enabled: true,
						Config: model.SetVariableAction{
							Name:   "token",
							Source: model.DataSource{Source: model.SourceBody, Side: model.SideResponse, Path: "token"},
						},
					}},
				},
			}},
			{Request: &model.Request{
				URL:     server.URL + "/me",
				Headers: "X-Token: {{token}}",
			}},
		},
	}

	if _, err := NewSerial(testConfig(), nil).Run(context.Background(), project); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotAuth != "s3cret" {
		t.Fatalf("expected captured token on the second request, got %q", gotAuth)
	}
}
