package clamba

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brunobiangulo/clamba/detect"
)

const processesAnswer = `Here are the processes I identified:

[
  {"id": "01", "name": "Goods reception", "description": "Receive and inspect deliveries", "steps": ["check delivery note", "inspect goods", "sign reception"], "responsible_party": "Warehouse", "triggers": "Truck arrival"},
  {"id": "02", "name": "Storage", "description": "Store goods in the warehouse", "steps": ["assign location", "move goods", "update inventory"], "responsible_party": "Warehouse", "triggers": "Reception complete"},
  {"id": "03", "name": "Invoicing", "description": "Bill the client monthly", "steps": ["issue invoice", "send invoice", "track payment"], "responsible_party": "Accounting", "triggers": "End of month"}
]`

const dependenciesAnswer = `{"01": [], "02": ["01"], "03": ["02"]}`

// newOllamaStub fakes the two generate calls of a full analysis run. The
// dependency prompt is recognized by its orchestration header.
func newOllamaStub(t *testing.T) *httptest.Server {
	t.Helper()
	return newOllamaStubWithDeps(t, dependenciesAnswer)
}

func newOllamaStubWithDeps(t *testing.T, depsAnswer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		answer := processesAnswer
		if strings.Contains(req.Prompt, "ORCHESTRATION") {
			answer = depsAnswer
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":    "test-model",
			"response": answer,
		})
	}))
}

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.AI.Ollama.BaseURL = baseURL
	cfg.AI.Ollama.Model = "test-model"
	cfg.AI.Ollama.TimeoutSeconds = 5
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.Provider = "carrier-pigeon"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestAnalyzeContractEndToEnd(t *testing.T) {
	srv := newOllamaStub(t)
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "supply-agreement.txt")
	contract := "The supplier delivers goods monthly. The client stores and pays on invoice."
	if err := os.WriteFile(path, []byte(contract), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	report, err := a.AnalyzeContract(context.Background(), path,
		WithContractType(detect.ContractLogistics))
	if err != nil {
		t.Fatalf("AnalyzeContract() error = %v", err)
	}

	if report.Source != path {
		t.Errorf("Source = %q, want %q", report.Source, path)
	}
	if report.Contract.Name != "supply-agreement" {
		t.Errorf("contract name = %q, want file base name", report.Contract.Name)
	}
	if report.Contract.ID == "" {
		t.Error("contract id not generated")
	}
	if len(report.Contract.Automates) != 3 {
		t.Fatalf("got %d automates, want 3", len(report.Contract.Automates))
	}
	if report.Detection.DetectionMethod != "ai_ollama" {
		t.Errorf("detection method = %q", report.Detection.DetectionMethod)
	}
	if got := report.Dependencies["02"]; len(got) != 1 || got[0] != "01" {
		t.Errorf(`Dependencies["02"] = %v, want ["01"]`, got)
	}

	order, ok := report.Contract.ExecutionOrder()
	if !ok {
		t.Fatal("generated contract has a dependency cycle")
	}
	if len(order) != 3 || order[0] != "01" || order[2] != "03" {
		t.Errorf("execution order = %v, want [01 02 03]", order)
	}
}

func TestAnalyzeTextCycleDetectionDisabled(t *testing.T) {
	srv := newOllamaStubWithDeps(t, `{"01": ["03"], "02": ["01"], "03": ["02"]}`)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Analysis.CycleDetection = false

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	report, err := a.AnalyzeText(context.Background(), "contract text")
	if err != nil {
		t.Fatalf("AnalyzeText() error = %v", err)
	}
	if !report.Contract.HasCycles() {
		t.Error("HasCycles() = false, want the cyclic answer kept intact")
	}
	if _, ok := report.Contract.ExecutionOrder(); ok {
		t.Error("ExecutionOrder() succeeded on a cyclic dependency graph")
	}
}

func TestAnalyzeTextContractName(t *testing.T) {
	srv := newOllamaStub(t)
	defer srv.Close()

	a, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	report, err := a.AnalyzeText(context.Background(), "contract text",
		WithContractName("Custom name"), WithCreatedBy("alice"))
	if err != nil {
		t.Fatalf("AnalyzeText() error = %v", err)
	}
	if report.Contract.Name != "Custom name" {
		t.Errorf("name = %q", report.Contract.Name)
	}
	if report.Contract.CreatedBy != "alice" {
		t.Errorf("created_by = %q", report.Contract.CreatedBy)
	}
}

func TestAnalyzeContractMissingFile(t *testing.T) {
	a, err := New(testConfig("http://localhost:1"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := a.AnalyzeContract(context.Background(), "/no/such/contract.txt"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSaveReport(t *testing.T) {
	srv := newOllamaStub(t)
	defer srv.Close()

	a, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	report, err := a.AnalyzeText(context.Background(), "contract text")
	if err != nil {
		t.Fatalf("AnalyzeText() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := a.SaveReport(path, report); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if _, ok := decoded["contract"]; !ok {
		t.Error("report missing contract section")
	}
}
