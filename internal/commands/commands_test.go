package commands_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "stmtcheck-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "stmtcheck")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/stmtcheck")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// runStmtcheck runs the binary in dir with a clean stmtcheck environment plus
// env ("KEY=value").
func runStmtcheck(t *testing.T, dir string, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = dir
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "OPENAI_") || strings.HasPrefix(kv, "STMTCHECK_") {
			continue
		}
		cmd.Env = append(cmd.Env, kv)
	}
	cmd.Env = append(cmd.Env, env...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func testdata(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "..", "testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeLLM answers chat completions by structured-output schema name.
type fakeLLM struct {
	mu      sync.Mutex
	replies map[string]string
	calls   map[string]int
}

func (f *fakeLLM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model          string `json:"model"`
		ResponseFormat struct {
			JSONSchema struct {
				Name string `json:"name"`
			} `json:"json_schema"`
		} `json:"response_format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := req.ResponseFormat.JSONSchema.Name

	f.mu.Lock()
	content, ok := f.replies[name]
	f.calls[name]++
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "unexpected schema " + name, "type": "invalid_request_error"},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   req.Model,
		"choices": []any{map[string]any{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

func (f *fakeLLM) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func statementReplies(closing string) map[string]string {
	yes := `{"is_bank_statement": true, "reason": "ok"}`
	business := `{"name": "Acme Consulting LLC", "address": {"street": "100 main street", ` +
		`"city": "springfield", "state": "il", "zip": "62701", "country": "us"}}`
	balances := `{"opening_balance": {"amount": "1,000.00", "currency": "USD"}, "opening_date": "2025-01-01", ` +
		`"closing_balance": {"amount": "` + closing + `", "currency": "USD"}, "closing_date": "2025-01-31"}`
	transactions := `{"transactions": [` +
		`{"date": "2025-01-05", "reference": "", "description": "Client deposit", "amount": "1500.00", "currency": "USD", "type": "credit"},` +
		`{"date": "2025-01-09", "reference": "CHK 1042", "description": "Rent", "amount": "-200.00", "currency": "USD", "type": "debit"},` +
		`{"date": "2025-01-20", "reference": "", "description": "Bank fee", "amount": "15.00", "currency": "USD", "type": "debit"}]}`

	return map[string]string{
		"bank_info":          yes,
		"statement_period":   yes,
		"customer_info":      yes,
		"classify_statement": yes,
		"business_info":      business,
		"balances":           balances,
		"page_transactions":  transactions,
	}
}

func newFakeLLM(t *testing.T, replies map[string]string) (*fakeLLM, []string) {
	t.Helper()
	f := &fakeLLM{replies: replies, calls: make(map[string]int)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, []string{"OPENAI_API_KEY=test-key", "OPENAI_BASE_URL=" + srv.URL + "/v1"}
}
