package execclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"judgegate/internal/judge/execclient"
	"judgegate/internal/judge/model"
)

func newClient(t *testing.T, handler http.HandlerFunc, cfg execclient.Config) *execclient.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.BaseURL = server.URL
	client, err := execclient.NewClient(cfg)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return client
}

func TestExecuteRequestWireFormat(t *testing.T) {
	t.Parallel()

	var captured map[string]interface{}
	var gotAuth string
	var gotQuery string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Auth-Token")
		gotQuery = r.URL.RawQuery
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"stdout": "3\n",
			"status": map[string]interface{}{"id": 3, "description": "Accepted"},
		})
	}, execclient.Config{AuthKey: "secret", Timeout: 2 * time.Second})

	cpu := 2.5
	mem := 128
	outcome, err := client.Execute(context.Background(), 71, "print(1+2)", "1 2", &model.ExecutionLimits{
		CPUTimeSeconds: &cpu,
		MemoryMB:       &mem,
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if gotAuth != "secret" {
		t.Fatalf("expected auth header, got %q", gotAuth)
	}
	if gotQuery != "base64_encoded=false&wait=true" {
		t.Fatalf("unexpected query string %q", gotQuery)
	}
	if captured["source_code"] != "print(1+2)" || captured["stdin"] != "1 2" {
		t.Fatalf("unexpected request body: %v", captured)
	}
	if captured["language_id"].(float64) != 71 {
		t.Fatalf("unexpected language id: %v", captured["language_id"])
	}
	if captured["cpu_time_limit"].(float64) != 2.5 {
		t.Fatalf("unexpected cpu limit: %v", captured["cpu_time_limit"])
	}
	// The backend takes its memory limit in kilobytes.
	if captured["memory_limit"].(float64) != 128*1024 {
		t.Fatalf("unexpected memory limit: %v", captured["memory_limit"])
	}
	if _, present := captured["wall_time_limit"]; present {
		t.Fatalf("unset wall time limit must be omitted, got %v", captured["wall_time_limit"])
	}

	if outcome.Stdout != "3\n" || outcome.Status.ID != model.ExecStatusAccepted {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestExecuteNilLimitsOmitsAllLimits(t *testing.T) {
	t.Parallel()

	var captured map[string]interface{}
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"stdout": "",
			"status": map[string]interface{}{"id": 3, "description": "Accepted"},
		})
	}, execclient.Config{Timeout: 2 * time.Second})

	if _, err := client.Execute(context.Background(), 71, "x", "", nil); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	for _, key := range []string{"cpu_time_limit", "memory_limit", "wall_time_limit"} {
		if _, present := captured[key]; present {
			t.Fatalf("expected %s to be omitted, got %v", key, captured[key])
		}
	}
}

func TestExecuteNonSuccessStatusIsTransportError(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("queue full"))
	}, execclient.Config{Timeout: 2 * time.Second})

	_, err := client.Execute(context.Background(), 71, "x", "", nil)
	if !execclient.IsTransportError(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	te := err.(*execclient.TransportError)
	if te.Status == nil || *te.Status != http.StatusBadGateway {
		t.Fatalf("expected status 502 on transport error, got %+v", te)
	}
	if te.Message != "queue full" {
		t.Fatalf("expected body as message, got %q", te.Message)
	}
}

func TestExecuteTimeoutIsTransportError(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}, execclient.Config{Timeout: 50 * time.Millisecond})

	_, err := client.Execute(context.Background(), 71, "x", "", nil)
	if !execclient.IsTransportError(err) {
		t.Fatalf("expected transport error on timeout, got %v", err)
	}
	te := err.(*execclient.TransportError)
	if te.Status != nil {
		t.Fatalf("timeout carries no HTTP status, got %d", *te.Status)
	}
}

func TestExecuteMalformedResponseIsTransportError(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}, execclient.Config{Timeout: 2 * time.Second})

	_, err := client.Execute(context.Background(), 71, "x", "", nil)
	if !execclient.IsTransportError(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	okClient := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/about" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"version":"1.13.0"}`))
	}, execclient.Config{Timeout: 2 * time.Second})

	status, err := okClient.Probe(context.Background())
	if err != nil || status != http.StatusOK {
		t.Fatalf("expected healthy probe, got status=%d err=%v", status, err)
	}

	downClient := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, execclient.Config{Timeout: 2 * time.Second})

	status, err = downClient.Probe(context.Background())
	if err == nil {
		t.Fatal("expected probe error on 503")
	}
	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected probe to report status 503, got %d", status)
	}
}
