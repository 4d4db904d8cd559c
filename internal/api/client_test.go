package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type fakeTokens struct {
	token   string
	cleared atomic.Int32
}

func (f *fakeTokens) Token() string { return f.token }
func (f *fakeTokens) Clear() error {
	f.cleared.Add(1)
	f.token = ""
	return nil
}

func testClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts = append([]Option{
		WithRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}),
	}, opts...)
	return NewClient(server.URL, tokens, opts...)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":{"organizations":[]}}`))
	}, &fakeTokens{token: "tok-123"})

	if _, err := client.Do(context.Background(), OrganizationsQuery{}, nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
}

func TestClient_NoHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":{}}`))
	}, &fakeTokens{})

	if _, err := client.Do(context.Background(), OrganizationsQuery{}, nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("Authorization = %q, want empty", gotAuth)
	}
}

func TestClient_SendsOperationEnvelope(t *testing.T) {
	var got envelope
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"data":{"projects":[]}}`))
	}, &fakeTokens{})

	op := ProjectsQuery{OrganizationSlug: "acme"}
	if _, err := client.Do(context.Background(), op, nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got.OperationName != "GetProjects" {
		t.Errorf("operationName = %q, want GetProjects", got.OperationName)
	}
	if got.Variables["organizationSlug"] != "acme" {
		t.Errorf("variables = %v, want organizationSlug=acme", got.Variables)
	}
	if got.Query == "" {
		t.Error("query document should be sent")
	}
}

func TestClient_DecodesDataIntoOut(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"organizations":[{"__typename":"Organization","id":"1","name":"Acme","slug":"acme","contactEmail":"a@acme.io"}]}}`))
	}, &fakeTokens{})

	var out struct {
		Organizations []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"organizations"`
	}
	if _, err := client.Do(context.Background(), OrganizationsQuery{}, &out); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if len(out.Organizations) != 1 || out.Organizations[0].Name != "Acme" {
		t.Fatalf("decoded = %+v, want one Acme org", out.Organizations)
	}
}

func TestClient_PartialDataWithErrors(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"project":{"__typename":"Project","id":"p1","name":"Atlas","status":"ACTIVE"}},"errors":[{"message":"taskCount unavailable"}]}`))
	}, &fakeTokens{})

	var out struct {
		Project struct {
			Name string `json:"name"`
		} `json:"project"`
	}
	resp, err := client.Do(context.Background(), ProjectQuery{ID: "p1", OrganizationSlug: "acme"}, &out)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if out.Project.Name != "Atlas" {
		t.Errorf("partial data not decoded, got %+v", out)
	}
	if resp.Err() == nil {
		t.Error("Err() should surface the application errors")
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Message != "taskCount unavailable" {
		t.Errorf("Errors = %+v", resp.Errors)
	}
}

func TestClient_UnauthorizedClearsTokenAndFiresHook(t *testing.T) {
	var requests atomic.Int32
	tokens := &fakeTokens{token: "stale"}
	hookFired := false
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}, tokens, WithUnauthorizedHook(func() { hookFired = true }))

	_, err := client.Do(context.Background(), OrganizationsQuery{}, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Do() error = %v, want ErrUnauthorized", err)
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("requests = %d, want 1 (401 is not retried)", n)
	}
	if tokens.cleared.Load() != 1 {
		t.Error("token should be cleared after 401")
	}
	if !hookFired {
		t.Error("unauthorized hook should fire")
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var requests atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data":{"organizations":[]}}`))
	}, &fakeTokens{})

	if _, err := client.Do(context.Background(), OrganizationsQuery{}, nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if n := requests.Load(); n != 3 {
		t.Fatalf("requests = %d, want 3", n)
	}
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var requests atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, &fakeTokens{})

	_, err := client.Do(context.Background(), OrganizationsQuery{}, nil)
	if !IsNetworkError(err) {
		t.Fatalf("Do() error = %v, want network error", err)
	}
	if n := requests.Load(); n != 3 {
		t.Fatalf("requests = %d, want 3", n)
	}
}

func TestClient_ApplicationErrorsNotRetried(t *testing.T) {
	var requests atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"data":null,"errors":[{"message":"Organization not found"}]}`))
	}, &fakeTokens{})

	resp, err := client.Do(context.Background(), OrganizationQuery{Slug: "ghost"}, nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if resp.Err() == nil {
		t.Fatal("Err() should report application errors")
	}
	if n := requests.Load(); n != 1 {
		t.Fatalf("requests = %d, want 1", n)
	}
}
