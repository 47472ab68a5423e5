package resumeapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientCreateAndUpdate(t *testing.T) {
	var gotMethods []string
	var lastBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethods = append(gotMethods, r.Method+" "+r.URL.Path)
		lastBody = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&lastBody)
		status := http.StatusOK
		if r.Method == http.MethodPost {
			status = http.StatusCreated
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(ResumeEnvelope{Resume: Resource{ID: "r-1", Status: StatusDraft}})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/api/v1/", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	docs := []SourceDocument{{Name: "cv.pdf", Size: 10, Type: "application/pdf"}}
	res, err := client.Create(context.Background(), Payload{JobDescription: String("Data analyst"), SourceDocuments: &docs})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.ID != "r-1" {
		t.Fatalf("expected id r-1, got %s", res.ID)
	}

	if _, err := client.Update(context.Background(), "r-1", Payload{GeneratedResume: String("# Resume")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, ok := lastBody["sourceDocuments"]; ok {
		t.Fatalf("partial update must not carry absent fields: %v", lastBody)
	}
	if lastBody["generatedResume"] != "# Resume" {
		t.Fatalf("unexpected body: %v", lastBody)
	}

	want := []string{"POST /api/v1/resumes", "PUT /api/v1/resumes/r-1"}
	for i, w := range want {
		if gotMethods[i] != w {
			t.Fatalf("request %d: expected %s, got %s", i, w, gotMethods[i])
		}
	}
}

func TestClientEmptyDocumentListIsSent(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_ = json.NewEncoder(w).Encode(ResumeEnvelope{Resume: Resource{ID: "r-1"}})
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, nil)
	empty := []SourceDocument{}
	if _, err := client.Update(context.Background(), "r-1", Payload{SourceDocuments: &empty}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if string(raw["sourceDocuments"]) != "[]" {
		t.Fatalf("expected explicit empty list, got %s", raw["sourceDocuments"])
	}
}

func TestClientErrorClassification(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
		sentinel  error
	}{
		{status: http.StatusBadRequest, retryable: false, sentinel: ErrRejected},
		{status: http.StatusNotFound, retryable: false, sentinel: ErrNotFound},
		{status: http.StatusInternalServerError, retryable: true},
		{status: http.StatusTooManyRequests, retryable: true},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":{"code":"x","message":"boom"}}`))
		}))
		client, _ := NewClient(srv.URL, nil)
		_, err := client.Update(context.Background(), "r-1", Payload{FinalResume: String("done")})
		srv.Close()

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != tc.status {
			t.Fatalf("status %d: expected APIError, got %v", tc.status, err)
		}
		if Retryable(err) != tc.retryable {
			t.Fatalf("status %d: expected retryable=%v", tc.status, tc.retryable)
		}
		if tc.sentinel != nil && !errors.Is(err, tc.sentinel) {
			t.Fatalf("status %d: expected %v", tc.status, tc.sentinel)
		}
	}
}

func TestClientUpdateRequiresID(t *testing.T) {
	client, _ := NewClient("http://example.invalid", nil)
	if _, err := client.Update(context.Background(), " ", Payload{}); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestStatusOrdering(t *testing.T) {
	if !StatusDraft.Before(StatusGenerated) || StatusFinalized.Before(StatusGenerated) {
		t.Fatalf("unexpected status ordering")
	}
	if Status("BOGUS").Valid() {
		t.Fatalf("expected unknown status invalid")
	}
}
