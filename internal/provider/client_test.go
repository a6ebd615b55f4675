package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListCallsDecodesBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("auth header = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q", got)
		}
		w.Write([]byte(`[{"id":"c1","status":"ended"},{"id":"c2","status":"ended"}]`))
	}))
	defer srv.Close()

	calls, err := NewClient(srv.URL).ListCalls(context.Background(), "k", 50)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(calls) != 2 || calls[0].ID != "c1" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestListCallsDecodesWrappedResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"id":"c1"}]}`))
	}))
	defer srv.Close()

	calls, err := NewClient(srv.URL).ListCalls(context.Background(), "k", 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(calls) != 1 || calls[0].ID != "c1" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestGetCallNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetCall(context.Background(), "k", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetCallDecodesAnalysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/call/c1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"id":"c1","status":"ended","endedReason":"voicemail","analysis":{"summary":"left message","structuredData":{"caller_name":"Pat"}}}`))
	}))
	defer srv.Close()

	call, err := NewClient(srv.URL).GetCall(context.Background(), "k", "c1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if call.Summary() != "left message" {
		t.Errorf("summary = %q", call.Summary())
	}
	if call.Structured().PrimaryName() != "Pat" {
		t.Errorf("name = %q", call.Structured().PrimaryName())
	}
}

func TestEndCallErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %q", r.Method)
		}
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"call already ended"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).EndCall(context.Background(), "k", "c1")
	if err == nil {
		t.Fatalf("expected error")
	}
}
