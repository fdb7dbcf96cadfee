package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientEmbed_OpenAIShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("expected model test-model, got %s", req.Model)
		}
		if len(req.Input) != 2 {
			t.Errorf("expected 2 inputs, got %d", len(req.Input))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 0, "embedding": []float32{0.1, 0.2}},
				{"index": 1, "embedding": []float32{0.3, 0.4}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "test-model", nil)
	defer client.Close()

	vectors, err := client.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if len(vectors[0]) != 2 || vectors[0][0] != 0.1 {
		t.Errorf("unexpected first vector: %v", vectors[0])
	}

	dim, err := client.Dimension(context.Background())
	if err != nil {
		t.Fatalf("Dimension returned error: %v", err)
	}
	if dim != 2 {
		t.Errorf("expected cached dimension 2, got %d", dim)
	}
}

func TestClientEmbed_BareEmbeddingsShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{1, 2, 3}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "test-model", nil)
	defer client.Close()

	vectors, err := client.Embed(context.Background(), []string{"only"})
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != 3 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
}

func TestClientEmbed_RateLimitIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "test-model", nil)
	defer client.Close()

	_, err := client.Embed(context.Background(), []string{"a"})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	var retryable *RetryableError
	if !errors.As(err, &retryable) {
		t.Fatalf("expected RetryableError, got %T: %v", err, err)
	}
	if retryable.RetryAfter.Seconds() != 7 {
		t.Errorf("expected retry-after 7s, got %v", retryable.RetryAfter)
	}
}

func TestClientEmbed_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 0, "embedding": []float32{0.5}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "test-model", nil)
	defer client.Close()

	_, err := client.Embed(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error when vector count does not match input count")
	}
}
