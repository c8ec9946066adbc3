package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPGateway_Success(t *testing.T) {
	var got relayRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key_123" {
			t.Errorf("unexpected Authorization header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "key_123", 5*time.Second)
	err := gw.Send(context.Background(), Message{
		Token: "tok_abc",
		Title: "Earthquake Alert",
		Body:  "M6.8 - 12 km - ~163 km from you.",
		Data:  map[string]string{"riskLevel": "HIGH"},
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.Token != "tok_abc" {
		t.Errorf("relayed token = %q, want tok_abc", got.Token)
	}
	if got.Data["riskLevel"] != "HIGH" {
		t.Errorf("relayed data = %v", got.Data)
	}
}

func TestHTTPGateway_InvalidTokenClassification(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "token not registered", status)
		}))

		gw := NewHTTPGateway(srv.URL, "", 5*time.Second)
		err := gw.Send(context.Background(), Message{Token: "tok_gone"})
		srv.Close()

		if err == nil {
			t.Fatalf("expected error for status %d", status)
		}
		if !IsInvalidToken(err) {
			t.Errorf("status %d should classify as invalid token, got %v", status, err)
		}
	}
}

func TestHTTPGateway_TransientClassification(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "try again", status)
		}))

		gw := NewHTTPGateway(srv.URL, "", 5*time.Second)
		err := gw.Send(context.Background(), Message{Token: "tok_busy"})
		srv.Close()

		if err == nil {
			t.Fatalf("expected error for status %d", status)
		}
		if IsInvalidToken(err) {
			t.Errorf("status %d must not classify as invalid token", status)
		}
		var pe *Error
		if !errors.As(err, &pe) || pe.Kind != KindTransient {
			t.Errorf("status %d should classify as transient, got %v", status, err)
		}
	}
}

func TestHTTPGateway_ConnectionFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // reject connections

	gw := NewHTTPGateway(srv.URL, "", time.Second)
	err := gw.Send(context.Background(), Message{Token: "tok_x"})
	if err == nil {
		t.Fatal("expected connection error")
	}
	if IsInvalidToken(err) {
		t.Error("network failure must not delete the device")
	}
}
