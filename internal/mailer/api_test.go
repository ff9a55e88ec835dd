package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestAPIMailerSend(t *testing.T) {
	t.Parallel()

	var got apiSendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("auth header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewAPIMailer(server.URL, "test-key", "noreply@example.com", "SmartReminder", discardLogger())
	if err := m.Send(context.Background(), "to@example.com", "Hi", "body"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got.To != "to@example.com" || got.Subject != "Hi" || got.Text != "body" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.From != "SmartReminder <noreply@example.com>" {
		t.Fatalf("From = %q", got.From)
	}
}

func TestAPIMailerRemoteRejection(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid recipient", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	m := NewAPIMailer(server.URL, "test-key", "noreply@example.com", "SmartReminder", discardLogger())
	if err := m.Send(context.Background(), "to@example.com", "Hi", "body"); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestAPIMailerUnconfigured(t *testing.T) {
	t.Parallel()

	m := NewAPIMailer("", "", "noreply@example.com", "SmartReminder", discardLogger())
	if err := m.Send(context.Background(), "to@example.com", "Hi", "body"); err == nil {
		t.Fatal("expected deterministic failure without credentials")
	}
}

func TestSMTPMailerUnconfigured(t *testing.T) {
	t.Parallel()

	m := NewSMTPMailer("smtp.example.com", 587, "", "", "SmartReminder", discardLogger())
	if err := m.Send(context.Background(), "to@example.com", "Hi", "body"); err == nil {
		t.Fatal("expected deterministic failure without credentials")
	}
}
