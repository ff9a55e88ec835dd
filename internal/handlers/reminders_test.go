package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"smartreminder/internal/models"
	"smartreminder/internal/services"

	"github.com/sirupsen/logrus"
)

type memRepo struct {
	mu        sync.Mutex
	nextID    int64
	reminders map[int64]*models.Reminder
}

func newMemRepo() *memRepo {
	return &memRepo{reminders: make(map[int64]*models.Reminder)}
}

func (m *memRepo) Create(ctx context.Context, r *models.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	clone := *r
	m.reminders[r.ID] = &clone
	return nil
}

func (m *memRepo) FindDuePending(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	return nil, nil
}

func (m *memRepo) MarkSent(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return models.ErrNotFound
	}
	r.Sent = true
	return nil
}

func (m *memRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reminders[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.reminders, id)
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id int64) (*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (m *memRepo) ListByRecipient(ctx context.Context, recipient string, includeSent bool) ([]models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reminder
	for _, r := range m.reminders {
		if r.Recipient == recipient && (includeSent || !r.Sent) {
			out = append(out, *r)
		}
	}
	return out, nil
}

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, recipient, subject, body string) error { return nil }

func newTestMux(t *testing.T) (*http.ServeMux, *memRepo) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	repo := newMemRepo()
	svc := services.NewReminderService(repo, noopMailer{}, nil, log, time.UTC)

	mux := http.NewServeMux()
	Register(mux, svc, nil, log)
	return mux, repo
}

func TestCreateReminderEndpoint(t *testing.T) {
	t.Parallel()
	mux, _ := newTestMux(t)

	body := `{"recipient":"a@b.com","subject":"Hi","body":"do it","due_at":"2999-01-02T15:04"}`
	req := httptest.NewRequest(http.MethodPost, "/reminders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created models.Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == 0 || created.Sent {
		t.Fatalf("unexpected record: %+v", created)
	}
}

func TestCreateReminderEndpointRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{{{`},
		{name: "bad email", body: `{"recipient":"nope","body":"x","due_at":"2999-01-02T15:04"}`},
		{name: "past due", body: `{"recipient":"a@b.com","body":"x","due_at":"2000-01-02T15:04"}`},
		{name: "missing body", body: `{"recipient":"a@b.com","due_at":"2999-01-02T15:04"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mux, _ := newTestMux(t)
			req := httptest.NewRequest(http.MethodPost, "/reminders", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestListRemindersEndpoint(t *testing.T) {
	t.Parallel()
	mux, repo := newTestMux(t)

	repo.Create(context.Background(), &models.Reminder{
		Recipient: "a@b.com", Subject: "Hi", Body: "x",
		DueAt: time.Now().UTC().Add(time.Hour), CreatedAt: time.Now().UTC(),
	})

	req := httptest.NewRequest(http.MethodGet, "/reminders?recipient=a@b.com", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var listed []models.Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d reminders, want 1", len(listed))
	}
}

func TestDeleteReminderEndpoint(t *testing.T) {
	t.Parallel()
	mux, repo := newTestMux(t)

	r := &models.Reminder{
		Recipient: "a@b.com", Subject: "Hi", Body: "x",
		DueAt: time.Now().UTC().Add(time.Hour), CreatedAt: time.Now().UTC(),
	}
	repo.Create(context.Background(), r)

	req := httptest.NewRequest(http.MethodDelete, "/reminders/1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/reminders/1", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
