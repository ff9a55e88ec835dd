package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"smartreminder/internal/models"
	"smartreminder/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type createReminderRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	DueAt     string `json:"due_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Register wires the reminder CRUD surface onto mux. The scheduler runs
// independently of this surface; these handlers only produce and remove
// records the dispatcher consumes.
func Register(mux *http.ServeMux, svc *services.ReminderService, db *pgxpool.Pool, logger *logrus.Logger) {
	mux.HandleFunc("POST /reminders", CreateReminderHandler(svc, logger))
	mux.HandleFunc("GET /reminders", ListRemindersHandler(svc, logger))
	mux.HandleFunc("DELETE /reminders/{id}", DeleteReminderHandler(svc, logger))
	mux.HandleFunc("GET /healthz", HealthzHandler(db))
}

func CreateReminderHandler(svc *services.ReminderService, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}

		reminder, err := svc.CreateReminder(r.Context(), req.Recipient, req.Subject, req.Body, req.DueAt)
		if err != nil {
			if errors.Is(err, models.ErrValidation) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
			logger.WithError(err).Error("Failed to create reminder")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		writeJSON(w, http.StatusCreated, reminder)
	}
}

func ListRemindersHandler(svc *services.ReminderService, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipient := r.URL.Query().Get("recipient")
		if recipient == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "recipient query parameter is required"})
			return
		}
		includeSent := r.URL.Query().Get("include_sent") == "true"

		reminders, err := svc.ListReminders(r.Context(), recipient, includeSent)
		if err != nil {
			logger.WithError(err).Error("Failed to list reminders")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}
		if reminders == nil {
			reminders = []models.Reminder{}
		}

		writeJSON(w, http.StatusOK, reminders)
	}
}

func DeleteReminderHandler(svc *services.ReminderService, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid reminder id"})
			return
		}

		if err := svc.DeleteReminder(r.Context(), id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, errorResponse{Error: "reminder not found"})
				return
			}
			logger.WithError(err).Error("Failed to delete reminder")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func HealthzHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "database unreachable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
