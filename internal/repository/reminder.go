package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartreminder/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	FindDuePending(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error)
	MarkSent(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Reminder, error)
	ListByRecipient(ctx context.Context, recipient string, includeSent bool) ([]models.Reminder, error)
}

type reminderRepository struct {
	db *pgxpool.Pool
}

func NewReminderRepository(db *pgxpool.Pool) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	// Intake validates upstream; the store still refuses records that would
	// violate its own non-null constraints.
	if strings.TrimSpace(reminder.Recipient) == "" || strings.TrimSpace(reminder.Body) == "" || reminder.DueAt.IsZero() {
		return fmt.Errorf("%w: recipient, body and due_at are required", models.ErrValidation)
	}
	if reminder.Subject == "" {
		reminder.Subject = "Reminder"
	}
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = time.Now().UTC()
	}

	insertQuery := `
	INSERT INTO reminders (recipient, subject, body, due_at, sent, created_at)
	VALUES ($1, $2, $3, $4, false, $5)
	RETURNING id
	`

	err := r.db.QueryRow(ctx, insertQuery,
		reminder.Recipient, reminder.Subject, reminder.Body, reminder.DueAt.UTC(), reminder.CreatedAt,
	).Scan(&reminder.ID)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}

	return nil
}

func (r *reminderRepository) FindDuePending(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	query := `
	SELECT id, recipient, subject, body, due_at, sent, created_at
	FROM reminders
	WHERE sent = false AND due_at <= $1
	ORDER BY due_at ASC
	LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		var reminder models.Reminder
		err := rows.Scan(
			&reminder.ID, &reminder.Recipient, &reminder.Subject, &reminder.Body,
			&reminder.DueAt, &reminder.Sent, &reminder.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}
		reminders = append(reminders, reminder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}

	return reminders, nil
}

// MarkSent flips sent from false to true for exactly one record. The
// conditional update is the single point of truth against double sends under
// concurrent cycles: a row already sent matches zero rows and the call is a
// no-op. A row that no longer exists at all reports ErrNotFound.
func (r *reminderRepository) MarkSent(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE reminders SET sent = true WHERE id = $1 AND sent = false`, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder as sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reminders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check reminder existence: %w", err)
		}
		if !exists {
			return models.ErrNotFound
		}
		// already sent: idempotent no-op
	}
	return nil
}

func (r *reminderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *reminderRepository) GetByID(ctx context.Context, id int64) (*models.Reminder, error) {
	query := `
	SELECT id, recipient, subject, body, due_at, sent, created_at
	FROM reminders
	WHERE id = $1
	`

	var reminder models.Reminder
	err := r.db.QueryRow(ctx, query, id).Scan(
		&reminder.ID, &reminder.Recipient, &reminder.Subject, &reminder.Body,
		&reminder.DueAt, &reminder.Sent, &reminder.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}

	return &reminder, nil
}

func (r *reminderRepository) ListByRecipient(ctx context.Context, recipient string, includeSent bool) ([]models.Reminder, error) {
	query := `
	SELECT id, recipient, subject, body, due_at, sent, created_at
	FROM reminders
	WHERE recipient = $1
	`
	if !includeSent {
		query += " AND sent = false"
	}
	query += " ORDER BY due_at ASC"

	rows, err := r.db.Query(ctx, query, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		var reminder models.Reminder
		err := rows.Scan(
			&reminder.ID, &reminder.Recipient, &reminder.Subject, &reminder.Body,
			&reminder.DueAt, &reminder.Sent, &reminder.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}
		reminders = append(reminders, reminder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}

	return reminders, nil
}
