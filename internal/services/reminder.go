package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"smartreminder/internal/mailer"
	"smartreminder/internal/models"
	"smartreminder/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	reminderCachePrefix = "reminder:recipient:"
	reminderCacheTTL    = 10 * time.Minute
	dueBatchSize        = 50
	cycleTimeout        = 2 * time.Minute
	sendTimeout         = 15 * time.Second
	maxParallelSends    = 10
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type ReminderService struct {
	repo     repository.ReminderRepository
	mailer   mailer.Mailer
	redis    *redis.Client
	logger   *logrus.Logger
	location *time.Location
	now      func() time.Time
}

func NewReminderService(repo repository.ReminderRepository, m mailer.Mailer, redisClient *redis.Client, logger *logrus.Logger, location *time.Location) *ReminderService {
	if location == nil {
		location = time.UTC
	}
	return &ReminderService{
		repo:     repo,
		mailer:   m,
		redis:    redisClient,
		logger:   logger,
		location: location,
		now:      time.Now,
	}
}

// CreateReminder validates intake fields and stores a pending reminder.
// dueAtRaw is wall-clock time in the configured reference zone (or RFC 3339
// with an explicit offset); it is normalized to UTC before storage.
func (s *ReminderService) CreateReminder(ctx context.Context, recipient, subject, body, dueAtRaw string) (*models.Reminder, error) {
	recipient = strings.TrimSpace(recipient)

	if recipient == "" || strings.TrimSpace(body) == "" || strings.TrimSpace(dueAtRaw) == "" {
		return nil, fmt.Errorf("%w: recipient, body and due_at are required", models.ErrValidation)
	}
	if !emailPattern.MatchString(recipient) {
		return nil, fmt.Errorf("%w: malformed recipient address", models.ErrValidation)
	}

	dueAt, err := s.parseDueAt(dueAtRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid due_at: %v", models.ErrValidation, err)
	}
	if !dueAt.After(s.now().UTC()) {
		return nil, fmt.Errorf("%w: due_at must be in the future", models.ErrValidation)
	}

	if subject == "" {
		subject = "Reminder"
	}

	reminder := &models.Reminder{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		DueAt:     dueAt,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, reminder); err != nil {
		return nil, err
	}

	s.invalidateRecipientCache(ctx, recipient)

	s.logger.WithFields(logrus.Fields{
		"reminder_id": reminder.ID,
		"recipient":   reminder.Recipient,
		"due_at":      reminder.DueAt,
	}).Info("Reminder created successfully")

	return reminder, nil
}

func (s *ReminderService) parseDueAt(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, raw, s.location); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// DeleteReminder removes a reminder regardless of its sent state.
func (s *ReminderService) DeleteReminder(ctx context.Context, id int64) error {
	reminder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateRecipientCache(ctx, reminder.Recipient)

	s.logger.WithFields(logrus.Fields{
		"reminder_id": id,
		"recipient":   reminder.Recipient,
	}).Info("Reminder deleted")

	return nil
}

func (s *ReminderService) ListReminders(ctx context.Context, recipient string, includeSent bool) ([]models.Reminder, error) {
	cacheKey := reminderCachePrefix + recipient
	if !includeSent {
		cacheKey += ":pending"
	}

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var cachedReminders []models.Reminder
			if err := json.Unmarshal([]byte(cached), &cachedReminders); err == nil {
				s.logger.WithField("recipient", recipient).Debug("Retrieved reminders from cache")
				return cachedReminders, nil
			}
		}
	}

	reminders, err := s.repo.ListByRecipient(ctx, recipient, includeSent)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		remindersJSON, err := json.Marshal(reminders)
		if err == nil {
			s.redis.Set(ctx, cacheKey, remindersJSON, reminderCacheTTL)
		}
	}

	return reminders, nil
}

func (s *ReminderService) invalidateRecipientCache(ctx context.Context, recipient string) {
	if s.redis == nil {
		return
	}

	patterns := []string{
		reminderCachePrefix + recipient,
		reminderCachePrefix + recipient + ":*",
	}

	for _, pattern := range patterns {
		keys, err := s.redis.Keys(ctx, pattern).Result()
		if err != nil {
			continue
		}
		if len(keys) > 0 {
			s.redis.Del(ctx, keys...)
		}
	}
}

// ProcessDueReminders runs one scan-and-dispatch cycle. The due set is
// computed against a single snapshot of now. Each reminder is dispatched
// independently with bounded parallelism; a failed send leaves the record
// pending so the next cycle picks it up again. Retry is unbounded and paced
// by the scan interval; there is no backoff and no attempt cap.
func (s *ReminderService) ProcessDueReminders() error {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	now := s.now().UTC()

	due, err := s.repo.FindDuePending(ctx, now, dueBatchSize)
	if err != nil {
		return fmt.Errorf("failed to query due reminders: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	s.logger.WithField("due", len(due)).Debug("Dispatching due reminders")

	var processed, failed atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxParallelSends)

	for _, reminder := range due {
		wg.Add(1)
		sem <- struct{}{}
		r := reminder
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if rec := recover(); rec != nil {
					failed.Add(1)
					s.logger.WithFields(logrus.Fields{
						"reminder_id": r.ID,
						"panic":       rec,
					}).Error("Panic while dispatching reminder")
				}
			}()

			if err := s.dispatch(ctx, &r); err != nil {
				failed.Add(1)
				return
			}
			processed.Add(1)
		}()
	}
	wg.Wait()

	if processed.Load() > 0 || failed.Load() > 0 {
		s.logger.WithFields(logrus.Fields{
			"processed": processed.Load(),
			"failed":    failed.Load(),
		}).Info("Processed due reminders")
	}

	return nil
}

func (s *ReminderService) dispatch(ctx context.Context, reminder *models.Reminder) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := s.mailer.Send(sendCtx, reminder.Recipient, reminder.Subject, reminder.Body); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"reminder_id": reminder.ID,
			"recipient":   reminder.Recipient,
		}).Error("Failed to send reminder")
		return err
	}

	if err := s.repo.MarkSent(ctx, reminder.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// deleted between scan and send
			s.logger.WithField("reminder_id", reminder.ID).Debug("Reminder vanished before commit")
			return nil
		}
		s.logger.WithError(err).WithField("reminder_id", reminder.ID).Error("Failed to mark reminder as sent")
		return err
	}

	s.invalidateRecipientCache(ctx, reminder.Recipient)

	s.logger.WithFields(logrus.Fields{
		"reminder_id": reminder.ID,
		"recipient":   reminder.Recipient,
	}).Info("Reminder sent successfully")

	return nil
}
