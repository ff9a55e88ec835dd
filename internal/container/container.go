package container

import (
	"context"
	"fmt"

	"smartreminder/internal/cache"
	"smartreminder/internal/config"
	"smartreminder/internal/database"
	"smartreminder/internal/logger"
	"smartreminder/internal/mailer"
	"smartreminder/internal/repository"
	"smartreminder/internal/scheduler"
	"smartreminder/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Container struct {
	DB              *pgxpool.Pool
	Redis           *redis.Client
	Logger          *logrus.Logger
	Mailer          mailer.Mailer
	ReminderService *services.ReminderService
	Scheduler       *scheduler.Scheduler
}

func New(ctx context.Context) (*Container, error) {
	log := logger.Get()

	db, err := database.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Redis only backs the listing cache; run degraded without it.
	redisClient, err := cache.New(ctx)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, listing cache disabled")
		redisClient = nil
	}

	m := newMailer(log)
	repo := repository.NewReminderRepository(db)
	reminderService := services.NewReminderService(repo, m, redisClient, log, config.Timezone())
	sched := scheduler.New(config.SchedulerInterval(), reminderService.ProcessDueReminders, log)

	return &Container{
		DB:              db,
		Redis:           redisClient,
		Logger:          log,
		Mailer:          m,
		ReminderService: reminderService,
		Scheduler:       sched,
	}, nil
}

func newMailer(log *logrus.Logger) mailer.Mailer {
	backend, fromName := config.MailerConfig()
	host, port, user, password := config.SMTPConfig()

	switch backend {
	case "api":
		url, key := config.APIMailerConfig()
		return mailer.NewAPIMailer(url, key, user, fromName, log)
	default:
		return mailer.NewSMTPMailer(host, port, user, password, fromName, log)
	}
}

func (c *Container) Close() {
	if c.Redis != nil {
		c.Redis.Close()
		c.Logger.Info("Redis connection closed")
	}
	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection closed")
	}
}
