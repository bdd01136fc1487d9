package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/langbridge/config"
	"github.com/oksasatya/langbridge/internal/infrastructure/presence"
	"github.com/oksasatya/langbridge/pkg/helpers"
	"github.com/oksasatya/langbridge/pkg/mailer"
	mailtpl "github.com/oksasatya/langbridge/pkg/mailer/templates"
)

const prefetch = 16

// worker drains the background queues: welcome emails and, when presence is
// queued, Stream user upserts.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-worker", cfg.Env)

	if cfg.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL not configured")
	}

	consumers := map[string]helpers.MessageHandler{}
	if h, ok := emailHandler(cfg, logger); ok {
		consumers[cfg.RabbitMQEmailQueue] = h
	}
	if h, ok := presenceHandler(cfg, logger); ok {
		consumers[cfg.RabbitMQPresenceQueue] = h
	}
	if len(consumers) == 0 {
		logger.Warn("nothing to consume; enable MAIL_SEND_ENABLED or PRESENCE_VIA_QUEUE")
		return
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for queue, h := range consumers {
		wg.Add(1)
		go func(queue string, h helpers.MessageHandler) {
			defer wg.Done()
			if err := helpers.Consume(ctx, conn, queue, prefetch, logger, h); err != nil {
				logger.WithError(err).WithField("queue", queue).Error("consumer stopped")
				stop()
			}
		}(queue, h)
	}

	<-ctx.Done()
	logger.Info("shutting down worker")
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func emailHandler(cfg *config.Config, logger *logrus.Logger) (helpers.MessageHandler, bool) {
	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email consumer disabled")
		return nil, false
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}
	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	mg.TestMode = cfg.MailgunTestMode
	branding := mailtpl.Branding{
		AppName:        cfg.AppName,
		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
	}
	return func(ctx context.Context, body []byte) error {
		var job mailer.EmailJob
		if err := json.Unmarshal(body, &job); err != nil {
			return fmt.Errorf("%w: %v", helpers.ErrPoisonMessage, err)
		}
		c, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		err := mailer.Deliver(c, mg, branding, job)
		if err != nil && errors.Is(err, mailer.ErrInvalidJob) {
			return fmt.Errorf("%w: %v", helpers.ErrPoisonMessage, err)
		}
		return err
	}, true
}

func presenceHandler(cfg *config.Config, logger *logrus.Logger) (helpers.MessageHandler, bool) {
	if !cfg.PresenceViaQueue {
		return nil, false
	}
	dir, err := presence.NewStreamDirectory(cfg.StreamAPIKey, cfg.StreamAPISecret)
	if err != nil {
		log.Fatalf("failed to init stream client: %v", err)
	}
	return presence.Handler(presence.NewBreaker(dir, presence.DefaultBreakerSettings(), logger)), true
}
