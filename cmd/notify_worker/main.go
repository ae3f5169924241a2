package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/oksasatya/linkcircle/config"
	"github.com/oksasatya/linkcircle/internal/worker"
	"github.com/oksasatya/linkcircle/pkg/helpers"
	"github.com/oksasatya/linkcircle/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-notify-worker", cfg.Env)

	if !cfg.NotifyEnabled {
		logger.Info("NOTIFY_ENABLED=false; notification worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQNotifyQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch across workers
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}
	if _, err := ch.QueueDeclare(cfg.RabbitMQNotifyQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQNotifyQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	n := worker.NewNotifier(mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			switch n.Handle(ctx, msg.Body) {
			case worker.Ack:
				_ = msg.Ack(false)
			case worker.Drop:
				_ = msg.Nack(false, false)
			case worker.Retry:
				// a redelivered message that fails again is dropped
				_ = msg.Nack(false, !msg.Redelivered)
			}
		}
	}()

	logger.WithField("queue", cfg.RabbitMQNotifyQueue).Info("notification worker listening")
	select {
	case <-stop:
	case <-done:
		logger.Warn("delivery channel closed")
	}
	logger.Info("shutting down...")
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
