package main

import (
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/services"
	"storefront/internal/storefront"
	"storefront/pkg/rabbitmq"

	"github.com/rs/zerolog/log"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.LogLevel, os.Stderr)
	logger := logging.For("main")

	// --- RabbitMQ (optional) ---
	// Order events are best effort: without a broker the storefront runs unchanged.
	var (
		mqClient  *rabbitmq.Client
		publisher services.EventPublisher
	)
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			logger.Warn().Err(err).Msg("RabbitMQ unavailable, order events disabled")
		} else {
			defer mqClient.Close()
			publisher = mqClient
		}
	}

	// --- Application ---
	a, err := app.New(cfg, app.Options{Publisher: publisher, RequestLog: true})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}
	defer a.Close()

	// Every order event refreshes the sold counts shown on every open storefront.
	if mqClient != nil {
		err := mqClient.ConsumeOrderEvents(func(event rabbitmq.OrderEvent) error {
			logger.Debug().Str("type", event.Type).Str("order_id", event.OrderID).Msg("order event received")
			a.Registry.Broadcast(func(c *storefront.Controller) {
				if err := c.RecomputeSoldCounts(); err != nil {
					logger.Warn().Err(err).Str("device_id", c.DeviceID()).Msg("failed to refresh sold counts")
				}
			})
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Msg("failed to start order event consumer")
		}
	}

	// --- Start HTTP Server ---
	logger.Info().Str("port", cfg.AppPort).Msg("starting server")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := a.Fiber.Listen(cfg.AppPort); err != nil {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	logger.Info().Msg("shutting down server")

	if err := a.Fiber.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("error during Fiber shutdown")
	}
	logger.Info().Msg("server gracefully stopped")
}
