// Package kafka publishes product-ready events to the platform bus so
// downstream services (site cache invalidation, alerting digests) learn about
// new TurtleWatch images without polling the staging directory.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/turtlewatch/internal/config"
	"github.com/couchcryptid/turtlewatch/internal/domain"
	"github.com/couchcryptid/turtlewatch/internal/publish"
)

// ProductEvent is the wire form of a run outcome on the product topic.
type ProductEvent struct {
	Status      string         `json:"status"` // "published" or "failed"
	Date        string         `json:"date"`   // YYYY-MM-DD product date
	WindowStart string         `json:"window_start,omitempty"`
	WindowEnd   string         `json:"window_end,omitempty"`
	Images      []ProductImage `json:"images,omitempty"`
	Error       string         `json:"error,omitempty"`
	ProducedAt  time.Time      `json:"produced_at"`
}

// ProductImage names one staged variant.
type ProductImage struct {
	Locale string `json:"locale"`
	Size   string `json:"size"`
	File   string `json:"file"` // staged "latest" filename
}

// Publisher implements pipeline.Notifier by producing one event per run.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a producer for the configured product topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// NotifySuccess publishes the "published" event for a completed run.
func (p *Publisher) NotifySuccess(ctx context.Context, product domain.Product) error {
	event := ProductEvent{
		Status:      "published",
		Date:        product.Date.Format("2006-01-02"),
		WindowStart: product.WindowStart.Format("2006-01-02"),
		WindowEnd:   product.WindowEnd.Format("2006-01-02"),
		ProducedAt:  time.Now().UTC(),
	}
	for _, a := range product.Artifacts {
		event.Images = append(event.Images, ProductImage{
			Locale: a.Locale,
			Size:   a.Size,
			File:   publish.StagedName(a, "latest"),
		})
	}
	return p.write(ctx, event)
}

// NotifyFailure publishes the "failed" event for an aborted run.
func (p *Publisher) NotifyFailure(ctx context.Context, runDate time.Time, runErr error) error {
	return p.write(ctx, ProductEvent{
		Status:     "failed",
		Date:       runDate.Format("2006-01-02"),
		Error:      runErr.Error(),
		ProducedAt: time.Now().UTC(),
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) write(ctx context.Context, event ProductEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish product event: %w", err)
	}
	p.logger.Info("product event published", "status", event.Status, "date", event.Date)
	return nil
}

// serializeToMessage marshals a ProductEvent into a Kafka message keyed by
// product date, so replays of the same day compact cleanly.
func serializeToMessage(event ProductEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize product event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Date),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(event.Status)},
			{Key: "produced_at", Value: []byte(event.ProducedAt.Format(time.RFC3339))},
		},
	}, nil
}
