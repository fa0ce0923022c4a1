package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"origination-engine/internal/domain/application"
)

const (
	routingKeyApplicationSubmitted = "application.submitted"
	routingKeyDocumentUploaded     = "document.uploaded"
	publisherAppID                 = "origination-engine"
)

type RabbitMQEventPublisher struct {
	conn         *amqp.Connection
	exchangeName string
	logger       *slog.Logger
}

type EventPublisher interface {
	PublishApplicationSubmitted(ctx context.Context, event ApplicationSubmittedEvent) error
	PublishDocumentUploaded(ctx context.Context, event DocumentUploadedEvent) error
}

type ApplicationSubmittedEvent struct {
	LoanID          string    `json:"loanId"`
	BorrowerID      string    `json:"borrowerId"`
	LoanAmount      float64   `json:"loanAmount"`
	LoanType        string    `json:"loanType"`
	PropertyAddress string    `json:"propertyAddress,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

type DocumentUploadedEvent struct {
	LoanID      string    `json:"loanId"`
	DocumentID  string    `json:"documentId"`
	ConditionID string    `json:"conditionId,omitempty"`
	FileName    string    `json:"fileName"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewRabbitMQEventPublisher(conn *amqp.Connection, exchangeName string, logger *slog.Logger) (EventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection cannot be nil")
	}
	if exchangeName == "" {
		return nil, fmt.Errorf("RabbitMQ exchange name cannot be empty")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	tempCh, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary channel for exchange declaration: %w", err)
	}
	defer tempCh.Close()

	err = tempCh.ExchangeDeclare(
		exchangeName,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}
	logger.Info("Ensured RabbitMQ exchange exists", "exchange", exchangeName, "type", amqp.ExchangeTopic)

	return &RabbitMQEventPublisher{
		conn:         conn,
		exchangeName: exchangeName,
		logger:       logger.With("component", "RabbitMQEventPublisher", "exchange", exchangeName),
	}, nil
}

func (p *RabbitMQEventPublisher) PublishApplicationSubmitted(ctx context.Context, event ApplicationSubmittedEvent) error {
	return p.publish(ctx, routingKeyApplicationSubmitted, event)
}

func (p *RabbitMQEventPublisher) PublishDocumentUploaded(ctx context.Context, event DocumentUploadedEvent) error {
	return p.publish(ctx, routingKeyDocumentUploaded, event)
}

func (p *RabbitMQEventPublisher) publish(ctx context.Context, routingKey string, payload interface{}) error {
	logCtx := p.logger.With(slog.String("routingKey", routingKey))

	channel, err := p.conn.Channel()
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open RabbitMQ channel", slog.Any("error", err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to marshal event payload to JSON", slog.Any("error", err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	logCtx.DebugContext(ctx, "Publishing message", "bodySize", len(body))

	err = channel.PublishWithContext(
		ctx,
		p.exchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			AppId:        publisherAppID,
		},
	)

	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish message to RabbitMQ", slog.Any("error", err))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logCtx.InfoContext(ctx, "Successfully published message")
	return nil
}

// SubmissionHook adapts the publisher to the post-submit side-effect chain.
type SubmissionHook struct {
	publisher EventPublisher
}

func NewSubmissionHook(publisher EventPublisher) *SubmissionHook {
	return &SubmissionHook{publisher: publisher}
}

func (h *SubmissionHook) Name() string { return "submission-event" }

func (h *SubmissionHook) AfterSubmit(ctx context.Context, loan *application.Loan) error {
	return h.publisher.PublishApplicationSubmitted(ctx, ApplicationSubmittedEvent{
		LoanID:          loan.ID,
		BorrowerID:      loan.BorrowerID,
		LoanAmount:      loan.LoanAmount,
		LoanType:        loan.LoanType,
		PropertyAddress: loan.PropertyAddress,
		Timestamp:       time.Now().UTC(),
	})
}
