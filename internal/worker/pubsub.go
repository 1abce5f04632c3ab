package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

var (
	// ErrMalformedMessage is returned for payloads that are not a JobMessage.
	ErrMalformedMessage = errors.New("malformed job message")
	// ErrUnknownJobType is returned for job types the worker does not handle.
	ErrUnknownJobType = errors.New("unknown job type")
)

// JobMessage is the payload of every job published to the queue.
type JobMessage struct {
	JobType string `json:"job_type"`
	// Date is a YYYY-MM-DD local date; empty means today.
	Date    string `json:"date,omitempty"`
}

// HealthCheck probes a dependency the worker relies on.
type HealthCheck func(ctx context.Context) error

// Dispatcher routes decoded job messages to their handlers.
type Dispatcher struct {
	refreshJob *RefreshJob
	checks     []HealthCheck
	logger     zerolog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(refreshJob *RefreshJob, checks []HealthCheck, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{refreshJob: refreshJob, checks: checks, logger: logger}
}

// Dispatch decodes data and runs the job it names.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) (string, error) {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch msg.JobType {
	case JobTypeSuggestionsRefresh:
		return msg.JobType, d.handleSuggestionsRefresh(ctx, msg)
	case JobTypeHealthCheck:
		return msg.JobType, d.handleHealthCheck(ctx)
	default:
		return msg.JobType, fmt.Errorf("%w: %q", ErrUnknownJobType, msg.JobType)
	}
}

func (d *Dispatcher) handleSuggestionsRefresh(ctx context.Context, msg JobMessage) error {
	result, err := d.refreshJob.Run(ctx, msg.Date)
	if err != nil {
		return err
	}

	// Redeliver when most of the logs failed; skipped logs are not failures.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.TotalLogs)
	}
	return nil
}

func (d *Dispatcher) handleHealthCheck(ctx context.Context) error {
	d.logger.Debug().Msg("running health check")

	for _, check := range d.checks {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := check(checkCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
	}

	d.logger.Debug().Msg("health check passed")
	return nil
}

// ShouldRedeliver reports whether a failed message is worth retrying.
// Malformed and unknown messages are acknowledged so they are not redelivered.
func ShouldRedeliver(err error) bool {
	return err != nil && !errors.Is(err, ErrMalformedMessage) && !errors.Is(err, ErrUnknownJobType)
}

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Concurrency      int
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Refresh jobs fan out internally, so few messages run at once.
	outstanding := cfg.Concurrency
	if outstanding < 1 {
		outstanding = 1
	}
	subscriber.ReceiveSettings.MaxOutstandingMessages = outstanding
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	jobType, err := h.dispatcher.Dispatch(ctx, msg.Data)
	if err != nil {
		if ShouldRedeliver(err) {
			logger.Error().Err(err).Str("job_type", jobType).Msg("job failed")
			msg.Nack()
			return
		}
		logger.Warn().Err(err).Str("job_type", jobType).Msg("discarding message")
		msg.Ack()
		return
	}

	logger.Info().
		Str("job_type", jobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")

	msg.Ack()
}

// Publisher enqueues jobs on a Pub/Sub topic.
type Publisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topic     string
}

// NewPublisher creates a Publisher for topic in projectID.
func NewPublisher(ctx context.Context, projectID, topic string) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &Publisher{
		client:    client,
		publisher: client.Publisher(topic),
		topic:     topic,
	}, nil
}

// PublishSuggestionsRefresh enqueues a suggestion refresh for date and
// returns the server-assigned message id.
func (p *Publisher) PublishSuggestionsRefresh(ctx context.Context, date string) (string, error) {
	return p.publish(ctx, JobMessage{JobType: JobTypeSuggestionsRefresh, Date: date})
}

// PublishHealthCheck enqueues a worker health check.
func (p *Publisher) PublishHealthCheck(ctx context.Context) (string, error) {
	return p.publish(ctx, JobMessage{JobType: JobTypeHealthCheck})
}

func (p *Publisher) publish(ctx context.Context, msg JobMessage) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"job_type": msg.JobType},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing %s to %s: %w", msg.JobType, p.topic, err)
	}
	return id, nil
}

// Close flushes pending messages and closes the client.
func (p *Publisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
