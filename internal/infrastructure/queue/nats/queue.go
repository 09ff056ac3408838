package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
	"github.com/kirillkom/market-insight-engine/internal/infrastructure/resilience"
)

// analyzersGroup is the queue group analyzer workers join so each request
// is handled by exactly one of them.
const analyzersGroup = "analyzers"

// Queue carries analysis requests to workers and completion events to
// downstream consumers over two plain NATS subjects.
type Queue struct {
	conn        *nats.Conn
	requestSubj string
	eventSubj   string
	log         *slog.Logger
	executor    *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, requestSubject, eventSubject string, log *slog.Logger) (*Queue, error) {
	return NewWithOptions(url, requestSubject, eventSubject, log, Options{})
}

func NewWithOptions(url, requestSubject, eventSubject string, log *slog.Logger, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	log = log.With("component", "nats_queue")
	conn, err := nats.Connect(
		url,
		nats.Name("market-insight-engine"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:        conn,
		requestSubj: requestSubject,
		eventSubj:   eventSubject,
		log:         log,
		executor:    options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// PublishAnalysisRequest asks a worker for a segmentation run.
func (q *Queue) PublishAnalysisRequest(ctx context.Context, request domain.AnalysisRequest) error {
	return q.publish(ctx, q.requestSubj, "publish analysis request", request)
}

// PublishAnalysisCompleted announces a freshly computed analysis.
func (q *Queue) PublishAnalysisCompleted(ctx context.Context, event domain.AnalysisCompleted) error {
	return q.publish(ctx, q.eventSubj, "publish analysis completed", event)
}

func (q *Queue) publish(ctx context.Context, subject, operation string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal payload: %w", operation, err)
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, data); err != nil {
			return fmt.Errorf("nats publish %s: %w", subject, err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Run(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}

// SubscribeAnalysisRequests joins the analyzers queue group and feeds
// decoded requests to handler until ctx is done. Malformed messages are
// logged and dropped, not redelivered.
func (q *Queue) SubscribeAnalysisRequests(ctx context.Context, handler func(context.Context, domain.AnalysisRequest) error) error {
	sub, err := q.conn.QueueSubscribe(q.requestSubj, analyzersGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		var request domain.AnalysisRequest
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			q.log.Warn("analysis_request_malformed", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, request); err != nil {
			q.log.Error("analysis_request_failed", "segment_count", request.SegmentCount, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
