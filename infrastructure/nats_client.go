package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// EventStreamName is the JetStream stream holding every casino event
const EventStreamName = "casino_events"

var errNotConnected = errors.New("not connected to NATS JetStream")

// NATSOptions configures the JetStream connection and the event stream
type NATSOptions struct {
	// Servers is a comma-separated list of NATS URLs
	Servers    string
	ClientName string
	// StreamMaxAge bounds how long settled-bet events stay replayable
	StreamMaxAge time.Duration
}

// NATSClient publishes settlement events to JetStream
type NATSClient struct {
	opts NATSOptions

	mu sync.RWMutex
	nc *nats.Conn
	js nats.JetStreamContext
}

// NewNATSClient creates an unconnected client
func NewNATSClient(opts NATSOptions) *NATSClient {
	if opts.ClientName == "" {
		opts.ClientName = "casino-engine"
	}
	if opts.StreamMaxAge <= 0 {
		opts.StreamMaxAge = 30 * 24 * time.Hour
	}
	return &NATSClient{opts: opts}
}

// Connect dials NATS and opens a JetStream context. Reconnects are retried
// in the background by the nats client itself.
func (c *NATSClient) Connect(ctx context.Context) error {
	nc, err := nats.Connect(c.opts.Servers,
		nats.Name(c.opts.ClientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected, settlement events are buffered")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("server", nc.ConnectedUrlRedacted()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if err := ctx.Err(); err != nil {
		nc.Close()
		return err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c.mu.Lock()
	c.nc, c.js = nc, js
	c.mu.Unlock()

	log.WithField("servers", c.opts.Servers).Info("Connected to NATS with JetStream")
	return nil
}

func (c *NATSClient) jetStream() (nats.JetStreamContext, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.js == nil {
		return nil, errNotConnected
	}
	return c.js, nil
}

// EnsureEventStream creates the event stream, or widens an existing one so
// that every subject the mapper can produce is captured
func (c *NATSClient) EnsureEventStream(subjects []string) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	info, err := js.StreamInfo(EventStreamName)
	if errors.Is(err, nats.ErrStreamNotFound) {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:        EventStreamName,
			Description: "Casino settlement, crash session and policy events",
			Subjects:    subjects,
			Retention:   nats.LimitsPolicy,
			MaxAge:      c.opts.StreamMaxAge,
			Storage:     nats.FileStorage,
			Replicas:    1,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", EventStreamName, err)
		}
		log.WithFields(log.Fields{
			"stream":   EventStreamName,
			"subjects": strings.Join(subjects, ","),
		}).Info("Created JetStream stream")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect stream %s: %w", EventStreamName, err)
	}

	missing := missingSubjects(info.Config.Subjects, subjects)
	if len(missing) == 0 {
		return nil
	}

	updated := info.Config
	updated.Subjects = append(slices.Clone(updated.Subjects), missing...)
	if _, err := js.UpdateStream(&updated); err != nil {
		return fmt.Errorf("failed to add subjects to stream %s: %w", EventStreamName, err)
	}
	log.WithFields(log.Fields{
		"stream": EventStreamName,
		"added":  strings.Join(missing, ","),
	}).Info("Widened JetStream stream subjects")
	return nil
}

// missingSubjects returns the wanted subjects the stream does not list yet
func missingSubjects(existing, wanted []string) []string {
	var missing []string
	for _, s := range wanted {
		if !slices.Contains(existing, s) && !slices.Contains(missing, s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// Publish sends data to subject and waits for the JetStream ack
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	if _, err := js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish message to subject %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"subject": subject,
		"size":    len(data),
	}).Debug("Published message to NATS")
	return nil
}

// IsConnected returns true if the client is connected to NATS
func (c *NATSClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nc != nil && c.nc.IsConnected()
}

// Close drains pending publishes and closes the connection
func (c *NATSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nc == nil {
		return nil
	}
	err := c.nc.Drain()
	if err != nil {
		c.nc.Close()
	}
	c.nc, c.js = nil, nil
	log.Info("NATS connection closed")
	return err
}
