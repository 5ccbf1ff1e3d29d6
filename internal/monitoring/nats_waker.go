//go:build nats

package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsserver "github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/cursorworkshop/aegistry/internal/config"
	"github.com/cursorworkshop/aegistry/internal/logging"
)

// wakeSubject is the JetStream subject a NATSGateway publishes to and
// subscribes from. It carries no payload — it is a pure wake-up signal, not
// an event log, so one subject for the whole deployment is enough.
const wakeSubject = "aegistry.monitoring.dispatch.wake"

// NATSGateway turns the Dispatcher's wake signal into a cross-process NATS
// JetStream notification: the Ingest Orchestrator process (where Rescreen
// runs) and the Dispatcher process (which delivers callbacks) need not be
// the same process for this signal to reach the Dispatcher promptly instead
// of waiting out whatever DispatchInterval the deployment has configured.
// Grounded on cmd/server/nats_init.go's InitNATS sequence (embedded server
// → connect → ensure stream → Watermill publisher/subscriber), narrowed to
// the one subject this package needs.
type NATSGateway struct {
	embedded   *natsserver.Server
	conn       *natsgo.Conn
	publisher  message.Publisher
	subscriber message.Subscriber
	events     *logging.EventLogger
}

// OpenNATSGateway starts (or connects to) the configured NATS JetStream
// deployment and ensures the wake-signal stream exists. Returns (nil, nil)
// if cfg.Enabled is false, so callers can treat a disabled gateway the same
// as the non-"nats"-tagged stub build.
func OpenNATSGateway(cfg config.NATSConfig) (*NATSGateway, error) {
	if !cfg.Enabled {
		logging.Info().Msg("nats dispatch wake gateway disabled (nats.enabled=false)")
		return nil, nil
	}

	url := cfg.URL
	var embedded *natsserver.Server
	if cfg.EmbeddedServer {
		ns, err := natsserver.NewServer(&natsserver.Options{
			ServerName: "aegistry-monitoring",
			Host:       "127.0.0.1",
			Port:       4222,
			JetStream:  true,
			StoreDir:   cfg.StoreDir,
			DontListen: false,
		})
		if err != nil {
			return nil, fmt.Errorf("create embedded nats server: %w", err)
		}
		ns.ConfigureLogger()
		go ns.Start()
		if !ns.ReadyForConnections(10 * time.Second) {
			ns.Shutdown()
			return nil, fmt.Errorf("embedded nats server not ready within timeout")
		}
		embedded = ns
		url = ns.ClientURL()
	}

	nc, err := natsgo.Connect(url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		shutdownEmbedded(embedded)
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		shutdownEmbedded(embedded)
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	streamName := cfg.StreamName
	if streamName == "" {
		streamName = "AEGISTRY_MONITORING"
	}
	streamCfg := jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{wakeSubject},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    time.Hour,
		MaxMsgs:   1000,
		Storage:   jetstream.FileStorage,
		Discard:   jetstream.DiscardOld,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := js.Stream(ctx, streamName); err == nil {
		if _, err := js.UpdateStream(ctx, streamCfg); err != nil {
			nc.Close()
			shutdownEmbedded(embedded)
			return nil, fmt.Errorf("update wake stream: %w", err)
		}
	} else if errors.Is(err, jetstream.ErrStreamNotFound) {
		if _, err := js.CreateStream(ctx, streamCfg); err != nil {
			nc.Close()
			shutdownEmbedded(embedded)
			return nil, fmt.Errorf("create wake stream: %w", err)
		}
	} else {
		nc.Close()
		shutdownEmbedded(embedded)
		return nil, fmt.Errorf("check wake stream: %w", err)
	}

	logger := watermill.NewStdLogger(false, false)
	natsOpts := []natsgo.Option{natsgo.RetryOnFailedConnect(true), natsgo.MaxReconnects(-1), natsgo.ReconnectWait(2 * time.Second)}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
		},
	}, logger)
	if err != nil {
		nc.Close()
		shutdownEmbedded(embedded)
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: "aegistry-dispatcher",
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			AckAsync:      false,
			DurablePrefix: "aegistry-dispatcher",
		},
	}, logger)
	if err != nil {
		pub.Close()
		nc.Close()
		shutdownEmbedded(embedded)
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &NATSGateway{embedded: embedded, conn: nc, publisher: pub, subscriber: sub, events: logging.NewEventLogger()}, nil
}

func shutdownEmbedded(s *natsserver.Server) {
	if s != nil {
		s.Shutdown()
	}
}

// Wake implements Waker by sending an empty wake message on wakeSubject. A
// publish failure is logged, not returned — a dropped wake signal merely
// delays delivery to the next DispatchInterval tick, it never loses data,
// since the pending notifications themselves live in the Subject Store.
func (g *NATSGateway) Wake() {
	msg := message.NewMessage(watermill.NewUUID(), nil)
	if err := g.publisher.Publish(wakeSubject, msg); err != nil {
		logging.Warn().Err(err).Msg("failed to publish dispatch wake signal")
		return
	}
	g.events.LogEventPublished(context.Background(), msg.UUID, wakeSubject)
}

// Forward subscribes to wake signals and relays each one to d.Wake() until
// ctx is canceled or the subscription closes. Run it in its own goroutine
// alongside the Dispatcher.
func (g *NATSGateway) Forward(ctx context.Context, d *Dispatcher) error {
	messages, err := g.subscriber.Subscribe(ctx, wakeSubject)
	if err != nil {
		return fmt.Errorf("subscribe to wake subject: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			g.events.LogEventReceived(ctx, msg.UUID, "nats", "dispatch-wake")
			d.Wake()
			msg.Ack()
		}
	}
}

// Close tears down the subscriber, publisher, connection, and (if started)
// the embedded server, in that order.
func (g *NATSGateway) Close() error {
	if g.subscriber != nil {
		g.subscriber.Close()
	}
	if g.publisher != nil {
		g.publisher.Close()
	}
	if g.conn != nil {
		g.conn.Close()
	}
	shutdownEmbedded(g.embedded)
	return nil
}
