// internal/mqtt/bridge.go
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/titovskiy/NeptunSmart/internal/snapshot"
)

const (
	payloadOnline  = "online"
	payloadOffline = "offline"

	publishTimeout = 10 * time.Second
	commandTimeout = 30 * time.Second
)

// Config is the runtime config the bridge needs.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
	QoS         byte
}

// Bridge connects the session to an MQTT broker.
// Inbound commands go to the controller; snapshots and status go out retained.
type Bridge struct {
	cfg    Config
	topics Topics
	ctl    Controller
	log    zerolog.Logger

	client paho.Client
	status *StatusWriter
}

// New prepares a bridge. No IO until Connect.
func New(cfg Config, ctl Controller, logger zerolog.Logger) (*Bridge, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt: broker required")
	}
	if ctl == nil {
		return nil, errors.New("mqtt: controller required")
	}

	b := &Bridge{
		cfg:    cfg,
		topics: Topics{Prefix: cfg.TopicPrefix},
		ctl:    ctl,
		log:    logger.With().Str("component", "mqtt").Logger(),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetWill(b.topics.Availability(), payloadOffline, cfg.QoS, true)

	// subscriptions do not survive a clean session reconnect
	opts.SetOnConnectHandler(func(c paho.Client) {
		b.log.Info().Str("broker", cfg.Broker).Msg("connected")
		b.onConnect(c)
	})
	opts.SetConnectionLostHandler(func(c paho.Client, err error) {
		b.log.Warn().Err(err).Msg("connection lost")
	})

	b.client = paho.NewClient(opts)
	b.status = NewStatusWriter(b, b.topics, cfg.QoS)
	return b, nil
}

// Connect starts the connection. With connect-retry enabled paho keeps
// trying in the background; ctx bounds only the initial wait.
func (b *Bridge) Connect(ctx context.Context) error {
	tok := b.client.Connect()
	select {
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return fmt.Errorf("mqtt: connect %s: %w", b.cfg.Broker, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close publishes offline and disconnects.
func (b *Bridge) Close() {
	if b.client.IsConnected() {
		_ = b.Publish(b.topics.Availability(), b.cfg.QoS, true, []byte(payloadOffline))
	}
	b.client.Disconnect(250)
}

// Publish implements Publisher on the paho client.
func (b *Bridge) Publish(topic string, qos byte, retained bool, payload []byte) error {
	tok := b.client.Publish(topic, qos, retained, payload)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt: publish %s: timeout", topic)
	}
	return tok.Error()
}

// PublishState sends the snapshot as retained JSON.
func (b *Bridge) PublishState(s *snapshot.Snapshot) error {
	if s == nil {
		return nil
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("mqtt: encode state: %w", err)
	}
	return b.Publish(b.topics.State(), b.cfg.QoS, true, payload)
}

// StatusWriter exposes the status delivery path.
func (b *Bridge) StatusWriter() *StatusWriter {
	return b.status
}

func (b *Bridge) onConnect(c paho.Client) {
	for _, filter := range b.topics.Subscriptions() {
		tok := c.Subscribe(filter, b.cfg.QoS, b.handle)
		// never block the paho callback goroutine on the token
		go func(filter string, tok paho.Token) {
			if tok.WaitTimeout(publishTimeout) && tok.Error() != nil {
				b.log.Error().Err(tok.Error()).Str("filter", filter).Msg("subscribe failed")
			}
		}(filter, tok)
	}

	go func() {
		if err := b.Publish(b.topics.Availability(), b.cfg.QoS, true, []byte(payloadOnline)); err != nil {
			b.log.Warn().Err(err).Msg("availability publish failed")
		}
	}()
}

// handle runs each command on its own goroutine; the session serializes writes.
func (b *Bridge) handle(_ paho.Client, msg paho.Message) {
	topic, payload := msg.Topic(), msg.Payload()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		if err := Dispatch(ctx, b.ctl, b.topics, topic, payload); err != nil {
			b.log.Warn().Err(err).Str("topic", topic).Bytes("payload", payload).Msg("command failed")
			return
		}
		b.log.Debug().Str("topic", topic).Msg("command applied")
	}()
}
