package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rafapcjs/climate-system/config"
	"github.com/rafapcjs/climate-system/internal/metrics"
	"github.com/rafapcjs/climate-system/internal/models"
)

// recordTimeout bounds one insert triggered by a message.
const recordTimeout = 10 * time.Second

// Recorder persists a decoded reading payload.
type Recorder interface {
	Record(ctx context.Context, source string, in models.ReadingInput) (models.SavedRecord, error)
}

// Client handles MQTT connection and message processing
type Client struct {
	client   mqtt.Client
	recorder Recorder
	config   *config.Config
	log      *slog.Logger
}

// NewClient creates a new MQTT client
func NewClient(cfg *config.Config, recorder Recorder, log *slog.Logger) *Client {
	log = log.With("component", "mqtt")
	opts := mqtt.NewClientOptions()
	brokerURL := cfg.GetMQTTBrokerURL()
	opts.AddBroker(brokerURL)
	opts.SetClientID(cfg.MQTT.ClientID)

	// Configure TLS if using SSL or secure websockets
	if strings.HasPrefix(brokerURL, "ssl://") || strings.HasPrefix(brokerURL, "wss://") {
		log.Info("configuring TLS", "broker", brokerURL)
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("connection lost", "error", err)
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		log.Info("attempting to reconnect to broker")
	})

	c := &Client{
		recorder: recorder,
		config:   cfg,
		log:      log,
	}
	// Subscribe on every (re)connect
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		if err := c.subscribe(client); err != nil {
			log.Error("subscribe failed", "error", err)
		}
	})
	c.client = mqtt.NewClient(opts)
	return c
}

// Connect connects to the MQTT broker; subscription happens in the connect handler
func (c *Client) Connect() error {
	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	c.log.Info("connected to broker", "broker", c.config.GetMQTTBrokerURL(), "topic", c.config.MQTT.Topic)
	return nil
}

// Disconnect disconnects from the MQTT broker
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
	c.log.Info("disconnected from broker")
}

func (c *Client) subscribe(client mqtt.Client) error {
	token := client.Subscribe(c.config.MQTT.Topic, c.config.MQTT.QoS, c.handleMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.config.MQTT.Topic, token.Error())
	}
	c.log.Info("subscribed", "topic", c.config.MQTT.Topic, "qos", c.config.MQTT.QoS)
	return nil
}

func (c *Client) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	c.log.Debug("message received", "topic", msg.Topic(), "bytes", len(msg.Payload()))
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := c.processMessage(ctx, msg.Payload()); err != nil {
		c.log.Warn("reading not stored", "topic", msg.Topic(), "error", err)
	}
}

// processMessage decodes a payload and hands it to the ingestion service
func (c *Client) processMessage(ctx context.Context, payload []byte) error {
	in, err := models.DecodeReadingInput(payload)
	if err != nil {
		return err
	}
	rec, err := c.recorder.Record(ctx, metrics.SourceMQTT, in)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid reading: %w", err)
		}
		return err
	}
	c.log.Debug("reading stored", "id", rec.ID, "created_at", rec.CreatedAt)
	return nil
}
