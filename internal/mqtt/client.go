package mqtt

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"mona-backend/internal/log"
)

// Client owns the broker connection and tracks its state. Subscribing and
// publishing live in Subscriber and Publisher.
type Client struct {
	client mqtt.Client
	broker string

	mu          sync.Mutex
	connected   bool
	lost        int
	lastErr     error
	onReconnect []func()
}

// ClientConfig holds MQTT client configuration
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// ConnectionStatus is a snapshot of the broker connection
type ConnectionStatus struct {
	Connected       bool   `json:"connected"`
	ConnectionsLost int    `json:"connections_lost"`
	LastError       string `json:"last_error,omitempty"`
}

// NewClient connects to the broker. The connection reconnects on its own
// after a loss; hooks added with OnReconnect run after each reconnect.
func NewClient(config ClientConfig) (*Client, error) {
	c := &Client{broker: config.Broker}
	c.client = mqtt.NewClient(c.options(config))

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", config.Broker, token.Error())
	}

	log.Infof("MQTT Client: Connected to broker %s", config.Broker)
	return c, nil
}

func (c *Client) options(config ClientConfig) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetDefaultPublishHandler(unroutedHandler)
	opts.SetOnConnectHandler(c.handleConnect)
	opts.SetConnectionLostHandler(c.handleConnectionLost)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	return opts
}

// GetNativeClient returns the underlying paho MQTT client
func (c *Client) GetNativeClient() mqtt.Client {
	return c.client
}

// OnReconnect registers fn to run after every reconnect. Subscriptions are
// not kept by the broker across a clean session, so subscribers re-register here.
func (c *Client) OnReconnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReconnect = append(c.onReconnect, fn)
}

// Connected reports whether the broker connection is currently up
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Status returns a snapshot of the connection state
func (c *Client) Status() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := ConnectionStatus{Connected: c.connected, ConnectionsLost: c.lost}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// Close disconnects from the broker
func (c *Client) Close() {
	c.client.Disconnect(250)

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	log.Info("MQTT Client: Disconnected")
}

func (c *Client) handleConnect(mqtt.Client) {
	c.mu.Lock()
	reconnect := c.lost > 0
	c.connected = true
	hooks := append([]func(){}, c.onReconnect...)
	c.mu.Unlock()

	if !reconnect {
		log.Infow("MQTT Client: Connection established", "broker", c.broker)
		return
	}

	log.Infow("MQTT Client: Reconnected", "broker", c.broker, "hooks", len(hooks))
	for _, hook := range hooks {
		hook()
	}
}

func (c *Client) handleConnectionLost(_ mqtt.Client, err error) {
	c.mu.Lock()
	c.connected = false
	c.lost++
	c.lastErr = err
	c.mu.Unlock()

	log.Warnw("MQTT Client: Connection lost", "broker", c.broker, "error", err)
}

var unroutedHandler mqtt.MessageHandler = func(_ mqtt.Client, msg mqtt.Message) {
	log.Debugf("MQTT Client: Unrouted message on topic %s", msg.Topic())
}
