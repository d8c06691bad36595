package mqtt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	c := &Client{broker: "tcp://broker:1883"}
	opts := c.options(ClientConfig{
		Broker:   "tcp://broker:1883",
		ClientID: "fos-engine",
		Username: "mona",
	})

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "broker:1883", opts.Servers[0].Host)
	assert.Equal(t, "fos-engine", opts.ClientID)
	assert.Equal(t, "mona", opts.Username)
	assert.True(t, opts.AutoReconnect)
	assert.Equal(t, 30*time.Second, opts.MaxReconnectInterval)
	assert.Equal(t, 10*time.Second, opts.ConnectTimeout)
}

func TestClientConnectionState(t *testing.T) {
	c := &Client{broker: "tcp://broker:1883"}
	assert.False(t, c.Connected())

	reconnects := 0
	c.OnReconnect(func() { reconnects++ })

	// First connect does not run reconnect hooks
	c.handleConnect(nil)
	assert.True(t, c.Connected())
	assert.Equal(t, 0, reconnects)
	assert.Equal(t, ConnectionStatus{Connected: true}, c.Status())

	c.handleConnectionLost(nil, errors.New("EOF"))
	assert.False(t, c.Connected())
	assert.Equal(t, ConnectionStatus{ConnectionsLost: 1, LastError: "EOF"}, c.Status())

	c.handleConnect(nil)
	assert.True(t, c.Connected())
	assert.Equal(t, 1, reconnects)
	assert.Equal(t, ConnectionStatus{Connected: true, ConnectionsLost: 1, LastError: "EOF"}, c.Status())
}
