package testutil

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

// StartJetStream starts an embedded NATS server with JetStream backed by a
// per-test temp dir and returns a connected JetStream context.
func StartJetStream(t *testing.T) (*server.Server, nats.JetStreamContext, func()) {
	t.Helper()

	s, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1, // random free port
		NoLog:     true,
		NoSigs:    true,
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	require.NoError(t, err)

	go s.Start()
	if !s.ReadyForConnections(10 * time.Second) {
		t.Fatal("Unable to start NATS server")
	}

	nc, err := nats.Connect(s.ClientURL(), nats.Timeout(5*time.Second))
	require.NoError(t, err)

	js, err := nc.JetStream(nats.MaxWait(5 * time.Second))
	require.NoError(t, err)

	cleanup := func() {
		nc.Close()
		s.Shutdown()
	}

	return s, js, cleanup
}

// SetupJetStream is StartJetStream without the server handle
func SetupJetStream(t *testing.T) (nats.JetStreamContext, func()) {
	t.Helper()
	_, js, cleanup := StartJetStream(t)
	return js, cleanup
}

// CollectMessages subscribes to a subject and forwards payloads to the
// returned channel until the test ends.
func CollectMessages(t *testing.T, js nats.JetStreamContext, subject string) <-chan []byte {
	t.Helper()

	ch := make(chan []byte, 100)
	sub, err := js.Subscribe(subject, func(msg *nats.Msg) {
		ch <- msg.Data
	})
	require.NoError(t, err)
	t.Cleanup(func() { sub.Unsubscribe() })

	return ch
}
