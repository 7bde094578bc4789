package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/beaconchat/beacon/test/testhelpers"
)

func TestShutdownClosesClientConnections(t *testing.T) {
	req := require.New(t)
	ts, hub := testhelpers.StartServer(t)

	conn := testhelpers.Dial(t, testhelpers.WebSocketURL(ts, "alice"))
	testhelpers.ReadPresence(t, conn, "userOnline")

	req.NoError(hub.Shutdown(2 * time.Second))

	// The server hung up; the next read must fail promptly.
	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := conn.ReadMessage()
	req.Error(err)
}
