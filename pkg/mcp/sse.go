package mcp

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"
)

// sessionSubject is the NATS subject a session's server-initiated
// notifications publish to, generalized from the teacher's per-operation
// subject (operations.{owner}.{op}.*) to one subject per MCP session.
func sessionSubject(sessionID string) string {
	return "mcp.session." + sessionID + ".events"
}

// PublishNotification publishes a server-initiated JSON-RPC notification
// to a session's subject, picked up by any GET /mcp SSE stream for that
// session.
func PublishNotification(nc *nats.Conn, sessionID string, note *JSONRPCNotification) error {
	data, err := SerializeMessage(note)
	if err != nil {
		return err
	}
	return nc.Publish(sessionSubject(sessionID), data)
}

// handleSSEStream streams a session's notifications as
// "data: <json>\n\n" frames, per spec.md §4.7's SSE framing, with a
// heartbeat comment every 30s to defeat proxy idle timeouts, grounded on
// the teacher's sse.go.
func handleSSEStream(c echo.Context, nc *nats.Conn, sessionID string) error {
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(200)

	msgChan := make(chan *nats.Msg, 16)
	sub, err := nc.ChanSubscribe(sessionSubject(sessionID), msgChan)
	if err != nil {
		return InternalErr("failed to subscribe to session notifications: %v", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	eventID := 0
	for {
		select {
		case msg := <-msgChan:
			eventID++
			fmt.Fprintf(c.Response(), "id: %d\n", eventID)
			fmt.Fprintf(c.Response(), "data: %s\n\n", string(msg.Data))
			c.Response().Flush()
		case <-ticker.C:
			fmt.Fprintf(c.Response(), ": heartbeat\n\n")
			c.Response().Flush()
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
