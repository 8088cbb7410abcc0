package transfer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/snapshot/internal/core/snapshot"
)

type Client struct {
	Dialer         *websocket.Dialer
	MaxMessageSize int64
}

// Fetch asks the server at url (ws:// or wss://) for its current snapshot
// and verifies it.
func (c *Client) Fetch(ctx context.Context, url string) (*snapshot.Document, error) {
	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()
	if c.MaxMessageSize > 0 {
		conn.SetReadLimit(c.MaxMessageSize)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	req := Request{ID: uuid.NewString(), Action: ActionSnapshot}
	if err = conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	var frame Frame
	if err = conn.ReadJSON(&frame); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if frame.ID != req.ID {
		return nil, fmt.Errorf("frame %s answers another request than %s", frame.ID, req.ID)
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return frame.Verify()
}

// Fetch uses a zero Client.
func Fetch(ctx context.Context, url string) (*snapshot.Document, error) {
	var c Client
	return c.Fetch(ctx, url)
}
