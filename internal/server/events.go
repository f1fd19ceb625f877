package server

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// handleEvents streams credential health snapshots over a websocket.
// The current snapshot is sent on connect, then one message per
// resolver change until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", slog.String("error", err.Error()))

		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	// Clients never send messages; CloseRead keeps control frames
	// flowing and cancels the context on disconnect.
	ctx := conn.CloseRead(r.Context())

	updates, cancel := s.creds.Subscribe()
	defer cancel()

	if err := wsjson.Write(ctx, conn, s.creds.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")

			return
		case hs, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "resolver stopped")

				return
			}

			if err := wsjson.Write(ctx, conn, hs); err != nil {
				return
			}
		}
	}
}
