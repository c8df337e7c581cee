package main

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/fluxorio/threadshare/pkg/logging"
	"github.com/fluxorio/threadshare/pkg/share"
)

// boardUpdate is one websocket frame
type boardUpdate struct {
	Version uint64 `json:"version"`
	Board   Board  `json:"board"`
}

// boardStream pushes the board to websocket clients every time it changes,
// at most limit frames per second per client.
type boardStream struct {
	board    *share.LockedCell[Board]
	upgrader websocket.Upgrader
	limit    rate.Limit
	logger   logging.Logger
}

func newBoardStream(board *share.LockedCell[Board], perSecond float64, logger logging.Logger) *boardStream {
	return &boardStream{
		board: board,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		limit:  rate.Limit(perSecond),
		logger: logger,
	}
}

func (s *boardStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Clients only listen; a read error means they went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debugf("websocket read: %v", err)
				}
				return
			}
		}
	}()

	limiter := rate.NewLimiter(s.limit, 1)
	for {
		board, version := s.board.Snapshot()
		if err := conn.WriteJSON(boardUpdate{Version: version, Board: board}); err != nil {
			s.logger.Debugf("websocket write: %v", err)
			return
		}
		if err := s.board.Signal().WaitAfterContext(ctx, version); err != nil {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}
	}
}
