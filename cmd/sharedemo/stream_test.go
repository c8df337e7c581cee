package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fluxorio/threadshare/pkg/logging"
	"github.com/fluxorio/threadshare/pkg/share"
)

func TestBoardStream(t *testing.T) {
	board := share.NewLocked(Board{Ticks: map[string]int{}}, share.WithCloner(cloneBoard))
	srv := httptest.NewServer(newBoardStream(board, 1000, logging.NewNopLogger()))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	var first boardUpdate
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if first.Version != 0 || first.Board.Total != 0 {
		t.Errorf("first frame = %+v, want empty board at version 0", first)
	}

	board.Update(func(b *Board) {
		b.Ticks["w"] = 3
		b.Total = 3
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var next boardUpdate
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if next.Version != 1 || next.Board.Ticks["w"] != 3 {
		t.Errorf("next frame = %+v, want version 1 with w=3", next)
	}
}
