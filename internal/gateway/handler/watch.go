package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"latexify/internal/view"
)

const (
	watchWriteWait = 10 * time.Second
	watchPongWait  = 60 * time.Second
	watchPingEvery = (watchPongWait * 9) / 10
)

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type watchInbound struct {
	Type string `json:"type"`
}

type watchOutbound struct {
	Type     string         `json:"type"`
	Snapshot *view.Snapshot `json:"snapshot,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// Watch streams a snapshot after every change to the session until the
// client disconnects or the session is discarded.
func (h *SessionHandler) Watch(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	conn, err := watchUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(watchPongWait)); err != nil {
		log.Printf("watch: set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})

	writeCh := make(chan watchOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(watchPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
				if out.Type == "closed" {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
						time.Now().Add(watchWriteWait))
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	subCh, unsubscribe := sess.Controller.Subscribe()
	defer unsubscribe()

	initial := sess.Controller.Snapshot()
	pushWatch(writeCh, watchOutbound{Type: "snapshot", Snapshot: &initial})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-subCh:
				if !ok {
					pushWatch(writeCh, watchOutbound{Type: "closed"})
					return
				}
				pushWatch(writeCh, watchOutbound{Type: "snapshot", Snapshot: &snap})
			}
		}
	}()

	for {
		var in watchInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch msgType := strings.ToLower(strings.TrimSpace(in.Type)); msgType {
		case "ping":
			pushWatch(writeCh, watchOutbound{Type: "pong"})
		case "snapshot":
			snap := sess.Controller.Snapshot()
			pushWatch(writeCh, watchOutbound{Type: "snapshot", Snapshot: &snap})
		default:
			pushWatch(writeCh, watchOutbound{Type: "error", Message: "unsupported type: " + msgType})
		}
	}
}

// pushWatch drops the oldest queued message when the writer falls behind.
func pushWatch(writeCh chan watchOutbound, out watchOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
