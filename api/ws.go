package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	apierrors "github.com/soltip/soltip/errors"
	"github.com/soltip/soltip/exception"
	"github.com/soltip/soltip/logx"
)

const (
	pingInterval = 5 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleWS pushes a state snapshot on connect and after every change of the
// caller's session. The socket is push-only; anything the client sends is
// discarded.
func (s *APIServer) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Lookup(r)
	if !ok {
		apierrors.WriteError(w, apierrors.NewError(apierrors.ErrCodeInvalidRequest, "No session, load the page first"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Warn("WS", "failed to upgrade HTTP connection to websocket protocol: ", err)
		return
	}
	defer conn.Close()

	changes, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	exception.SafeGo("WSReader", func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
					logx.Debug("WS", "read: ", err)
				}
				return
			}
		}
	})

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	push := func() error {
		sess.touch()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(snapshot(sess))
	}
	if err := push(); err != nil {
		return
	}

	for {
		var err error
		select {
		case <-closed:
			return
		case <-sess.ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session ended"), time.Now().Add(writeWait))
			return
		case <-changes:
			err = push()
		case <-ping.C:
			err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		}
		if err != nil {
			logx.Debug("WS", "session ", sess.ID, " write failed: ", err)
			return
		}
	}
}
