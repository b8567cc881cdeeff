package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway accepts feed connections and records the frames it reads
type fakeGateway struct {
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn
	frames   chan *wsRequest
	queries  chan map[string]string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		conns:   make(chan *websocket.Conn, 4),
		frames:  make(chan *wsRequest, 16),
		queries: make(chan map[string]string, 4),
	}
}

func (g *fakeGateway) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := make(map[string]string)
		for k, v := range r.URL.Query() {
			query[k] = v[0]
		}
		g.queries <- query

		conn, err := g.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		g.conns <- conn

		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req wsRequest
			if err := json.Unmarshal(frame, &req); err != nil {
				continue
			}
			g.frames <- &req
		}
	})
}

func (g *fakeGateway) pushEvent(t *testing.T, conn *websocket.Conn, event *ChangeEvent) {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	frame, err := json.Marshal(wsResponse{ReqIdentifier: wsPushEvent, Data: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func waitConn(t *testing.T, g *fakeGateway) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-g.conns:
		return conn
	case <-time.After(3 * time.Second):
		t.Fatal("no feed connection arrived")
		return nil
	}
}

func waitWatchFrame(t *testing.T, g *fakeGateway) *watchConvsReq {
	t.Helper()
	select {
	case frame := <-g.frames:
		require.Equal(t, int32(wsWatchConvs), frame.ReqIdentifier)
		var req watchConvsReq
		require.NoError(t, json.Unmarshal(frame.Data, &req))
		return &req
	case <-time.After(3 * time.Second):
		t.Fatal("no watch frame arrived")
		return nil
	}
}

func TestListenerWaitsForNonEmptyScope(t *testing.T) {
	gw := newFakeGateway()
	srv := httptest.NewServer(gw.handler())
	defer srv.Close()

	l := NewListener(ListenerConfig{
		WsURL:  wsURL(srv),
		Token:  "token",
		UserId: "pl__42",
	})
	l.Start(context.Background())
	defer func() { l.Close(); <-l.Done() }()

	// Nothing to watch, nothing to dial
	select {
	case <-gw.conns:
		t.Fatal("listener dialed with an empty scope")
	case <-time.After(300 * time.Millisecond):
	}

	l.UpdateScope([]string{"dm_a:b"})

	waitConn(t, gw)
	watch := waitWatchFrame(t, gw)
	assert.Equal(t, []string{"dm_a:b"}, watch.ConversationIds)
}

func TestListenerDialCarriesIdentity(t *testing.T) {
	gw := newFakeGateway()
	srv := httptest.NewServer(gw.handler())
	defer srv.Close()

	l := NewListener(ListenerConfig{
		WsURL:      wsURL(srv),
		Token:      "the-token",
		UserId:     "pl__42",
		PlatformId: 5,
	})
	l.UpdateScope([]string{"dm_a:b"})
	l.Start(context.Background())
	defer func() { l.Close(); <-l.Done() }()

	select {
	case query := <-gw.queries:
		assert.Equal(t, "the-token", query["token"])
		assert.Equal(t, "pl__42", query["send_id"])
		assert.Equal(t, "5", query["platform_id"])
		assert.Equal(t, "go", query["sdk_type"])
	case <-time.After(3 * time.Second):
		t.Fatal("no dial arrived")
	}
}

func TestListenerDeliversEvents(t *testing.T) {
	gw := newFakeGateway()
	srv := httptest.NewServer(gw.handler())
	defer srv.Close()

	events := make(chan *ChangeEvent, 4)
	l := NewListener(ListenerConfig{
		WsURL:   wsURL(srv),
		Token:   "token",
		UserId:  "pl__42",
		OnEvent: func(event *ChangeEvent) { events <- event },
	})
	l.UpdateScope([]string{"dm_a:b"})
	l.Start(context.Background())
	defer func() { l.Close(); <-l.Done() }()

	conn := waitConn(t, gw)
	waitWatchFrame(t, gw)

	gw.pushEvent(t, conn, &ChangeEvent{
		Kind:           EventMessageInsert,
		ConversationId: "dm_a:b",
		At:             time.Now().UnixMilli(),
	})

	select {
	case event := <-events:
		assert.Equal(t, EventMessageInsert, event.Kind)
		assert.Equal(t, "dm_a:b", event.ConversationId)
	case <-time.After(3 * time.Second):
		t.Fatal("event never reached the callback")
	}
}

func TestListenerResendsWatchFrameOnScopeChange(t *testing.T) {
	gw := newFakeGateway()
	srv := httptest.NewServer(gw.handler())
	defer srv.Close()

	l := NewListener(ListenerConfig{
		WsURL:  wsURL(srv),
		Token:  "token",
		UserId: "pl__42",
	})
	l.UpdateScope([]string{"dm_a:b"})
	l.Start(context.Background())
	defer func() { l.Close(); <-l.Done() }()

	waitConn(t, gw)
	waitWatchFrame(t, gw)

	l.UpdateScope([]string{"dm_a:b", "dm_a:c"})

	watch := waitWatchFrame(t, gw)
	assert.ElementsMatch(t, []string{"dm_a:b", "dm_a:c"}, watch.ConversationIds)
}

func TestListenerConcurrentScopeUpdates(t *testing.T) {
	gw := newFakeGateway()
	srv := httptest.NewServer(gw.handler())
	defer srv.Close()

	l := NewListener(ListenerConfig{
		WsURL:  wsURL(srv),
		Token:  "token",
		UserId: "pl__42",
	})
	l.UpdateScope([]string{"dm_a:b"})
	l.Start(context.Background())
	defer func() { l.Close(); <-l.Done() }()

	waitConn(t, gw)
	waitWatchFrame(t, gw)

	// Scope updates from many goroutines against one live connection;
	// every frame must arrive intact on the wire
	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.UpdateScope([]string{fmt.Sprintf("dm_a:b%d", i)})
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		watch := waitWatchFrame(t, gw)
		require.Len(t, watch.ConversationIds, 1)
	}
}

func TestListenerReconnectsAndSignals(t *testing.T) {
	gw := newFakeGateway()
	srv := httptest.NewServer(gw.handler())
	defer srv.Close()

	reconnects := make(chan struct{}, 4)
	l := NewListener(ListenerConfig{
		WsURL:       wsURL(srv),
		Token:       "token",
		UserId:      "pl__42",
		OnReconnect: func() { reconnects <- struct{}{} },
	})
	l.UpdateScope([]string{"dm_a:b"})
	l.Start(context.Background())
	defer func() { l.Close(); <-l.Done() }()

	conn := waitConn(t, gw)
	waitWatchFrame(t, gw)

	// Drop the connection server-side; the listener must come back
	conn.Close()

	waitConn(t, gw)
	waitWatchFrame(t, gw)

	select {
	case <-reconnects:
	case <-time.After(3 * time.Second):
		t.Fatal("reconnect signal never fired")
	}
}
