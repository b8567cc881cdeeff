package sdk

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket protocol identifiers, mirrored from the gateway
const (
	wsWatchConvs    = 1001
	wsPushEvent     = 2001
	wsKickOnlineMsg = 2002
)

const (
	feedInitialBackoff = 1 * time.Second
	feedMaxBackoff     = 30 * time.Second
)

// wsRequest mirrors the gateway request frame
type wsRequest struct {
	ReqIdentifier int32  `json:"req_identifier"`
	MsgIncr       string `json:"msg_incr"`
	OperationId   string `json:"operation_id"`
	SendId        string `json:"send_id"`
	Data          []byte `json:"data"`
}

// wsResponse mirrors the gateway response frame
type wsResponse struct {
	ReqIdentifier int32  `json:"req_identifier"`
	MsgIncr       string `json:"msg_incr"`
	OperationId   string `json:"operation_id"`
	ErrCode       int    `json:"err_code"`
	ErrMsg        string `json:"err_msg"`
	Data          []byte `json:"data"`
}

// watchConvsReq mirrors the gateway watch frame payload
type watchConvsReq struct {
	ConversationIds []string `json:"conversation_ids"`
}

// ListenerConfig configures a change feed listener
type ListenerConfig struct {
	// WsURL is the gateway endpoint, e.g. "ws://host:8080/ws"
	WsURL      string
	Token      string
	UserId     string
	PlatformId int

	// OnEvent receives every in-scope change event
	OnEvent func(event *ChangeEvent)
	// OnReconnect fires after a dropped connection is re-established. The
	// feed does not replay missed events; the owner must refetch.
	OnReconnect func()
}

// Listener maintains the change feed connection. It never dials while the
// watch scope is empty: a client with no known conversations has nothing to
// listen for, and conversation discovery happens through the API.
type Listener struct {
	cfg ListenerConfig

	mu      sync.Mutex
	scope   map[string]struct{}
	conn    *websocket.Conn
	started bool

	// writeMu serializes frame writes: gorilla allows one concurrent
	// writer, and UpdateScope writes from the caller's goroutine while the
	// run loop writes after (re)connect. Pongs go through WriteControl,
	// which is safe alongside WriteMessage.
	writeMu sync.Mutex

	scopeCh chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewListener creates a new change feed listener
func NewListener(cfg ListenerConfig) *Listener {
	return &Listener{
		cfg:     cfg,
		scope:   make(map[string]struct{}),
		scopeCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start launches the listener loop. Safe to call once.
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	go l.run(runCtx)
}

// UpdateScope replaces the watched conversation set. If connected, the new
// watch frame goes out immediately; if waiting for a non-empty scope, the
// loop wakes up and dials.
func (l *Listener) UpdateScope(conversationIds []string) {
	scope := make(map[string]struct{}, len(conversationIds))
	for _, id := range conversationIds {
		scope[id] = struct{}{}
	}

	l.mu.Lock()
	l.scope = scope
	conn := l.conn
	l.mu.Unlock()

	select {
	case l.scopeCh <- struct{}{}:
	default:
	}

	if conn != nil {
		l.sendWatchFrame(conn)
	}
}

// Close stops the listener and closes the connection
func (l *Listener) Close() {
	l.mu.Lock()
	cancel := l.cancel
	conn := l.conn
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

// Done is closed when the listener loop has exited
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)

	backoff := feedInitialBackoff
	connectedOnce := false

	for {
		if ctx.Err() != nil {
			return
		}

		if !l.waitForScope(ctx) {
			return
		}

		conn, err := l.dial(ctx)
		if err != nil {
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = feedInitialBackoff

		l.mu.Lock()
		l.conn = conn
		l.mu.Unlock()

		l.sendWatchFrame(conn)

		if connectedOnce && l.cfg.OnReconnect != nil {
			// Missed events are gone; hand the owner a refetch trigger.
			l.cfg.OnReconnect()
		}
		connectedOnce = true

		l.readLoop(ctx, conn)

		l.mu.Lock()
		l.conn = nil
		l.mu.Unlock()
		conn.Close()

		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff)
	}
}

// waitForScope blocks until the watch scope is non-empty
func (l *Listener) waitForScope(ctx context.Context) bool {
	for {
		l.mu.Lock()
		n := len(l.scope)
		l.mu.Unlock()
		if n > 0 {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-l.scopeCh:
		}
	}
}

func (l *Listener) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(l.cfg.WsURL)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("token", l.cfg.Token)
	q.Set("send_id", l.cfg.UserId)
	q.Set("platform_id", strconv.Itoa(l.cfg.PlatformId))
	q.Set("sdk_type", "go")
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	return conn, err
}

func (l *Listener) sendWatchFrame(conn *websocket.Conn) {
	l.mu.Lock()
	ids := make([]string, 0, len(l.scope))
	for id := range l.scope {
		ids = append(ids, id)
	}
	l.mu.Unlock()

	data, err := json.Marshal(watchConvsReq{ConversationIds: ids})
	if err != nil {
		return
	}
	frame, err := json.Marshal(wsRequest{
		ReqIdentifier: wsWatchConvs,
		SendId:        l.cfg.UserId,
		Data:          data,
	})
	if err != nil {
		return
	}

	l.writeMu.Lock()
	conn.WriteMessage(websocket.TextMessage, frame)
	l.writeMu.Unlock()
}

func (l *Listener) readLoop(ctx context.Context, conn *websocket.Conn) {
	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	for {
		if ctx.Err() != nil {
			return
		}

		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var resp wsResponse
		if err := json.Unmarshal(frame, &resp); err != nil {
			continue
		}

		switch resp.ReqIdentifier {
		case wsPushEvent:
			var event ChangeEvent
			if err := json.Unmarshal(resp.Data, &event); err != nil {
				continue
			}
			if l.cfg.OnEvent != nil {
				l.cfg.OnEvent(&event)
			}
		case wsKickOnlineMsg:
			return
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > feedMaxBackoff {
		d = feedMaxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
