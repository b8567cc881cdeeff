package sdk

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultListTTL = 30 * time.Second
	defaultMsgTTL  = 15 * time.Second

	// sendMaxAttempts bounds internal retries of one send. Every attempt
	// carries the same idempotency token, so retries can never duplicate.
	sendMaxAttempts = 3
	sendRetryDelay  = 200 * time.Millisecond
)

// Messenger is the client-side conversation engine. It keeps one merged,
// ordered view of the conversation list (real conversations plus at most one
// local pending placeholder), a read-through cache over the API, and an
// optional change feed subscription that invalidates that cache.
type Messenger struct {
	api      *Client
	userId   string
	cache    *Cache
	listener *Listener

	listTTL time.Duration
	msgTTL  time.Duration

	mu         sync.Mutex
	pending    *PendingConversation
	selectedId string
	// readOverlay holds conversation ids whose unread count is locally
	// cleared ahead of server confirmation
	readOverlay map[string]struct{}
	closed      bool

	events  chan *ChangeEvent
	updates chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// MessengerOption configures a Messenger
type MessengerOption func(*Messenger)

// WithListTTL sets the conversation list cache TTL
func WithListTTL(ttl time.Duration) MessengerOption {
	return func(m *Messenger) { m.listTTL = ttl }
}

// WithMessageTTL sets the per-conversation message cache TTL
func WithMessageTTL(ttl time.Duration) MessengerOption {
	return func(m *Messenger) { m.msgTTL = ttl }
}

// WithFeed attaches a change feed listener dialing wsURL
func WithFeed(wsURL string, platformId int) MessengerOption {
	return func(m *Messenger) {
		m.listener = NewListener(ListenerConfig{
			WsURL:      wsURL,
			Token:      m.api.GetToken(),
			UserId:     m.userId,
			PlatformId: platformId,
			OnEvent:    m.enqueueEvent,
			OnReconnect: func() {
				// The feed replays nothing; everything local may be stale.
				m.cache.InvalidateAll()
				m.signalUpdate()
			},
		})
	}
}

// NewMessenger creates a new Messenger for the authenticated user
func NewMessenger(api *Client, userId string, opts ...MessengerOption) *Messenger {
	m := &Messenger{
		api:         api,
		userId:      userId,
		cache:       NewCache(),
		listTTL:     defaultListTTL,
		msgTTL:      defaultMsgTTL,
		readOverlay: make(map[string]struct{}),
		events:      make(chan *ChangeEvent, 256),
		updates:     make(chan struct{}, 1),
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	if m.listener != nil {
		m.listener.Start(ctx)
	}
	go m.eventLoop(ctx)

	return m
}

// Updates signals that the merged view may have changed. Coalesced: one
// pending signal at most.
func (m *Messenger) Updates() <-chan struct{} {
	return m.updates
}

// Close stops the event loop and the feed listener. Late events are dropped.
func (m *Messenger) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	if m.listener != nil {
		m.listener.Close()
	}
	<-m.done
}

// OpenConversation opens a chat with a counterpart profile. An existing
// conversation with that pair is selected; otherwise a local pending
// placeholder is created and selected. At most one pending exists at a time;
// opening a second target replaces it.
func (m *Messenger) OpenConversation(ctx context.Context, profile *UserInfo) (string, error) {
	if profile == nil || profile.Id == "" {
		return "", ErrInvalidParam
	}
	if profile.Id == m.userId {
		return "", NewError(CodeSelfConversation, "cannot start a conversation with yourself")
	}

	convs, err := m.fetchConversations(ctx)
	if err != nil {
		return "", err
	}
	for _, conv := range convs {
		if conv.CounterpartId == profile.Id {
			m.mu.Lock()
			m.selectedId = conv.ConversationId
			m.mu.Unlock()
			m.signalUpdate()
			return conv.ConversationId, nil
		}
	}

	pending := NewPendingConversation(profile.Id, profile.Name, profile.Role, profile.Avatar, time.Now().UnixMilli())

	m.mu.Lock()
	m.pending = pending
	m.selectedId = pending.Id
	m.mu.Unlock()

	m.signalUpdate()
	return pending.Id, nil
}

// Conversations returns the merged, ordered conversation view: the pending
// placeholder first (when present and not shadowed by a real conversation
// with the same pair), then real conversations ordered by last message time
// descending with never-messaged conversations last.
func (m *Messenger) Conversations(ctx context.Context) ([]*ConversationInfo, error) {
	convs, err := m.fetchConversations(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	pending := m.pending
	overlay := make(map[string]struct{}, len(m.readOverlay))
	for k := range m.readOverlay {
		overlay[k] = struct{}{}
	}
	m.mu.Unlock()

	merged := make([]*ConversationInfo, 0, len(convs)+1)

	if pending != nil {
		shadowed := false
		for _, conv := range convs {
			if conv.CounterpartId == pending.TargetId {
				shadowed = true
				break
			}
		}
		if shadowed {
			// The pair gained a real conversation elsewhere; retire the
			// placeholder.
			m.retirePending(pending.TargetId)
		} else {
			merged = append(merged, pending.ToConversationInfo())
		}
	}

	for _, conv := range convs {
		view := *conv
		if _, ok := overlay[conv.ConversationId]; ok {
			view.UnreadCount = 0
		}
		merged = append(merged, &view)
	}

	return merged, nil
}

// SendMessage sends body to the selected conversation. One idempotency token
// is minted per call; transient failures retry with the same token, so the
// server sees at most one message. Sending to a pending conversation
// promotes it: the server creates the real conversation and the selected id
// swaps to it exactly once.
func (m *Messenger) SendMessage(ctx context.Context, body string) (*MessageInfo, error) {
	m.mu.Lock()
	selectedId := m.selectedId
	pending := m.pending
	m.mu.Unlock()

	if selectedId == "" {
		return nil, ErrConvNotFound
	}

	req := &SendMessageRequest{
		ClientMsgId: uuid.New().String(),
		Body:        body,
	}
	fromPending := pending != nil && selectedId == pending.Id
	if fromPending {
		req.RecvId = pending.TargetId
	} else {
		req.ConversationId = selectedId
	}

	msg, err := m.sendWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	if fromPending {
		m.promotePending(pending.Id, msg.ConversationId)
	}

	m.cache.Invalidate(m.listKey())
	m.cache.Invalidate(m.messagesKey(msg.ConversationId))
	m.signalUpdate()

	return msg, nil
}

// sendWithRetry retries transient failures with the same token
func (m *Messenger) sendWithRetry(ctx context.Context, req *SendMessageRequest) (*MessageInfo, error) {
	var lastErr error
	for attempt := 0; attempt < sendMaxAttempts; attempt++ {
		if attempt > 0 {
			if !sleepCtx(ctx, sendRetryDelay) {
				return nil, ctx.Err()
			}
		}

		msg, err := m.api.SendMessage(ctx, req)
		if err == nil {
			return msg, nil
		}
		lastErr = err

		// Validation and permission failures are final
		if IsValidation(err) || IsPermission(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// promotePending swaps the selected id from the placeholder to the real
// conversation and destroys the placeholder. The swap happens at most once:
// a concurrent retirement leaves the selection untouched.
func (m *Messenger) promotePending(pendingId, conversationId string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil || m.pending.Id != pendingId {
		return
	}
	m.pending = nil
	if m.selectedId == pendingId {
		m.selectedId = conversationId
	}
}

// retirePending drops the placeholder for a target whose pair gained a real
// conversation
func (m *Messenger) retirePending(targetId string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil || m.pending.TargetId != targetId {
		return
	}
	pendingId := m.pending.Id
	m.pending = nil
	if m.selectedId == pendingId {
		m.selectedId = ""
	}
}

// SelectConversation makes a conversation current. For real conversations
// the local unread count clears immediately and a mark-read call goes to the
// server best-effort; if it fails, the optimistic clear is rolled back and
// the list invalidated so the next fetch shows the true count.
func (m *Messenger) SelectConversation(ctx context.Context, conversationId string) error {
	m.mu.Lock()
	m.selectedId = conversationId
	isPending := m.pending != nil && m.pending.Id == conversationId
	if !isPending {
		m.readOverlay[conversationId] = struct{}{}
	}
	m.mu.Unlock()

	m.signalUpdate()

	if isPending {
		return nil
	}

	if err := m.api.MarkRead(ctx, conversationId); err != nil {
		m.mu.Lock()
		delete(m.readOverlay, conversationId)
		m.mu.Unlock()

		m.cache.Invalidate(m.listKey())
		m.signalUpdate()
		return err
	}

	return nil
}

// SelectedConversation returns the currently selected conversation id
func (m *Messenger) SelectedConversation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedId
}

// Messages returns the messages of a conversation ordered by sent time. A
// pending conversation has none.
func (m *Messenger) Messages(ctx context.Context, conversationId string) ([]*MessageInfo, error) {
	if IsPendingConversationId(conversationId) {
		return nil, nil
	}

	v, err := m.cache.Dedupe(ctx, m.messagesKey(conversationId), m.msgTTL, func(ctx context.Context) (interface{}, error) {
		return m.api.ListMessages(ctx, conversationId, 0)
	})
	if err != nil {
		return nil, err
	}

	msgs := v.([]*MessageInfo)
	out := make([]*MessageInfo, len(msgs))
	copy(out, msgs)

	// Order by sent timestamp, not arrival
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SentAt < out[j].SentAt
	})
	return out, nil
}

// UnreadBadge returns the total unread count of the merged view. The pending
// placeholder contributes zero.
func (m *Messenger) UnreadBadge(ctx context.Context) (int64, error) {
	convs, err := m.Conversations(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, conv := range convs {
		total += conv.UnreadCount
	}
	return total, nil
}

// fetchConversations reads the conversation list through the dedup cache and
// keeps the feed scope in sync with the known conversations.
func (m *Messenger) fetchConversations(ctx context.Context) ([]*ConversationInfo, error) {
	v, err := m.cache.Dedupe(ctx, m.listKey(), m.listTTL, func(ctx context.Context) (interface{}, error) {
		convs, err := m.api.GetConversationList(ctx, 0)
		if err != nil {
			return nil, err
		}

		if m.listener != nil {
			ids := make([]string, 0, len(convs))
			for _, conv := range convs {
				ids = append(ids, conv.ConversationId)
			}
			m.listener.UpdateScope(ids)
		}

		return convs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*ConversationInfo), nil
}

// enqueueEvent hands a feed event to the event loop. Dropped when the
// messenger is closed or the queue is full; events are hints, a dropped hint
// just delays the next refetch.
func (m *Messenger) enqueueEvent(event *ChangeEvent) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return
	}

	select {
	case m.events <- event:
	default:
	}
}

// eventLoop turns feed hints into cache invalidations and update signals
func (m *Messenger) eventLoop(ctx context.Context) {
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-m.events:
			m.handleEvent(event)
		}
	}
}

func (m *Messenger) handleEvent(event *ChangeEvent) {
	switch event.Kind {
	case EventConversationInsert:
		m.cache.Invalidate(m.listKey())
	case EventMessageInsert:
		m.cache.Invalidate(m.listKey())
		m.cache.Invalidate(m.messagesKey(event.ConversationId))
		// New counterpart activity invalidates any optimistic read clear
		m.mu.Lock()
		delete(m.readOverlay, event.ConversationId)
		m.mu.Unlock()
	case EventMessageRead:
		m.cache.Invalidate(m.listKey())
		m.cache.Invalidate(m.messagesKey(event.ConversationId))
	default:
		return
	}

	m.signalUpdate()
}

func (m *Messenger) signalUpdate() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}

func (m *Messenger) listKey() string {
	return "conversations:" + m.userId
}

func (m *Messenger) messagesKey(conversationId string) string {
	return "messages:" + m.userId + ":" + conversationId
}
