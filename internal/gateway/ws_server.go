package gateway

import (
	"context"
	"sync/atomic"

	"github.com/TianUrien/playr-chat/internal/config"
	"github.com/TianUrien/playr-chat/internal/entity"
	"github.com/TianUrien/playr-chat/pkg/jwt"
	"github.com/mbeoliero/kit/log"
	"github.com/redis/go-redis/v9"
)

// WsServer is the change-feed WebSocket server. It delivers invalidation
// hints to connected clients; the HTTP API stays the source of truth.
type WsServer struct {
	cfg            *config.Config
	userMap        *UserMap
	tokenStore     *jwt.TokenStore
	registerChan   chan *Client
	unregisterChan chan *Client
	pushChan       chan *EventTask
	onlineUserNum  atomic.Int64
	onlineConnNum  atomic.Int64
	maxConnNum     int64
}

// EventTask represents a change event push task
type EventTask struct {
	Event     *entity.ChangeEvent
	TargetIds []string
}

// NewWsServer creates a new WebSocket server
func NewWsServer(cfg *config.Config, rdb *redis.Client) *WsServer {
	server := &WsServer{
		cfg:            cfg,
		userMap:        NewUserMap(),
		registerChan:   make(chan *Client, 1000),
		unregisterChan: make(chan *Client, 1000),
		pushChan:       make(chan *EventTask, cfg.WebSocket.PushChannelSize),
		maxConnNum:     cfg.WebSocket.MaxConnNum,
	}

	if rdb != nil {
		server.tokenStore = jwt.NewTokenStore(rdb, cfg.JWT.ExpireHours)
	}

	return server
}

// Run starts the WebSocket server
func (s *WsServer) Run(ctx context.Context) {
	go s.eventLoop(ctx)

	workerNum := s.cfg.WebSocket.PushWorkerNum
	if workerNum <= 0 {
		workerNum = 10
	}
	for i := 0; i < workerNum; i++ {
		go s.pushLoop(ctx)
	}
	log.Info("started %d push workers", workerNum)
}

// eventLoop handles client registration and unregistration
func (s *WsServer) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-s.registerChan:
			s.registerClient(ctx, client)
		case client := <-s.unregisterChan:
			s.unregisterClient(ctx, client)
		}
	}
}

// pushLoop handles async event pushing
func (s *WsServer) pushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-s.pushChan:
			s.processEventTask(ctx, task)
		}
	}
}

// processEventTask delivers one change event to every connection of the
// target users. Per-connection watch scoping happens inside PushEvent.
func (s *WsServer) processEventTask(ctx context.Context, task *EventTask) {
	for _, userId := range task.TargetIds {
		clients, ok := s.userMap.GetAll(userId)
		if !ok {
			continue
		}

		for _, client := range clients {
			if err := client.PushEvent(ctx, task.Event); err != nil {
				log.CtxDebug(ctx, "push to client failed: user_id=%s, conn_id=%s, error=%v", userId, client.ConnId, err)
			}
		}
	}
}

// registerClient registers a client
func (s *WsServer) registerClient(ctx context.Context, client *Client) {
	existingClients, exists := s.userMap.GetAll(client.UserId)
	if !exists {
		s.onlineUserNum.Add(1)
	}

	s.userMap.Register(client)
	s.onlineConnNum.Add(1)

	log.CtxInfo(ctx, "client registered: user_id=%s, platform_id=%d, conn_id=%s, existing_conns=%d, online_users=%d, online_conns=%d",
		client.UserId, client.PlatformId, client.ConnId, len(existingClients), s.onlineUserNum.Load(), s.onlineConnNum.Load())
}

// unregisterClient unregisters a client
func (s *WsServer) unregisterClient(ctx context.Context, client *Client) {
	isUserOffline := s.userMap.Unregister(client)
	s.onlineConnNum.Add(-1)

	if isUserOffline {
		s.onlineUserNum.Add(-1)
	}

	log.CtxInfo(ctx, "client unregistered: user_id=%s, platform_id=%d, conn_id=%s, user_offline=%v, online_users=%d, online_conns=%d",
		client.UserId, client.PlatformId, client.ConnId, isUserOffline, s.onlineUserNum.Load(), s.onlineConnNum.Load())
}

// UnregisterClient queues client for unregistration
func (s *WsServer) UnregisterClient(client *Client) {
	select {
	case s.unregisterChan <- client:
	default:
		log.Warn("unregister channel full: user_id=%s", client.UserId)
	}
}

// AsyncPushEvent queues a change event push to users. Implements the chat
// service's pusher interface.
func (s *WsServer) AsyncPushEvent(event *entity.ChangeEvent, userIds []string) {
	task := &EventTask{
		Event:     event,
		TargetIds: userIds,
	}

	select {
	case s.pushChan <- task:
	default:
		// Queue full. Events are hints; a dropped hint costs a refetch on
		// the next reconcile, not data loss.
		log.Warn("push channel full, event dropped: kind=%s, conversation_id=%s", event.Kind, event.ConversationId)
	}
}

// DisconnectUser kicks every feed connection of a user, scoped to one
// platform when platformId is non-zero. Implements the auth service's kicker
// interface: a revoked token must not keep receiving hints until JWT expiry.
func (s *WsServer) DisconnectUser(userId string, platformId int) {
	clients, ok := s.userMap.GetAll(userId)
	if !ok {
		return
	}

	for _, client := range clients {
		if platformId != 0 && client.PlatformId != platformId {
			continue
		}
		if err := client.KickOnline(); err != nil {
			log.Warn("kick client failed: user_id=%s, conn_id=%s, error=%v", userId, client.ConnId, err)
		}
	}
}

// GetOnlineUserCount returns online user count
func (s *WsServer) GetOnlineUserCount() int64 {
	return s.onlineUserNum.Load()
}

// GetOnlineConnCount returns online connection count
func (s *WsServer) GetOnlineConnCount() int64 {
	return s.onlineConnNum.Load()
}
