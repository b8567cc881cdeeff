package gateway

import (
	"context"
	"strconv"

	"github.com/TianUrien/playr-chat/pkg/jwt"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/hertz-contrib/websocket"
	"github.com/mbeoliero/kit/log"
)

// HandleHertzConnection handles a WebSocket connection from Hertz using hertz-contrib/websocket
func (s *WsServer) HandleHertzConnection(ctx context.Context, c *app.RequestContext, upgrader *websocket.HertzUpgrader) {
	if s.onlineConnNum.Load() >= s.maxConnNum {
		c.String(503, "connection limit exceeded")
		return
	}

	token := string(c.Query(QueryToken))
	sendId := string(c.Query(QuerySendId))
	platformIdStr := string(c.Query(QueryPlatformId))
	sdkType := string(c.Query(QuerySDKType))

	if token == "" || sendId == "" {
		c.String(400, "missing required parameters")
		return
	}

	platformId := 0
	if platformIdStr != "" {
		platformId, _ = strconv.Atoi(platformIdStr)
	}

	claims, err := jwt.ValidateToken(token, s.cfg.JWT.Secret, sendId, platformId)
	if err != nil {
		log.CtxDebug(ctx, "token validation failed: send_id=%s, error=%v", sendId, err)
		c.String(401, "unauthorized")
		return
	}

	// A logged-out token parses fine but is revoked in redis. Redis being
	// unreachable falls back to JWT-only, same as the HTTP middleware.
	if s.tokenStore != nil {
		status, err := s.tokenStore.ValidateTokenStatus(ctx, claims.UserId, claims.PlatformId, token)
		if err != nil {
			log.CtxWarn(ctx, "token status check failed: send_id=%s, error=%v", sendId, err)
		} else if status != 0 && status != jwt.TokenStatusNormal {
			log.CtxDebug(ctx, "revoked token rejected: send_id=%s, status=%d", sendId, status)
			c.String(401, "unauthorized")
			return
		}
	}

	err = upgrader.Upgrade(c, func(conn *websocket.Conn) {
		connId := uuid.New().String()
		wsConn := NewHertzWebSocketClientConn(conn, s.cfg.WebSocket.MaxMessageSize, PongWait, PingPeriod)
		client := NewClient(wsConn, claims.UserId, claims.PlatformId, sdkType, token, connId, s)

		s.registerChan <- client

		// Blocking read loop keeps the upgraded connection alive
		client.readLoop()
	})

	if err != nil {
		log.CtxWarn(ctx, "websocket upgrade failed: %v", err)
		return
	}
}
