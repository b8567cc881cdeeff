package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TianUrien/playr-chat/internal/config"
	"github.com/TianUrien/playr-chat/pkg/constant"
)

func newTestWsServer() *WsServer {
	cfg := &config.Config{}
	cfg.WebSocket.PushChannelSize = 16
	cfg.WebSocket.MaxConnNum = 100
	return NewWsServer(cfg, nil)
}

func TestDisconnectUserScopedToPlatform(t *testing.T) {
	s := newTestWsServer()

	connWeb, connIOS := &fakeConn{}, &fakeConn{}
	web := NewClient(connWeb, "pl__42", constant.PlatformIdWeb, "go", "t", "c1", s)
	ios := NewClient(connIOS, "pl__42", constant.PlatformIdIOS, "go", "t", "c2", s)
	s.userMap.Register(web)
	s.userMap.Register(ios)

	// Logout on one platform kicks only that platform's connections
	s.DisconnectUser("pl__42", constant.PlatformIdWeb)
	assert.True(t, web.IsClosed())
	assert.False(t, ios.IsClosed())

	lastWeb := lastResponse(t, connWeb)
	assert.Equal(t, int32(WSKickOnlineMsg), lastWeb.ReqIdentifier)

	// Platform zero kicks everything that remains
	s.DisconnectUser("pl__42", 0)
	assert.True(t, ios.IsClosed())
}

func TestDisconnectUserUnknownUserIsNoop(t *testing.T) {
	s := newTestWsServer()
	s.DisconnectUser("pl__unknown", 0)
}
