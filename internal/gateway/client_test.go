package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TianUrien/playr-chat/internal/entity"
	"github.com/TianUrien/playr-chat/pkg/constant"
)

// fakeConn records written frames in memory
type fakeConn struct {
	writes [][]byte
	closed bool
}

func (f *fakeConn) ReadMessage() ([]byte, error)       { select {} }
func (f *fakeConn) WriteMessage(data []byte) error     { f.writes = append(f.writes, data); return nil }
func (f *fakeConn) Close() error                       { f.closed = true; return nil }
func (f *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func newTestClient(conn ClientConn) *Client {
	return NewClient(conn, "pl__42", constant.PlatformIdWeb, "go", "token", "conn-1", nil)
}

func watchFrame(t *testing.T, ids ...string) []byte {
	t.Helper()
	data, err := json.Marshal(WatchConvsReq{ConversationIds: ids})
	require.NoError(t, err)
	frame, err := json.Marshal(WSRequest{
		ReqIdentifier: WSWatchConvs,
		MsgIncr:       "1",
		OperationId:   "op-1",
		SendId:        "pl__42",
		Data:          data,
	})
	require.NoError(t, err)
	return frame
}

func lastResponse(t *testing.T, conn *fakeConn) *WSResponse {
	t.Helper()
	require.NotEmpty(t, conn.writes)
	var resp WSResponse
	require.NoError(t, json.Unmarshal(conn.writes[len(conn.writes)-1], &resp))
	return &resp
}

func TestWatchFrameReplacesScope(t *testing.T) {
	conn := &fakeConn{}
	c := newTestClient(conn)

	require.NoError(t, c.handleMessage(watchFrame(t, "dm_a:b", "dm_a:c")))

	resp := lastResponse(t, conn)
	assert.Equal(t, int32(WSWatchConvs), resp.ReqIdentifier)
	assert.Equal(t, 0, resp.ErrCode)

	var ack WatchConvsResp
	require.NoError(t, json.Unmarshal(resp.Data, &ack))
	assert.Equal(t, 2, ack.Watched)

	assert.True(t, c.watching(&entity.ChangeEvent{Kind: constant.EventMessageInsert, ConversationId: "dm_a:b"}))
	assert.False(t, c.watching(&entity.ChangeEvent{Kind: constant.EventMessageInsert, ConversationId: "dm_x:y"}))

	// A later frame replaces the set rather than extending it
	require.NoError(t, c.handleMessage(watchFrame(t, "dm_x:y")))
	assert.False(t, c.watching(&entity.ChangeEvent{Kind: constant.EventMessageInsert, ConversationId: "dm_a:b"}))
	assert.True(t, c.watching(&entity.ChangeEvent{Kind: constant.EventMessageInsert, ConversationId: "dm_x:y"}))
}

func TestConversationInsertBypassesScope(t *testing.T) {
	conn := &fakeConn{}
	c := newTestClient(conn)

	// Empty watch set, but an insert hint still passes
	assert.True(t, c.watching(&entity.ChangeEvent{Kind: constant.EventConversationInsert, ConversationId: "dm_a:b"}))
	assert.False(t, c.watching(&entity.ChangeEvent{Kind: constant.EventMessageInsert, ConversationId: "dm_a:b"}))
	assert.False(t, c.watching(&entity.ChangeEvent{Kind: constant.EventMessageRead, ConversationId: "dm_a:b"}))
}

func TestPushEventDropsUnwatchedSilently(t *testing.T) {
	conn := &fakeConn{}
	c := newTestClient(conn)

	require.NoError(t, c.handleMessage(watchFrame(t, "dm_a:b")))
	written := len(conn.writes)

	err := c.PushEvent(context.Background(), &entity.ChangeEvent{
		Kind:           constant.EventMessageInsert,
		ConversationId: "dm_x:y",
		At:             time.Now().UnixMilli(),
	})
	require.NoError(t, err)
	assert.Equal(t, written, len(conn.writes), "out-of-scope event must not reach the wire")
}

func TestPushEventDeliversWatched(t *testing.T) {
	conn := &fakeConn{}
	c := newTestClient(conn)

	require.NoError(t, c.handleMessage(watchFrame(t, "dm_a:b")))

	event := &entity.ChangeEvent{
		Kind:           constant.EventMessageInsert,
		ConversationId: "dm_a:b",
		At:             time.Now().UnixMilli(),
	}
	require.NoError(t, c.PushEvent(context.Background(), event))

	resp := lastResponse(t, conn)
	assert.Equal(t, int32(WSPushEvent), resp.ReqIdentifier)

	var got entity.ChangeEvent
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, event.Kind, got.Kind)
	assert.Equal(t, event.ConversationId, got.ConversationId)
}

func TestPushEventOnClosedClient(t *testing.T) {
	conn := &fakeConn{}
	c := newTestClient(conn)
	require.NoError(t, c.Close())

	err := c.PushEvent(context.Background(), &entity.ChangeEvent{
		Kind:           constant.EventConversationInsert,
		ConversationId: "dm_a:b",
	})
	assert.ErrorIs(t, err, ErrConnClosed)
	assert.True(t, conn.closed)
}

func TestKickOnlineSendsFrameAndCloses(t *testing.T) {
	conn := &fakeConn{}
	c := newTestClient(conn)

	require.NoError(t, c.KickOnline())

	resp := lastResponse(t, conn)
	assert.Equal(t, int32(WSKickOnlineMsg), resp.ReqIdentifier)
	assert.True(t, c.IsClosed())
	assert.True(t, conn.closed)
}

func TestSendIdMismatchRejected(t *testing.T) {
	conn := &fakeConn{}
	c := newTestClient(conn)

	data, err := json.Marshal(WatchConvsReq{ConversationIds: []string{"dm_a:b"}})
	require.NoError(t, err)
	frame, err := json.Marshal(WSRequest{
		ReqIdentifier: WSWatchConvs,
		SendId:        "pl__other",
		Data:          data,
	})
	require.NoError(t, err)

	require.NoError(t, c.handleMessage(frame))
	resp := lastResponse(t, conn)
	assert.NotEqual(t, 0, resp.ErrCode)

	// The mismatched frame changed nothing
	assert.False(t, c.watching(&entity.ChangeEvent{Kind: constant.EventMessageInsert, ConversationId: "dm_a:b"}))
}

func TestUnknownRequestIdentifierRejected(t *testing.T) {
	conn := &fakeConn{}
	c := newTestClient(conn)

	frame, err := json.Marshal(WSRequest{ReqIdentifier: 9999, SendId: "pl__42"})
	require.NoError(t, err)

	require.NoError(t, c.handleMessage(frame))
	resp := lastResponse(t, conn)
	assert.NotEqual(t, 0, resp.ErrCode)
}
