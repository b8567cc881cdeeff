package gateway

import "encoding/json"

// WSRequest represents a WebSocket request message
type WSRequest struct {
	ReqIdentifier int32  `json:"req_identifier"` // Request type
	MsgIncr       string `json:"msg_incr"`       // Client message counter/trace Id
	OperationId   string `json:"operation_id"`   // Operation Id
	SendId        string `json:"send_id"`        // Sender user Id
	Data          []byte `json:"data"`           // Business data
}

// WSResponse represents a WebSocket response message
type WSResponse struct {
	ReqIdentifier int32  `json:"req_identifier"` // Request type (echo back)
	MsgIncr       string `json:"msg_incr"`       // Message counter (echo back)
	OperationId   string `json:"operation_id"`   // Operation Id (echo back)
	ErrCode       int    `json:"err_code"`       // Error code, 0 = success
	ErrMsg        string `json:"err_msg"`        // Error message
	Data          []byte `json:"data"`           // Response data
}

// WatchConvsReq replaces the connection's watched conversation set. The
// server pushes message events only for watched conversations; an empty set
// means the connection receives no message events until a set arrives.
type WatchConvsReq struct {
	ConversationIds []string `json:"conversation_ids"`
}

// WatchConvsResp acknowledges the watch frame
type WatchConvsResp struct {
	Watched int `json:"watched"`
}

// Encode encodes data to JSON bytes
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Decode decodes JSON bytes to struct
func Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
