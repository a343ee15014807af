package protocol

import "encoding/json"

const Version = "2.0"

// Request is a JSON-RPC request or notification. A message without an
// "id" member is a notification; "id": null is still a request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`

	hasID bool
}

func (r *Request) UnmarshalJSON(data []byte) error {
	type wire struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.JSONRPC = w.JSONRPC
	r.Method = w.Method
	r.Params = w.Params
	r.ID, r.hasID = members["id"]
	return nil
}

// NewRequest builds a request with the given id. A nil id makes it a
// notification.
func NewRequest(id json.RawMessage, method string, params json.RawMessage) Request {
	return Request{JSONRPC: Version, ID: id, Method: method, Params: params, hasID: id != nil}
}

func (r Request) IsNotification() bool {
	return !r.hasID
}

// Response always carries an id member; it is null when the request id
// could not be read.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

func ResultResponse(id json.RawMessage, result any) Response {
	return Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

func ErrorResponse(id json.RawMessage, code int, msg string, data any) Response {
	return Response{
		JSONRPC: Version,
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: msg,
			Data:    data,
		},
	}
}

const (
	ErrParse          = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)
