package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/samiralibabic/rexterm/internal/protocol"
	"github.com/samiralibabic/rexterm/internal/transport/ndjson"
)

// RunStdio serves one message per line from in until EOF or ctx is done.
// Requests are handled strictly in order; responses go to out.
func RunStdio(ctx context.Context, svc *Service, in io.Reader, out io.Writer) error {
	dec := ndjson.NewDecoder(in)
	enc := ndjson.NewEncoder(out)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := dec.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		resp, ok := handleLine(ctx, svc, line)
		if !ok {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
}

func handleLine(ctx context.Context, svc *Service, line []byte) (protocol.Response, bool) {
	if !json.Valid(line) {
		svc.logger.Warn("unparseable message", zap.Int("bytes", len(line)))
		svc.observe("", "parse_error")
		return protocol.ErrorResponse(nil, protocol.ErrParse, "Parse error", nil), true
	}
	var req protocol.Request
	if err := ndjson.Unmarshal(line, &req); err != nil {
		svc.observe("", "invalid_request")
		return protocol.ErrorResponse(recoverID(line), protocol.ErrInvalidRequest, "Invalid Request: "+err.Error(), nil), true
	}
	return svc.Handle(ctx, req)
}

// recoverID pulls the id out of an object whose other members failed to
// decode, so the error can still be matched to its request.
func recoverID(line []byte) json.RawMessage {
	var members map[string]json.RawMessage
	if err := ndjson.Unmarshal(line, &members); err != nil {
		return nil
	}
	return members["id"]
}
