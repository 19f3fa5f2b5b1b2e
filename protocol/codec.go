package protocol

import (
	"bytes"

	"github.com/code19m/errx"
	"github.com/goccy/go-json"

	"github.com/rise-and-shine/pulseq/val"
)

// Decode parses and validates a request frame.
// Any failure is a PROTOCOL_ERROR; a decoded request is well formed, though
// the queue may still reject its values.
func Decode(frame []byte) (Request, error) {
	var req Request

	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 {
		return req, errProtocol("empty frame", errx.D{})
	}

	if err := json.Unmarshal(frame, &req); err != nil {
		return req, errProtocol("malformed request", errx.D{"cause": err.Error()})
	}

	if err := req.Validate(); err != nil {
		return req, err
	}

	return req, nil
}

// Validate checks that the request names a known op and carries the fields
// that op needs.
func (r Request) Validate() error {
	err := val.ValidateSchema(r)
	if err == nil {
		return nil
	}

	details := errx.D{"op": string(r.Op)}
	for field, desc := range errx.AsErrorX(err).Fields() {
		details[field] = desc
	}
	return errProtocol("invalid request", details)
}

// Encode serialises a response frame without the trailing newline.
func Encode(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return data, nil
}

// EncodeRequest serialises a request frame without the trailing newline.
func EncodeRequest(req Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return data, nil
}

// DecodeResponse parses a response frame.
func DecodeResponse(frame []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(bytes.TrimSpace(frame), &resp); err != nil {
		return resp, errProtocol("malformed response", errx.D{"cause": err.Error()})
	}
	return resp, nil
}
