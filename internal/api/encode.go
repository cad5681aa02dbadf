package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/omote-irgen/internal/emit"
	"github.com/nerrad567/omote-irgen/internal/ir"
)

// ProtocolInfo describes one registered protocol.
type ProtocolInfo struct {
	Key           string `json:"key"`
	Constant      string `json:"constant"`
	Firmware      string `json:"firmware"`
	Bits          uint   `json:"bits"`
	DefaultRepeat int    `json:"default_repeat"`
}

// handleProtocols lists the protocol registry in enum order.
func (s *Server) handleProtocols(w http.ResponseWriter, _ *http.Request) {
	descs := ir.Protocols()
	out := make([]ProtocolInfo, 0, len(descs))
	for _, d := range descs {
		out = append(out, ProtocolInfo{
			Key:           d.Key,
			Constant:      d.ConstantID,
			Firmware:      emit.FirmwareProtocol(d),
			Bits:          d.WireBits,
			DefaultRepeat: d.DefaultRepeat,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"protocols": out,
		"count":     len(out),
	})
}

// EncodeRequest is the body of POST /api/v1/encode.
type EncodeRequest struct {
	Name     string            `json:"name"`
	Protocol string            `json:"protocol"`
	Fields   map[string]string `json:"fields"`
	Timings  []int             `json:"timings,omitempty"`

	// ByteOrder is "msb" (default) or "lsb" for space-separated byte fields.
	ByteOrder string `json:"byte_order,omitempty"`

	// Strict rejects out-of-range fields instead of masking them.
	Strict bool `json:"strict,omitempty"`

	// NECLSBFirst selects the wire word for the payload of NEC-family codes.
	NECLSBFirst bool `json:"nec_lsb_first,omitempty"`
}

// CodeResponse is an encoded command.
type CodeResponse struct {
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Constant string `json:"constant"`
	Hex      string `json:"hex"`
	WireHex  string `json:"wire_hex"`
	Bits     uint   `json:"bits"`
	Repeat   int    `json:"repeat"`
	Payload  string `json:"payload"`
	Source   string `json:"source"`
}

func newCodeResponse(code ir.Code, opts emit.Options) CodeResponse {
	return CodeResponse{
		Name:     code.Name,
		Protocol: code.Descriptor.Key,
		Constant: code.Descriptor.ConstantID,
		Hex:      emit.HexFor(code, opts),
		WireHex:  code.HexOrder(ir.WireOrder),
		Bits:     code.Bits,
		Repeat:   code.Repeat,
		Payload:  emit.PayloadFor(code, opts),
		Source:   code.Source.String(),
	}
}

// handleEncode encodes one record. Encode errors answer 422 with the
// ir.ErrorCode of the failure.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var req EncodeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	order, ok := parseByteOrder(req.ByteOrder)
	if !ok {
		writeBadRequest(w, `byte_order must be "msb" or "lsb"`)
		return
	}

	rec := ir.Record{
		Name:     req.Name,
		Protocol: req.Protocol,
		Fields:   req.Fields,
		Timings:  req.Timings,
		Order:    order,
	}

	enc := s.mask
	if req.Strict || s.gen.Strict {
		enc = s.strict
	}

	start := time.Now()
	code, err := enc.Encode(rec, "")
	s.observe(rec.Protocol, code, err, time.Since(start))
	if err != nil {
		writeUnprocessable(w, ir.ErrorCode(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newCodeResponse(code, emit.Options{NECLSBFirst: req.NECLSBFirst || s.gen.NECLSBFirst}))
}

func (s *Server) observe(protocol string, code ir.Code, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	if err != nil {
		label := ir.ProtocolUnknown.String()
		if d, lerr := ir.Lookup(protocol); lerr == nil {
			label = d.Key
		}
		s.metrics.ObserveEncode(label, ir.ErrorCode(err), elapsed)
		return
	}
	s.metrics.ObserveEncode(code.Descriptor.Key, "ok", elapsed)
}

func parseByteOrder(s string) (ir.ByteOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "msb":
		return ir.MSBFirst, true
	case "lsb":
		return ir.LSBFirst, true
	}
	return ir.MSBFirst, false
}

// decodeBody decodes a JSON request body into v, writing the error
// response itself on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
			return false
		}
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}
