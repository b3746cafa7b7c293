package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/haasonsaas/deskhand/internal/tools"
)

const (
	wsProtocolVersion = 1
	wsMaxPayloadBytes = 1 << 20
	wsTickInterval    = 15 * time.Second
	wsPongWait        = 45 * time.Second
	wsPingPeriod      = 30 * time.Second
	wsWriteWait       = 10 * time.Second
)

// wsCodec must stay wire-compatible with encoding/json.
var wsCodec = jsoniter.ConfigCompatibleWithStandardLibrary

type wsFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Event   string          `json:"event,omitempty"`
	OK      *bool           `json:"ok,omitempty"`
	Payload any             `json:"payload,omitempty"`
	Error   *wsError        `json:"error,omitempty"`
	Seq     *int64          `json:"seq,omitempty"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wsHelloParams struct {
	MinProtocol int `json:"minProtocol"`
	MaxProtocol int `json:"maxProtocol"`
	Client      struct {
		ID       string `json:"id"`
		Version  string `json:"version"`
		Platform string `json:"platform"`
	} `json:"client"`
}

type wsInvokeParams struct {
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input"`
}

type wsSession struct {
	server *Server
	conn   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	id        string
	connected atomic.Bool
	seq       int64
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	session := &wsSession{
		server: s,
		conn:   conn,
		send:   make(chan []byte, 64),
		ctx:    ctx,
		cancel: cancel,
		id:     uuid.NewString(),
	}

	s.metrics.WSConnections.Inc()
	s.logger.Info("connection opened", "connection_id", session.id, "remote", r.RemoteAddr)
	session.run()
	s.metrics.WSConnections.Dec()
	s.logger.Info("connection closed", "connection_id", session.id)
}

func (s *wsSession) run() {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop()
	}()
	s.readLoop()

	// Let the writer drain queued frames (a trailing response or error)
	// before the connection drops.
	s.cancel()
	<-writerDone
	_ = s.conn.Close()
}

func (s *wsSession) readLoop() {
	s.conn.SetReadLimit(wsMaxPayloadBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		frame, err := s.decodeFrame(data)
		if err != nil {
			s.sendError("", "invalid_frame", err.Error())
			continue
		}

		if !s.connected.Load() {
			if frame.Method != "hello" {
				s.sendError(frame.ID, "handshake_required", "first request must be hello")
				continue
			}
			if err := s.handleHello(frame); err != nil {
				s.sendError(frame.ID, "hello_failed", err.Error())
				return
			}
			continue
		}

		s.handleRequest(frame)
	}
}

func (s *wsSession) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			s.drain()
			return
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// drain flushes frames queued before teardown. The send channel is
// bounded and each write carries a deadline, so this terminates even
// against a dead peer.
func (s *wsSession) drain() {
	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *wsSession) decodeFrame(raw []byte) (*wsFrame, error) {
	var frame wsFrame
	if err := wsCodec.Unmarshal(raw, &frame); err != nil {
		return nil, err
	}
	if err := validateRequestFrame(raw, &frame); err != nil {
		return nil, err
	}
	return &frame, nil
}

func (s *wsSession) handleRequest(frame *wsFrame) {
	switch frame.Method {
	case "hello":
		// Repeated handshakes just refresh the declarations.
		if err := s.handleHello(frame); err != nil {
			s.sendError(frame.ID, "hello_failed", err.Error())
		}
	case "ping":
		_ = s.sendResponse(frame.ID, true, map[string]any{"timestamp": time.Now().UnixMilli()}, nil)
	case "tools.invoke":
		s.handleInvoke(frame)
	default:
		s.sendError(frame.ID, "unknown_method", fmt.Sprintf("unknown method %q", frame.Method))
	}
}

func (s *wsSession) handleHello(frame *wsFrame) error {
	var params wsHelloParams
	if len(frame.Params) > 0 {
		if err := wsCodec.Unmarshal(frame.Params, &params); err != nil {
			return err
		}
	}

	minProtocol := params.MinProtocol
	maxProtocol := params.MaxProtocol
	if minProtocol <= 0 {
		minProtocol = wsProtocolVersion
	}
	if maxProtocol <= 0 {
		maxProtocol = wsProtocolVersion
	}
	if wsProtocolVersion < minProtocol || wsProtocolVersion > maxProtocol {
		return fmt.Errorf("unsupported protocol version")
	}

	if err := s.sendResponse(frame.ID, true, s.buildHelloPayload(), nil); err != nil {
		return err
	}
	if s.connected.CompareAndSwap(false, true) {
		go s.startTicking()
	}
	return nil
}

func (s *wsSession) handleInvoke(frame *wsFrame) {
	var params wsInvokeParams
	if err := wsCodec.Unmarshal(frame.Params, &params); err != nil {
		s.sendError(frame.ID, "invalid_frame", err.Error())
		return
	}

	tool, ok := s.server.registry.Get(params.Tool)
	if !ok {
		s.sendError(frame.ID, "unknown_tool", fmt.Sprintf("unknown tool %q", params.Tool))
		return
	}

	input := params.Input
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	if err := s.server.validateToolInput(params.Tool, input); err != nil {
		s.sendError(frame.ID, "invalid_input", err.Error())
		return
	}

	ctx, span := s.server.tracer.TraceToolInvoke(s.ctx, params.Tool)
	defer span.End()

	start := time.Now()
	result, err := tool.Execute(ctx, input)
	elapsed := time.Since(start)

	if err != nil {
		// Tool failures travel in the result payload, not as frame errors.
		s.server.tracer.RecordError(span, err)
		s.server.logger.Warn("tool failed",
			"connection_id", s.id,
			"tool", params.Tool,
			"error", err,
		)
		result = tools.ErrorResult(err.Error())
	}

	s.server.logger.Debug("tool invoked",
		"connection_id", s.id,
		"tool", params.Tool,
		"duration_ms", elapsed.Milliseconds(),
	)

	_ = s.sendResponse(frame.ID, true, map[string]any{
		"result":      result,
		"duration_ms": elapsed.Milliseconds(),
	}, nil)
}

func (s *wsSession) buildHelloPayload() map[string]any {
	list := s.server.registry.List()
	decls := make([]map[string]any, 0, len(list))
	for _, tool := range list {
		entry := map[string]any{
			"name":        tool.Name(),
			"description": tool.Description(),
			"schema":      tool.Schema(),
		}
		if provider, ok := tool.(tools.OptionsProvider); ok {
			entry["options"] = provider.Options()
		}
		decls = append(decls, entry)
	}

	return map[string]any{
		"type":     "hello-ok",
		"protocol": wsProtocolVersion,
		"server": map[string]any{
			"id":       s.id,
			"version":  s.server.config.Version,
			"uptimeMs": time.Since(s.server.startTime).Milliseconds(),
		},
		"tools": decls,
		"policy": map[string]any{
			"maxPayloadBytes": wsMaxPayloadBytes,
			"tickIntervalMs":  wsTickInterval.Milliseconds(),
		},
	}
}

func (s *wsSession) sendResponse(id string, ok bool, payload any, err *wsError) error {
	frame := wsFrame{
		Type:    "res",
		ID:      id,
		OK:      &ok,
		Payload: payload,
		Error:   err,
	}
	return s.enqueue(frame)
}

func (s *wsSession) sendEvent(event string, payload any) error {
	seq := atomic.AddInt64(&s.seq, 1)
	frame := wsFrame{
		Type:    "event",
		Event:   event,
		Payload: payload,
		Seq:     &seq,
	}
	return s.enqueue(frame)
}

func (s *wsSession) sendError(id string, code string, message string) {
	_ = s.sendResponse(id, false, nil, &wsError{Code: code, Message: message})
}

// enqueue hands a frame to the writer. The declared maxPayloadBytes
// bounds client requests only; responses (screenshot payloads) may be
// larger.
func (s *wsSession) enqueue(frame wsFrame) error {
	data, err := wsCodec.Marshal(frame)
	if err != nil {
		return err
	}
	select {
	case s.send <- data:
		return nil
	default:
		return fmt.Errorf("send buffer full")
	}
}

func (s *wsSession) startTicking() {
	ticker := time.NewTicker(wsTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			_ = s.sendEvent("tick", map[string]any{"timestamp": time.Now().UnixMilli()})
		}
	}
}
