package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool; the server binds to loopback by default
	},
}

// WebSocket message types from client.
const (
	wsMsgLoad   = "load"
	wsMsgAction = "action"
	wsMsgTrust  = "trust"
	wsMsgState  = "get_state"
	wsMsgFinish = "finish"
)

// WebSocket message types to client.
const (
	wsMsgParsed  = "parsed"
	wsMsgUpdate  = "state"
	wsMsgHunks   = "hunks"
	wsMsgSummary = "summary"
	wsMsgError   = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsTrustMsg edits the trust list; Remove drops the patterns instead.
type wsTrustMsg struct {
	Patterns []string `json:"patterns"`
	Remove   bool     `json:"remove,omitempty"`
}

// wsSummaryResponse is sent when the reviewer finishes.
type wsSummaryResponse struct {
	stateResponse
	Files map[string]fileSummary `json:"files"`
	Patch string                 `json:"patch,omitempty"`
}

type fileSummary struct {
	Approved int  `json:"approved"`
	Trusted  int  `json:"trusted"`
	Rejected int  `json:"rejected"`
	Pending  int  `json:"pending"`
	Done     bool `json:"done"`
}

// wsSession serves one connection. Reads and writes happen on the handler
// goroutine only.
type wsSession struct {
	s    *Server
	conn *websocket.Conn
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	sess := &wsSession{s: s, conn: conn}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read", "error", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			sess.sendError("invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgLoad:
			sess.handleLoad(r, msg.Data)
		case wsMsgAction:
			sess.handleAction(r, msg.Data)
		case wsMsgTrust:
			sess.handleTrust(r, msg.Data)
		case wsMsgState:
			sess.sendState()
		case wsMsgFinish:
			sess.handleFinish()
		default:
			sess.sendError("unknown message type: " + msg.Type)
		}
	}
}

func (sess *wsSession) handleLoad(r *http.Request, data json.RawMessage) {
	var req loadRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sess.sendError("invalid load data")
		return
	}
	ds, err := sess.s.load(r.Context(), req)
	if err != nil {
		sess.sendError(err.Error())
		return
	}
	sess.send(wsMsgParsed, parsed(ds))
	sess.sendState()
}

func (sess *wsSession) handleAction(r *http.Request, data json.RawMessage) {
	var req actionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sess.sendError("invalid action data")
		return
	}
	if err := sess.s.apply(r.Context(), req); err != nil {
		sess.sendError(err.Error())
		return
	}
	sess.sendState()
}

func (sess *wsSession) handleTrust(r *http.Request, data json.RawMessage) {
	var req wsTrustMsg
	if err := json.Unmarshal(data, &req); err != nil {
		sess.sendError("invalid trust data")
		return
	}
	var err error
	if req.Remove {
		_, err = sess.s.svc.RemoveTrust(r.Context(), req.Patterns...)
	} else {
		_, err = sess.s.svc.AddTrust(r.Context(), req.Patterns...)
	}
	if err != nil {
		sess.sendError(err.Error())
		return
	}
	sess.sendState()
}

// sendState pushes the review summary followed by per-hunk statuses.
func (sess *wsSession) sendState() {
	if _, ok := sess.s.svc.Comparison(); !ok {
		sess.sendError("no review loaded")
		return
	}
	sess.send(wsMsgUpdate, sess.s.snapshot())
	sess.send(wsMsgHunks, sess.s.hunks())
}

func (sess *wsSession) handleFinish() {
	if _, ok := sess.s.svc.Comparison(); !ok {
		sess.sendError("no review loaded")
		return
	}
	resp := wsSummaryResponse{
		stateResponse: sess.s.snapshot(),
		Files:         make(map[string]fileSummary),
	}
	for path, fs := range sess.s.svc.FileStatus() {
		resp.Files[path] = fileSummary{
			Approved: fs.Approved,
			Trusted:  fs.Trusted,
			Rejected: fs.Rejected,
			Pending:  fs.Pending + fs.SavedForLater,
			Done:     fs.Pending == 0 && fs.SavedForLater == 0,
		}
	}
	if ds := sess.s.diffSet(); ds != nil {
		resp.Patch = sess.s.acceptedPatch(ds)
	}
	sess.send(wsMsgSummary, resp)
}

func (sess *wsSession) send(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		sess.s.log.Error("ws marshal", "error", err)
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := sess.conn.WriteJSON(msg); err != nil {
		sess.s.log.Warn("ws write", "error", err)
	}
}

func (sess *wsSession) sendError(errMsg string) {
	sess.send(wsMsgError, map[string]string{"message": errMsg})
}
