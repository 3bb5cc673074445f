package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/craftrelay/backend/internal/adapter"
	"github.com/craftrelay/backend/internal/config"
	"github.com/craftrelay/backend/internal/session"
	"github.com/gorilla/websocket"
)

// Controller is the surface the server drives on behalf of viewers. The
// session Machine satisfies it.
type Controller interface {
	Connect(cfg adapter.Config) error
	Disconnect()
	SendChat(text string) error
	AdminAction(intent session.AdminIntent) error
	RefreshPlayers()
	RefreshVitals()
	Status() session.Status
	CurrentState() session.State
}

type Server struct {
	config          *config.Config
	store           *session.Store
	hub             *Hub
	ctrl            Controller
	frontendDir     string
	dev             bool
	embeddedHandler http.Handler
	allowedOrigins  map[string]bool
	allowedHosts    map[string]bool
	authToken       string
	health          *healthProbe
}

func NewServer(cfg *config.Config, store *session.Store, hub *Hub, ctrl Controller, frontendDir string, dev bool, embeddedHandler http.Handler) *Server {
	s := &Server{
		config:          cfg,
		store:           store,
		hub:             hub,
		ctrl:            ctrl,
		frontendDir:     frontendDir,
		dev:             dev,
		embeddedHandler: embeddedHandler,
		allowedOrigins:  make(map[string]bool),
		allowedHosts:    make(map[string]bool),
		authToken:       cfg.Server.AuthToken,
		health:          newHealthProbe(),
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/players", s.handlePlayers)
	mux.HandleFunc("/api/messages", s.handleMessages)
	mux.HandleFunc("/api/connect", s.handleConnect)
	mux.HandleFunc("/api/disconnect", s.handleDisconnect)
	mux.HandleFunc("/api/send-message", s.handleSendMessage)
	mux.HandleFunc("/api/health", s.handleHealth)

	if s.dev {
		log.Printf("Serving frontend from filesystem: %s", s.frontendDir)
		mux.Handle("/", securityHeaders(http.FileServer(http.Dir(s.frontendDir))))
	} else if s.embeddedHandler != nil {
		log.Println("Serving embedded frontend")
		mux.Handle("/", securityHeaders(s.embeddedHandler))
	}
}

// securityHeaders hardens the frontend responses. API and websocket routes
// are not wrapped; the frontend is the only surface a browser renders.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	log.Printf("WebSocket client connected: %s", r.RemoteAddr)
	c := s.hub.Attach(conn)

	go func() {
		defer func() {
			s.hub.Detach(c)
			log.Printf("WebSocket client disconnected: %s", r.RemoteAddr)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.dispatch(c, data)
		}
	}()
}

// dispatch routes one inbound viewer intent. Failures are reported to the
// requesting viewer only; they never affect other subscribers.
func (s *Server) dispatch(c *client, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.enqueue(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: "malformed message"}})
		return
	}

	switch msg.Type {
	case MsgConnect:
		var p ConnectPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				c.enqueue(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: "malformed connect payload"}})
				return
			}
		}
		if err := s.ctrl.Connect(s.configFromPayload(p)); err != nil {
			c.enqueue(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: "Failed to connect bot: " + err.Error()}})
		}

	case MsgDisconnect:
		s.ctrl.Disconnect()

	case MsgSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.enqueue(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: "malformed message payload"}})
			return
		}
		if err := s.ctrl.SendChat(p.Message); err != nil {
			c.enqueue(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: "Bot is not connected"}})
		}

	case MsgAdminAction:
		var intent session.AdminIntent
		if err := json.Unmarshal(msg.Payload, &intent); err != nil {
			c.enqueue(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: "malformed admin payload"}})
			return
		}
		if err := s.ctrl.AdminAction(intent); err != nil {
			c.enqueue(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
		}

	case MsgRequestPlayers:
		s.ctrl.RefreshPlayers()

	case MsgRequestStats:
		s.ctrl.RefreshVitals()

	default:
		c.enqueue(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: "unknown message type"}})
	}
}

// configFromPayload builds an adapter config from a connect request. The
// password never travels over the viewer channel; it comes from the server
// config and is passed through unmodified.
func (s *Server) configFromPayload(p ConnectPayload) adapter.Config {
	return adapter.Config{
		Host:     p.ServerIP,
		Port:     p.ServerPort,
		Username: p.Username,
		Password: s.config.Bot.Password,
		Auth:     adapter.AuthMode(p.Auth),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.ctrl.Status())
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.store.Players())
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.store.ChatHistory())
}

type apiResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeResult(w http.ResponseWriter, status int, res apiResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(res)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// An empty body means "connect to the default server"; anything else
	// must decode.
	var p ConnectPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		writeResult(w, http.StatusBadRequest, apiResult{Success: false, Message: "malformed request"})
		return
	}

	if err := s.ctrl.Connect(s.configFromPayload(p)); err != nil {
		writeResult(w, http.StatusInternalServerError, apiResult{Success: false, Message: err.Error()})
		return
	}
	writeResult(w, http.StatusOK, apiResult{Success: true, Message: "Connecting bot..."})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.ctrl.Disconnect()
	writeResult(w, http.StatusOK, apiResult{Success: true})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var p SendMessagePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeResult(w, http.StatusBadRequest, apiResult{Success: false, Message: "malformed request"})
		return
	}
	if err := s.ctrl.SendChat(p.Message); err != nil {
		writeResult(w, http.StatusBadRequest, apiResult{Success: false, Message: "Bot is not connected"})
		return
	}
	writeResult(w, http.StatusOK, apiResult{Success: true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.health.snapshot(s.ctrl.CurrentState(), s.hub.ClientCount()))
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.authToken {
		return true
	}

	if r.Header.Get("X-Craft-Relay-Token") == s.authToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}

	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
