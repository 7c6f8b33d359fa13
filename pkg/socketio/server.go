package socketio

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	socket "github.com/zishang520/socket.io/socket"
)

// Identity is the authenticated user behind a socket connection.
type Identity struct {
	UserID uint
	Name   string
	Admin  bool
}

// Authenticator resolves a handshake token to an identity.
type Authenticator func(token string) (*Identity, error)

// Server wraps the Socket.IO server used for realtime course progress and
// forum reaction updates.
type Server struct {
	io           *socket.Server
	logger       *slog.Logger
	authenticate Authenticator

	connMu      sync.RWMutex
	connections map[socket.SocketId]*Identity
}

// NewServer creates a Socket.IO server mounted at /socket.io.
func NewServer(logger *slog.Logger, authenticate Authenticator) (*Server, error) {
	if authenticate == nil {
		return nil, errors.New("socketio: authenticator is required")
	}

	opts := socket.DefaultServerOptions()
	opts.SetPingTimeout(60 * time.Second)
	opts.SetPingInterval(25 * time.Second)
	opts.SetServeClient(false)
	opts.SetPath("/socket.io")

	s := &Server{
		io:           socket.NewServer(nil, opts),
		logger:       logger,
		authenticate: authenticate,
		connections:  make(map[socket.SocketId]*Identity),
	}

	s.io.Use(s.connectionMiddleware)
	s.io.On("connection", func(args ...any) {
		sock, ok := args[0].(*socket.Socket)
		if !ok {
			s.logger.Error("unexpected connection payload", slog.Any("payload", args))
			return
		}
		s.handleConnection(sock)
	})

	return s, nil
}

// GetHandler returns the HTTP handler for Socket.IO.
func (s *Server) GetHandler() http.Handler {
	return s.io.ServeHandler(nil)
}

// Connections returns the number of authenticated sockets.
func (s *Server) Connections() int {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return len(s.connections)
}

// Close shuts down the Socket.IO server.
func (s *Server) Close() error {
	done := make(chan struct{})
	s.io.Close(func() {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		return errors.New("socketio: close timed out")
	}
	return nil
}

// NotifyUser emits event to every socket of the user.
func (s *Server) NotifyUser(userID uint, event string, payload any) {
	if err := s.io.To(UserRoom(userID)).Emit(event, payload); err != nil {
		s.logger.Warn("failed to emit user event",
			slog.String("event", event),
			slog.Any("userId", userID),
			slog.String("error", err.Error()),
		)
	}
}

// BroadcastForumPost emits event to everyone watching the post.
func (s *Server) BroadcastForumPost(postID uint, event string, payload any) {
	if err := s.io.To(ForumPostRoom(postID)).Emit(event, payload); err != nil {
		s.logger.Warn("failed to emit forum post event",
			slog.String("event", event),
			slog.Any("postId", postID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Server) connectionMiddleware(sock *socket.Socket, next func(*socket.ExtendedError)) {
	token := extractToken(sock)
	if token == "" {
		s.logger.Warn("socket connection rejected: missing token")
		next(socket.NewExtendedError("missing authentication token", map[string]any{"code": "MISSING_TOKEN"}))
		return
	}

	identity, err := s.authenticate(token)
	if err != nil {
		s.logger.Warn("socket connection rejected: invalid token", slog.String("error", err.Error()))
		next(socket.NewExtendedError("invalid token", map[string]any{"code": "INVALID_TOKEN"}))
		return
	}

	sock.SetData(identity)
	next(nil)
}

func (s *Server) handleConnection(sock *socket.Socket) {
	identity := identityOf(sock)
	if identity == nil {
		s.logger.Error("connection established without user context")
		sock.Disconnect(true)
		return
	}

	s.connMu.Lock()
	s.connections[sock.Id()] = identity
	s.connMu.Unlock()

	s.logger.Info("WebSocket connected",
		slog.Any("userId", identity.UserID),
		slog.String("connId", string(sock.Id())),
	)

	sock.Join(UserRoom(identity.UserID))

	if err := sock.Emit("connectionConfirmed", map[string]any{
		"userId":    identity.UserID,
		"userName":  identity.Name,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		s.logger.Warn("failed to emit connection confirmation", slog.String("error", err.Error()))
	}

	sock.On("watchForumPost", func(args ...any) {
		postID, ok := idArg(args)
		if !ok {
			emitError(sock, "INVALID_INPUT", "post id is required")
			return
		}
		sock.Join(ForumPostRoom(postID))
	})

	sock.On("unwatchForumPost", func(args ...any) {
		if postID, ok := idArg(args); ok {
			sock.Leave(ForumPostRoom(postID))
		}
	})

	sock.On("disconnect", func(args ...any) {
		reason := "client"
		if len(args) > 0 {
			if r, ok := args[0].(string); ok {
				reason = r
			}
		}

		s.connMu.Lock()
		delete(s.connections, sock.Id())
		s.connMu.Unlock()

		s.logger.Info("WebSocket disconnected",
			slog.Any("userId", identity.UserID),
			slog.String("reason", reason),
		)
	})
}

func identityOf(sock *socket.Socket) *Identity {
	if sock == nil {
		return nil
	}
	identity, _ := sock.Data().(*Identity)
	return identity
}

func emitError(sock *socket.Socket, code, message string) {
	_ = sock.Emit("error", map[string]any{
		"code":    code,
		"message": message,
	})
}

func extractToken(sock *socket.Socket) string {
	if sock == nil {
		return ""
	}

	if hs := sock.Handshake(); hs != nil {
		if hs.Query != nil {
			if token, ok := hs.Query.Get("token"); ok && token != "" {
				return token
			}
		}
		if authMap, ok := hs.Auth.(map[string]any); ok {
			if token, ok := authMap["token"].(string); ok {
				return token
			}
		}
	}

	return ""
}

// idArg reads a positive id sent either as a number or as a string.
func idArg(args []any) (uint, bool) {
	if len(args) == 0 {
		return 0, false
	}

	switch v := args[0].(type) {
	case float64:
		if v >= 1 {
			return uint(v), true
		}
	case string:
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil && parsed > 0 {
			return uint(parsed), true
		}
	}
	return 0, false
}

// UserRoom is the room every socket of a user joins on connect.
func UserRoom(userID uint) socket.Room {
	return socket.Room(fmt.Sprintf("user_%d", userID))
}

// ForumPostRoom is the room for clients watching a forum post.
func ForumPostRoom(postID uint) socket.Room {
	return socket.Room(fmt.Sprintf("forum_post_%d", postID))
}
