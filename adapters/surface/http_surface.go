package surface

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"

	"github.com/rockfridrich/villa/ports"
)

// maxMessageSize bounds the callback body; outcome messages are small
const maxMessageSize = 64 << 10

// HTTPSurface receives the authentication outcome on a loopback HTTP
// callback. The remote authentication page posts its result message to
// this surface's origin, carrying its own origin in the Origin header.
type HTTPSurface struct {
	server   *http.Server
	listener net.Listener
	origin   string
	target   string
	messages chan ports.Envelope
	logger   watermill.LoggerAdapter

	closeOnce sync.Once
	closeErr  error
}

// HTTPOpener implements the SurfaceOpener interface over loopback HTTP
type HTTPOpener struct {
	// Addr to listen on; defaults to an ephemeral loopback port
	Addr   string
	Logger watermill.LoggerAdapter
}

// Open starts a callback listener and returns the surface. The listener
// accepts messages before the target URL is handed out, so an early
// response cannot be lost.
func (o *HTTPOpener) Open(ctx context.Context) (ports.Surface, error) {
	addr := o.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	logger := o.Logger
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	s := &HTTPSurface{
		listener: listener,
		origin:   "http://" + listener.Addr().String(),
		messages: make(chan ports.Envelope, 8),
		logger:   logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.POST("/auth/callback", s.handleCallback)
	router.OPTIONS("/auth/callback", s.handlePreflight)

	s.server = &http.Server{Handler: router}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("callback server stopped", err, nil)
		}
	}()

	return s, nil
}

// Origin is the loopback origin the remote service posts back to
func (s *HTTPSurface) Origin() string {
	return s.origin
}

// Navigate records the remote URL and announces it. Presenting the URL
// to the user (opening a browser, rendering a QR code) is the host
// application's concern.
func (s *HTTPSurface) Navigate(target string) error {
	s.target = target
	s.logger.Info("authentication service ready", watermill.LogFields{
		"target": target,
	})
	return nil
}

// Target returns the remote URL set by Navigate
func (s *HTTPSurface) Target() string {
	return s.target
}

// Messages delivers raw inbound envelopes
func (s *HTTPSurface) Messages() <-chan ports.Envelope {
	return s.messages
}

// Close shuts the callback server down. Idempotent.
func (s *HTTPSurface) Close() error {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.closeErr = s.server.Shutdown(ctx)
		close(s.messages)
	})
	return s.closeErr
}

func (s *HTTPSurface) handleCallback(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMessageSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	env := ports.Envelope{
		Origin: c.GetHeader("Origin"),
		Data:   body,
	}

	// Never block the remote page: if the handshake already resolved
	// the buffered channel may be full, and the message is inert anyway.
	select {
	case s.messages <- env:
	default:
		s.logger.Debug("dropping message, handshake already resolved", nil)
	}

	s.allowOrigin(c)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (s *HTTPSurface) handlePreflight(c *gin.Context) {
	s.allowOrigin(c)
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Status(http.StatusNoContent)
}

// allowOrigin echoes the caller's origin; the bridge, not the transport,
// decides whether the origin is trusted.
func (s *HTTPSurface) allowOrigin(c *gin.Context) {
	if origin := c.GetHeader("Origin"); origin != "" {
		c.Header("Access-Control-Allow-Origin", origin)
	}
}
