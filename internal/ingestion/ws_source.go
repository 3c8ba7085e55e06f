package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"event-analytics-lab/internal/domain"
)

// WSConfig configures WebSocket source behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSRecordSource streams raw records from a WebSocket feed. The feed
// protocol is a JSON subscribe request followed by one JSON object per
// record message.
type WSRecordSource struct {
	endpoint string
	config   WSConfig
	logger   zerolog.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// seriesID of the active subscription, kept for resubscribe after reconnect
	seriesID string

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSRecordSource creates a WebSocket record source and connects to the
// endpoint. A nil config uses DefaultWSConfig.
func NewWSRecordSource(ctx context.Context, endpoint string, config *WSConfig, logger zerolog.Logger) (*WSRecordSource, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	s := &WSRecordSource{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger.With().Str("component", "ws_source").Logger(),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Compile-time interface check.
var _ StreamSource = (*WSRecordSource)(nil)

// connect establishes WebSocket connection.
func (s *WSRecordSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

type wsSubscribeRequest struct {
	Action   string `json:"action"`
	SeriesID string `json:"series_id"`
}

// Subscribe subscribes to the record feed for a series and returns a
// channel of raw records. Only one subscription per source is supported.
func (s *WSRecordSource) Subscribe(ctx context.Context, seriesID string) (<-chan domain.RawRecord, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("source closed")
	}
	if s.seriesID != "" {
		return nil, fmt.Errorf("already subscribed to series %s", s.seriesID)
	}
	s.seriesID = seriesID

	if err := s.writeSubscribe(seriesID); err != nil {
		return nil, err
	}
	s.logger.Info().Str("series_id", seriesID).Msg("subscribed to record feed")

	recordsCh := make(chan domain.RawRecord, 1000)

	s.wg.Add(1)
	go s.readLoop(ctx, recordsCh)

	s.wg.Add(1)
	go s.pingLoop()

	return recordsCh, nil
}

// writeSubscribe sends the subscribe request on the current connection.
func (s *WSRecordSource) writeSubscribe(seriesID string) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("not connected")
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(wsSubscribeRequest{Action: "subscribe", SeriesID: seriesID}); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close closes the WebSocket connection and stops all loops.
func (s *WSRecordSource) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}

// readLoop reads record messages and sends them to the channel,
// reconnecting with exponential backoff on connection errors.
func (s *WSRecordSource) readLoop(ctx context.Context, recordsCh chan<- domain.RawRecord) {
	defer s.wg.Done()
	defer close(recordsCh)

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		if ctx.Err() != nil {
			return
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.waitOrDone(ctx, reconnectDelay) {
				return
			}
			reconnectDelay = s.nextDelay(reconnectDelay)
			s.reconnect(ctx)
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || ctx.Err() != nil {
				return
			}

			s.logger.Warn().Err(err).Dur("retry_in", reconnectDelay).Msg("read failed, reconnecting")
			if !s.waitOrDone(ctx, reconnectDelay) {
				return
			}
			reconnectDelay = s.nextDelay(reconnectDelay)
			s.reconnect(ctx)
			continue
		}

		// Reset delay on successful read
		reconnectDelay = s.config.ReconnectDelay

		var record domain.RawRecord
		if err := json.Unmarshal(message, &record); err != nil {
			s.logger.Warn().Err(err).Msg("skipping malformed record message")
			continue
		}

		select {
		case recordsCh <- record:
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

// reconnect re-establishes the connection and resubscribes.
func (s *WSRecordSource) reconnect(ctx context.Context) {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.connect(dialCtx); err != nil {
		s.logger.Warn().Err(err).Msg("reconnect failed")
		return
	}

	if err := s.writeSubscribe(s.seriesID); err != nil {
		s.logger.Warn().Err(err).Msg("resubscribe failed")
		return
	}
	s.logger.Info().Str("series_id", s.seriesID).Msg("resubscribed after reconnect")
}

// nextDelay doubles the delay up to the configured maximum.
func (s *WSRecordSource) nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > s.config.MaxReconnectDelay {
		d = s.config.MaxReconnectDelay
	}
	return d
}

// waitOrDone sleeps for d, returning false if shutdown was requested.
func (s *WSRecordSource) waitOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	case <-s.done:
		return false
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (s *WSRecordSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			s.connMu.Unlock()
		}
	}
}
