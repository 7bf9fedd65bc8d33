package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/point10890-crypto/closing-bet-sub003/pkg/config"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/httputil"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

const (
	// KIS caps live subscriptions per websocket session
	maxSubscriptionsPerSession = 41

	handshakeTimeout = 10 * time.Second
)

// Subscriber keeps the tick stream flowing into the last-price cache.
// ⭐ SSOT: 실시간 체결가 구독은 이 구조체에서만
type Subscriber struct {
	cfg        config.KISConfig
	httpClient *httputil.Client
	cache      *LastPriceCache
	logger     *logger.Logger
	loc        *time.Location

	approvalKey string

	conn      *websocket.Conn
	connMu    sync.Mutex
	connected bool

	subscriptions map[string]bool
	subMu         sync.RWMutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewSubscriber creates a tick subscriber writing into cache
func NewSubscriber(cfg config.KISConfig, httpClient *httputil.Client, cache *LastPriceCache, loc *time.Location, log *logger.Logger) *Subscriber {
	if loc == nil {
		loc = time.UTC
	}
	return &Subscriber{
		cfg:           cfg,
		httpClient:    httpClient,
		cache:         cache,
		logger:        log,
		loc:           loc,
		subscriptions: make(map[string]bool),
		stopCh:        make(chan struct{}),
	}
}

// Connect fetches an approval key, dials the websocket, and starts
// the read loop.
func (s *Subscriber) Connect(ctx context.Context) error {
	if err := s.fetchApprovalKey(ctx); err != nil {
		return fmt.Errorf("failed to get approval key: %w", err)
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.cfg.WSURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	s.conn = conn
	s.connected = true

	s.wg.Add(1)
	go s.readLoop()

	s.logger.WithField("url", s.cfg.WSURL).Info("Tick feed connected")
	return nil
}

// Disconnect closes the connection and waits for the read loop
func (s *Subscriber) Disconnect() {
	close(s.stopCh)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.connected = false
	}
	s.connMu.Unlock()

	s.wg.Wait()
	s.logger.Info("Tick feed disconnected")
}

// IsConnected returns connection status
func (s *Subscriber) IsConnected() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.connected
}

// Subscribe registers symbols for live tick delivery
func (s *Subscriber) Subscribe(symbols ...string) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, symbol := range symbols {
		if s.subscriptions[symbol] {
			continue
		}

		if len(s.subscriptions) >= maxSubscriptionsPerSession {
			return fmt.Errorf("max subscriptions reached (%d)", maxSubscriptionsPerSession)
		}

		if err := s.sendSubscribe(symbol, "1"); err != nil {
			return fmt.Errorf("subscribe %s: %w", symbol, err)
		}

		s.subscriptions[symbol] = true
		s.logger.WithField("symbol", symbol).Debug("Subscribed to tick data")
	}

	return nil
}

// Unsubscribe removes symbol subscriptions
func (s *Subscriber) Unsubscribe(symbols ...string) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, symbol := range symbols {
		if !s.subscriptions[symbol] {
			continue
		}

		if err := s.sendSubscribe(symbol, "2"); err != nil {
			return fmt.Errorf("unsubscribe %s: %w", symbol, err)
		}

		delete(s.subscriptions, symbol)
	}

	return nil
}

// SubscriptionCount returns the number of live subscriptions
func (s *Subscriber) SubscriptionCount() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subscriptions)
}

// fetchApprovalKey obtains the websocket session key
func (s *Subscriber) fetchApprovalKey(ctx context.Context) error {
	resp, err := s.httpClient.PostJSON(ctx, s.cfg.BaseURL+"/oauth2/Approval", map[string]string{
		"grant_type": "client_credentials",
		"appkey":     s.cfg.AppKey,
		"secretkey":  s.cfg.AppSecret,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var result struct {
		ApprovalKey string `json:"approval_key"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return err
	}
	if result.ApprovalKey == "" {
		return fmt.Errorf("empty approval key in response")
	}

	s.approvalKey = result.ApprovalKey
	return nil
}

// wsMessage is the subscription envelope the stream expects
type wsMessage struct {
	Header wsHeader `json:"header"`
	Body   wsBody   `json:"body"`
}

type wsHeader struct {
	ApprovalKey string `json:"approval_key"`
	Custtype    string `json:"custtype"`
	TrType      string `json:"tr_type"`
	ContentType string `json:"content-type"`
}

type wsBody struct {
	Input wsInput `json:"input"`
}

type wsInput struct {
	TrID  string `json:"tr_id"`
	TrKey string `json:"tr_key"`
}

// sendSubscribe sends one subscribe (tr_type 1) or unsubscribe (2)
func (s *Subscriber) sendSubscribe(symbol, trType string) error {
	msg := wsMessage{
		Header: wsHeader{
			ApprovalKey: s.approvalKey,
			Custtype:    "P",
			TrType:      trType,
			ContentType: "utf-8",
		},
		Body: wsBody{
			Input: wsInput{
				TrID:  trIDTickPrice,
				TrKey: symbol,
			},
		},
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	return s.conn.WriteJSON(msg)
}

// readLoop consumes stream messages until disconnect
func (s *Subscriber) readLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			select {
			case <-s.stopCh:
				return
			default:
			}
			s.logger.WithError(err).Error("Tick feed read failed")
			return
		}

		s.handleMessage(message)
	}
}

// handleMessage routes one raw stream message
func (s *Subscriber) handleMessage(raw []byte) {
	// 서버 핑은 그대로 되돌려줌
	if strings.Contains(string(raw), "PINGPONG") {
		s.connMu.Lock()
		if s.conn != nil {
			s.conn.WriteMessage(websocket.TextMessage, raw)
		}
		s.connMu.Unlock()
		return
	}

	if !IsTickFrame(raw) {
		// Subscription acks and error notices arrive as JSON
		s.logger.WithField("message", string(raw)).Debug("Tick feed control message")
		return
	}

	tick, err := ParseTickFrame(raw, time.Now(), s.loc)
	if err != nil {
		s.logger.WithError(err).Debug("Dropped malformed tick frame")
		return
	}

	s.cache.Update(context.Background(), tick)
}
