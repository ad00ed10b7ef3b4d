package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamasky/tx-observer/internal/detect"
)

// Notification 封装单次告警的推送上下文。
type Notification struct {
	Event  detect.AlertEvent
	Replay bool
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// RelayNotifier posts alerts to the /api/send-telegram relay endpoint. The
// relay performs the actual Telegram delivery; from here the send is
// fire-and-forget and a failure never blocks alert-log state.
type RelayNotifier struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
	logger  zerolog.Logger
}

// NewRelayNotifier 构造告警中继客户端。
func NewRelayNotifier(baseURL, token, chatID string, timeout time.Duration, logger zerolog.Logger) *RelayNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RelayNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "alert_relay").Logger(),
	}
}

type relayRequest struct {
	Token   string `json:"token"`
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

// Notify 调用中继的 send-telegram 接口推送文本。
func (n *RelayNotifier) Notify(ctx context.Context, note Notification) error {
	payload := relayRequest{
		Token:   n.token,
		ChatID:  n.chatID,
		Message: RenderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal relay payload: %w", err)
	}

	url := n.baseURL + "/api/send-telegram"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("relay 响应码异常: %d", resp.StatusCode)
	}

	n.logger.Info().
		Int64("time", note.Event.Time).
		Str("type", string(note.Event.Type)).
		Int64("points", note.Event.Points).
		Msg("告警已发送 (relay)")
	return nil
}

// RenderMessage formats the zh-TW alert text pushed to Telegram.
func RenderMessage(note Notification) string {
	prefix := "[警示]"
	if note.Replay {
		prefix = "[回放警示]"
	}
	typeStr := "急速上漲"
	if note.Event.Type == detect.Fall {
		typeStr = "急速下跌"
	}
	timeStr := time.UnixMilli(note.Event.Time).Format("15:04:05")
	return fmt.Sprintf("%s %s %s %d 點 (價格: %s)", prefix, timeStr, typeStr, note.Event.Points, note.Event.ToPrice.String())
}

var _ Notifier = (*RelayNotifier)(nil)
