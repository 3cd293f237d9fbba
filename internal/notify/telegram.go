package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/logsift-systems/logsift/internal/metrics"
)

// MaxMessageRunes is the Telegram Bot API limit for a single message.
// Longer messages are split into sequential parts.
const MaxMessageRunes = 4096

// Notifier delivers a message to a single recipient.
type Notifier interface {
	Notify(ctx context.Context, message, recipientID string) error
	Type() string
}

// TelegramNotifier sends messages through the Telegram Bot API.
type TelegramNotifier struct {
	botURL string
	client *http.Client
}

// NewTelegramNotifier creates a notifier posting to the given bot API
// base URL (e.g. "https://api.telegram.org/bot<token>").
func NewTelegramNotifier(botURL string, timeout time.Duration) *TelegramNotifier {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &TelegramNotifier{
		botURL: botURL,
		client: &http.Client{Timeout: timeout},
	}
}

func (t *TelegramNotifier) Type() string {
	return "telegram"
}

// Notify splits the message into parts within the API limit and posts
// them in order. A failed part fails the delivery; parts already sent
// stay sent.
func (t *TelegramNotifier) Notify(ctx context.Context, message, recipientID string) error {
	for i, part := range SplitMessage(message, MaxMessageRunes) {
		if err := t.sendPart(ctx, part, recipientID); err != nil {
			metrics.NotificationErrors.Inc()
			return fmt.Errorf("send part %d: %w", i+1, err)
		}
		metrics.NotificationsSentTotal.Inc()
	}
	return nil
}

func (t *TelegramNotifier) sendPart(ctx context.Context, part, recipientID string) error {
	payload := map[string]interface{}{
		"chat_id": recipientID,
		"text":    part,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.botURL+"/sendMessage", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SplitMessage chunks a message into parts of at most limit runes,
// preserving order and content. The empty message yields no parts.
func SplitMessage(message string, limit int) []string {
	if message == "" {
		return nil
	}
	runes := []rune(message)
	parts := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
