package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blogpilot/internal/ports"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram posts announcements to a channel and failure diagnostics to the
// same chat via the bot API.
type Telegram struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var (
	_ ports.SocialPoster = (*Telegram)(nil)
	_ ports.Notifier     = (*Telegram)(nil)
)

// NewTelegram registers bot token and chat identifier.
func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  telegramAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Post sends one announcement message and returns the Telegram message id.
func (t *Telegram) Post(ctx context.Context, channel, message string) (string, error) {
	if channel != "telegram" {
		return "", fmt.Errorf("unsupported channel %s", channel)
	}
	return t.send(ctx, message)
}

// NotifyFailure reports a failed workflow run to the operator chat.
func (t *Telegram) NotifyFailure(ctx context.Context, ruleID int64, summary string) error {
	_, err := t.send(ctx, fmt.Sprintf("⚠ rule %d failed: %s", ruleID, summary))
	return err
}

func (t *Telegram) send(ctx context.Context, text string) (string, error) {
	if t.botToken == "" || t.chatID == "" || t.client == nil {
		return "", fmt.Errorf("telegram poster misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("telegram error: %s", resp.Status)
	}

	var parsed struct {
		Result struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return strconv.FormatInt(parsed.Result.MessageID, 10), nil
}
