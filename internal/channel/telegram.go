package channel

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// telegramAPIBase is a var, not a const, so tests can point it at a local
// httptest server instead of the real Bot API.
var telegramAPIBase = "https://api.telegram.org"

// TelegramChannel sends notifications through the Telegram Bot HTTP API
// and verifies inbound webhook callbacks via the bot's secret token
// header. The client uses a dedicated Transport with bounded idle
// connections, a capped TLS version floor, and a redirect cap, plus a
// 10s per-request timeout.
type TelegramChannel struct {
	token        string
	recipient    string
	webhookToken string
	client       *http.Client
}

func NewTelegramChannel(token, recipient, webhookToken string) *TelegramChannel {
	return &TelegramChannel{
		token:        token,
		recipient:    recipient,
		webhookToken: webhookToken,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
	}
}

func (c *TelegramChannel) Name() string { return "telegram" }

type sendMessageRequest struct {
	ChatID      string                `json:"chat_id"`
	Text        string                `json:"text"`
	ReplyMarkup *inlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
}

type inlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
}

func (c *TelegramChannel) Send(ctx context.Context, recipient, title, body string, hint ActionHint) error {
	if recipient == "" {
		recipient = c.recipient
	}

	payload := sendMessageRequest{
		ChatID: recipient,
		Text:   fmt.Sprintf("%s\n\n%s", title, body),
		ReplyMarkup: &inlineKeyboardMarkup{
			InlineKeyboard: [][]inlineKeyboardButton{{{
				Text:         "Mark done",
				CallbackData: fmt.Sprintf("%s:%s", hint.EventID, hint.ChoreID),
			}}},
		},
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("telegram transient error %d: %s", resp.StatusCode, respBody)
	default:
		var parsed apiResponse
		_ = json.Unmarshal(respBody, &parsed)
		return &PermanentError{Err: fmt.Errorf("telegram rejected send (%d): %s", resp.StatusCode, parsed.Description)}
	}
}

// VerifyCallback checks the bot's shared secret-token header and decodes
// the callback_data payload from Telegram's callback_query update.
func (c *TelegramChannel) VerifyCallback(r *http.Request) (CallbackPayload, error) {
	if c.webhookToken != "" {
		got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
		if got != c.webhookToken {
			return CallbackPayload{}, fmt.Errorf("telegram webhook: secret token mismatch")
		}
	}

	var update struct {
		CallbackQuery *struct {
			ID   string `json:"id"`
			Data string `json:"data"`
		} `json:"callback_query"`
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return CallbackPayload{}, fmt.Errorf("read telegram callback body: %w", err)
	}
	if err := json.Unmarshal(body, &update); err != nil {
		return CallbackPayload{}, fmt.Errorf("decode telegram callback: %w", err)
	}
	if update.CallbackQuery == nil {
		return CallbackPayload{}, fmt.Errorf("telegram callback: not a callback_query update")
	}

	eventID, choreID, ok := splitCallbackData(update.CallbackQuery.Data)
	if !ok {
		return CallbackPayload{}, fmt.Errorf("telegram callback: malformed callback_data %q", update.CallbackQuery.Data)
	}

	return CallbackPayload{EventID: eventID, ChoreID: choreID}, nil
}

func splitCallbackData(data string) (eventID, choreID string, ok bool) {
	for i := len(data) - 1; i >= 0; i-- {
		if data[i] == ':' {
			return data[:i], data[i+1:], true
		}
	}
	return "", "", false
}
