package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

const (
	telegramAPIURL = "https://api.telegram.org"
	// Bot API hard limit per message.
	maxMessageLen = 4096
)

// tokenPattern matches the Telegram bot token format: <digits>:<alphanum+dash>.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// Telegram sends messages through the Bot API. The recipient passed to
// Deliver is the chat ID.
type Telegram struct {
	Token   string
	BaseURL string
	Client  *http.Client
}

func NewTelegram(token string) (*Telegram, error) {
	if !tokenPattern.MatchString(token) {
		return nil, fmt.Errorf("telegram: token format invalid (expected <bot_id>:<hash>)")
	}
	return &Telegram{
		Token:   token,
		BaseURL: telegramAPIURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type sendMessageReq struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

// Deliver posts one sendMessage call. Overlong text is truncated to the API
// limit. A single 429 is retried after the server-advised delay; anything
// else fails to the caller, which logs and moves on.
func (t *Telegram) Deliver(ctx context.Context, recipient, text string) error {
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen-12] + "\n… truncated"
	}
	resp, err := t.send(ctx, recipient, text)
	if err != nil {
		return err
	}
	if resp.OK {
		return nil
	}
	if resp.ErrorCode == http.StatusTooManyRequests && resp.Parameters != nil && resp.Parameters.RetryAfter > 0 {
		timer := time.NewTimer(time.Duration(resp.Parameters.RetryAfter) * time.Second)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		resp, err = t.send(ctx, recipient, text)
		if err != nil {
			return err
		}
		if resp.OK {
			return nil
		}
	}
	return fmt.Errorf("telegram: sendMessage failed: %d %s", resp.ErrorCode, resp.Description)
}

func (t *Telegram) send(ctx context.Context, chatID, text string) (*apiResponse, error) {
	body, err := json.Marshal(sendMessageReq{ChatID: chatID, Text: text})
	if err != nil {
		return nil, fmt.Errorf("telegram: marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Do not wrap the transport error itself: its message can carry the
	// token-bearing URL.
	httpResp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: sendMessage request failed")
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("telegram: read response: %w", err)
	}
	var resp apiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("telegram: decode response: %w", err)
	}
	return &resp, nil
}
