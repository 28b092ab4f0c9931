// Package notify delivers notification jobs to users over the Telegram Bot
// API and runs the reminder scanner that generates reminder jobs for
// long-running timers.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTelegramAPIURL is the production Telegram Bot API endpoint.
const DefaultTelegramAPIURL = "https://api.telegram.org"

// Sender delivers rendered notification text to a chat.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// TelegramSender delivers messages via the Telegram Bot API sendMessage
// method.
type TelegramSender struct {
	apiURL string
	token  string
	client *http.Client
}

var _ Sender = (*TelegramSender)(nil)

// NewTelegramSender creates a sender for the given bot token. apiURL is
// overridable for tests and self-hosted Bot API servers; empty selects the
// production endpoint.
func NewTelegramSender(apiURL, token string) *TelegramSender {
	if apiURL == "" {
		apiURL = DefaultTelegramAPIURL
	}
	return &TelegramSender{
		apiURL: apiURL,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts the text to the chat. Non-2xx responses and ok=false API
// results both return an error so the caller can retry the job.
func (s *TelegramSender) Send(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Telegram API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("failed to read Telegram response: %w", err)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to decode Telegram response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !result.OK {
		return fmt.Errorf("telegram sendMessage failed (status %d): %s", resp.StatusCode, result.Description)
	}

	return nil
}
