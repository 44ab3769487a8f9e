package telegram

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal Telegram Bot API client.
type Client struct {
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a Telegram client for the given bot API base URL
// (e.g. "https://api.telegram.org/bot<token>").
func NewClient(apiBase string, requestTimeout time.Duration) *Client {
	return &Client{
		apiBase: apiBase,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Response is the generic Telegram API response wrapper.
type Response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
}

// SendMessage sends a plain text message to the given chat. Text beyond the
// Bot API limit is truncated.
func (c *Client) SendMessage(chatID int64, text string) error {
	limited := truncate(text, 3900)
	payload := fmt.Sprintf(`{"chat_id":%d,"text":%s}`, chatID, jsonString(limited))
	return c.post("/sendMessage", payload)
}

// SetMyCommands registers the bot's command menu.
func (c *Client) SetMyCommands(commands []BotCommand) error {
	encoded, err := json.Marshal(commands)
	if err != nil {
		return fmt.Errorf("failed to marshal bot commands: %w", err)
	}
	payload := fmt.Sprintf(`{"commands":%s}`, encoded)
	return c.post("/setMyCommands", payload)
}

// SetWebhook points the bot's webhook at the given URL. The shared secret is
// expected to already be embedded in the URL's query string.
func (c *Client) SetWebhook(url string) error {
	payload := fmt.Sprintf(`{"url":%s}`, jsonString(url))
	return c.post("/setWebhook", payload)
}

func (c *Client) post(method, payload string) error {
	resp, err := c.httpClient.Post(
		c.apiBase+method,
		"application/json",
		strings.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("telegram %s request failed: %w", strings.TrimPrefix(method, "/"), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", strings.TrimPrefix(method, "/"), err)
	}
	var tgResp Response
	if err := json.Unmarshal(body, &tgResp); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", strings.TrimPrefix(method, "/"), err)
	}
	if !tgResp.OK {
		return fmt.Errorf("telegram %s rejected: %s", strings.TrimPrefix(method, "/"), tgResp.Description)
	}
	return nil
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
