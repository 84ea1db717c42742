// Package telegram talks to the Bot API over plain HTTP: photo messages
// to the news channel, caption edits, and text messages to the audit
// channel.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dolomitibot/dolomitibot/internal/logger"
)

const defaultAPIBase = "https://api.telegram.org"

// Message is the rendered outbound content for one article.
type Message struct {
	Title       string
	Link        string
	Tags        []string
	Description string
	ImagePath   string // local file; empty means use the fallback asset
}

// SendError reports a failed sendPhoto call. The reconciler treats it as
// retryable and leaves the store untouched.
type SendError struct {
	Status int
	Body   string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("telegram send failed: status %d: %s", e.Status, e.Body)
}

type Client struct {
	token       string
	channel     string
	logsChannel string
	fallbackImg string
	apiBase     string
	client      *http.Client
}

func NewClient(token, channel, logsChannel, fallbackImg string) *Client {
	return &Client{
		token:       token,
		channel:     channel,
		logsChannel: logsChannel,
		fallbackImg: fallbackImg,
		apiBase:     defaultAPIBase,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Escape replaces the characters Telegram's HTML parse mode chokes on.
// Deliberately not a full HTML escaper.
func Escape(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// Caption renders the channel message body in Telegram HTML.
func Caption(msg Message) string {
	var b strings.Builder

	if len(msg.Tags) > 0 {
		for _, tag := range msg.Tags {
			b.WriteString("#" + tag + " ")
		}
		b.WriteString("— ")
	}

	b.WriteString("<strong>" + Escape(msg.Title) + "</strong>")

	if msg.Description != "" {
		b.WriteString("\n\n<i>" + Escape(msg.Description) + "</i>")
	}

	b.WriteString(fmt.Sprintf("\n\n📰 <a href=\"%s\">Leggi articolo</a>", msg.Link))

	return b.String()
}

// SendPhoto posts a new photo message with the rendered caption and
// returns the message id. A non-200 response is a *SendError.
func (c *Client) SendPhoto(ctx context.Context, msg Message) (int64, error) {
	imagePath := msg.ImagePath
	if imagePath == "" {
		imagePath = c.fallbackImg
	}

	photo, err := os.Open(imagePath)
	if err != nil {
		return 0, fmt.Errorf("opening image: %w", err)
	}
	defer photo.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"chat_id":    c.channel,
		"caption":    Caption(msg),
		"parse_mode": "HTML",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return 0, fmt.Errorf("building multipart form: %w", err)
		}
	}

	part, err := writer.CreateFormFile("photo", filepath.Base(imagePath))
	if err != nil {
		return 0, fmt.Errorf("building multipart form: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return 0, fmt.Errorf("reading image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("building multipart form: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendPhoto", c.apiBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return 0, &SendError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return 0, fmt.Errorf("decoding telegram response: %w", err)
	}

	return parsed.Result.MessageID, nil
}

// EditCaption rewrites the caption of an already published message.
// "message is not modified" is a benign no-op; other API errors are
// logged and swallowed so the caller's flow continues. Only transport
// failures propagate.
func (c *Client) EditCaption(ctx context.Context, messageID int64, msg Message) error {
	payload := map[string]any{
		"chat_id":    c.channel,
		"message_id": messageID,
		"caption":    Caption(msg),
		"parse_mode": "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error make JSON: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/editMessageCaption", c.apiBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		if strings.Contains(string(respBody), "message is not modified") {
			logger.Debug("caption unchanged, nothing to edit", "message_id", messageID)
			return nil
		}
		logger.Error("error editing message", "message_id", messageID, "response", string(respBody))
	}

	return nil
}

// SendLog posts an HTML text message to the audit channel.
func (c *Client) SendLog(ctx context.Context, text string) error {
	payload := map[string]any{
		"chat_id":    c.logsChannel,
		"text":       text,
		"parse_mode": "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error make JSON: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, respBody)
	}

	return nil
}

type apiResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
	Description string `json:"description"`
}
