// Package discord posts messages to Discord incoming webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const footerText = "MatchaRestock - Instant notifications"

// Embed Discord embed 对象
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// Message webhook 请求体
type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Product 补货商品
type Product struct {
	Name string
	URL  string
}

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// Send posts msg to webhookURL. Any non-2xx response is an error.
func (c *Client) Send(ctx context.Context, webhookURL string, msg *Message) error {
	if webhookURL == "" {
		return fmt.Errorf("discord webhook url is empty")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal discord message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// RestockMessage builds the per-brand restock embed.
func RestockMessage(brand, emoji string, color int, products []Product, at time.Time) *Message {
	var desc strings.Builder
	desc.WriteString("**Products back in stock:**\n")
	for i, p := range products {
		if i > 0 {
			desc.WriteString("\n")
		}
		if p.URL != "" {
			fmt.Fprintf(&desc, "• [%s](%s)", p.Name, p.URL)
		} else {
			fmt.Fprintf(&desc, "• %s", p.Name)
		}
	}

	return &Message{
		Embeds: []Embed{{
			Title:       fmt.Sprintf("%s %s Restock Alert!", emoji, brand),
			Description: desc.String(),
			Color:       color,
			Timestamp:   at.UTC().Format(time.RFC3339),
			Footer:      &EmbedFooter{Text: footerText},
		}},
	}
}
