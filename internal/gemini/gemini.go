// Package gemini asks a Gemini model for a one-sentence description of a
// title edit. The whole feature is optional: callers drop the explanation
// when anything here fails.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Client struct {
	client *genai.Client
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{client: client}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// ExplainTitleChange returns one plain sentence summarizing how the title
// changed between the two versions.
func (c *Client) ExplainTitleChange(ctx context.Context, oldTitle, newTitle string) (string, error) {
	model := c.client.GenerativeModel("gemini-1.5-flash")

	prompt := fmt.Sprintf(`Un quotidiano ha modificato il titolo di un articolo.

Titolo precedente: %s
Titolo nuovo: %s

Descrivi in una sola frase, in italiano, cosa è cambiato nel titolo. Rispondi solo con la frase, senza premesse.`, oldTitle, newTitle)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	explanation := strings.TrimSpace(b.String())
	if explanation == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}

	return explanation, nil
}
