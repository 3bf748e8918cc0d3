package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"taste-haven-assistant/internal/restaurant"
)

// GeminiChat answers plain chat turns with a Gemini model.
type GeminiChat struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	history *history
}

func NewGeminiChat(ctx context.Context, apiKey, modelName string) (*GeminiChat, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(SystemPrompt)}}
	model.SetTemperature(0.4)
	return &GeminiChat{client: client, model: model, history: newHistory(maxHistory)}, nil
}

func (g *GeminiChat) Close() error {
	return g.client.Close()
}

func (g *GeminiChat) Chat(ctx context.Context, req restaurant.ChatRequest) (string, error) {
	cs := g.model.StartChat()
	cs.History = geminiHistory(g.history.get(req.SessionID))

	resp, err := cs.SendMessage(ctx, genai.Text(req.Message))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	reply := strings.TrimSpace(responseText(resp))
	if reply == "" {
		return "", ErrEmptyCompletion
	}
	g.history.commit(req.SessionID, req.Message, reply)
	return reply, nil
}

func geminiHistory(turns []turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == roleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Content)}})
	}
	return out
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
