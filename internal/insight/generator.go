// Package insight はセッション記録からのAIインサイト生成を提供する。
package insight

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// TextGenerator はチャット補完によるテキスト生成を抽象化する。
// テストではネットワークを使わないモックに差し替える。
type TextGenerator interface {
	// Generate はシステムプロンプトとユーザープロンプトから本文を生成する。
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GeneratorConfig はOpenAIクライアントの生成パラメータ。
type GeneratorConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// openAIGenerator はgo-openaiによるTextGeneratorの実装。
type openAIGenerator struct {
	client *openai.Client
	cfg    GeneratorConfig
}

// NewOpenAIGenerator はOpenAI APIで生成するTextGeneratorを生成する。
func NewOpenAIGenerator(apiKey string, cfg GeneratorConfig) TextGenerator {
	return &openAIGenerator{
		client: openai.NewClient(apiKey),
		cfg:    cfg,
	}
}

func (g *openAIGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	slog.Debug("OpenAIにインサイト生成をリクエスト", "model", g.cfg.Model)

	req := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	slog.Debug("OpenAIから応答を受信", "finishReason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
