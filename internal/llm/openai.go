package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI talks to any OpenAI-compatible endpoint. Besides chat steps it
// covers transcription and image generation, which share the same API
// surface and credentials.
type OpenAI struct {
	client *openai.Client
}

func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAI) StreamStep(ctx context.Context, req StepRequest, onToken func(string)) (*StepResult, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, toOpenAIMessage(m))
	}

	var tools []openai.Tool
	for _, t := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: msgs,
		Tools:    tools,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("create completion stream: %w", err)
	}
	defer stream.Close()

	var (
		content      string
		finishReason string
		toolCalls    []openai.ToolCall
	)

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stream recv: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finishReason = string(choice.FinishReason)
		}
		if choice.Delta.Content != "" {
			content += choice.Delta.Content
			if onToken != nil {
				onToken(choice.Delta.Content)
			}
		}

		// Tool calls stream as indexed fragments; arguments arrive in
		// pieces and are concatenated per index.
		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			for len(toolCalls) <= idx {
				toolCalls = append(toolCalls, openai.ToolCall{})
			}
			if tc.ID != "" {
				toolCalls[idx].ID = tc.ID
			}
			if tc.Function.Name != "" {
				toolCalls[idx].Function.Name += tc.Function.Name
			}
			toolCalls[idx].Function.Arguments += tc.Function.Arguments
		}
	}

	result := &StepResult{
		Message:      Message{Role: "assistant", Content: content},
		FinishReason: finishReason,
	}
	for _, tc := range toolCalls {
		result.Message.ToolCalls = append(result.Message.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return result, nil
}

// Transcribe sends audio bytes to the transcription model.
func (o *OpenAI) Transcribe(ctx context.Context, model, filename string, audio io.Reader) (string, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    model,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return resp.Text, nil
}

// GenerateImage renders a prompt and returns the raw image bytes.
func (o *OpenAI) GenerateImage(ctx context.Context, model, prompt string) ([]byte, error) {
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Model:          model,
		Prompt:         prompt,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("image generation returned no data")
	}
	return base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
}

func toOpenAIMessage(m Message) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{
		Role:       m.Role,
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return out
}
