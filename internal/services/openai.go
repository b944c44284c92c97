package services

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"stwipe-backend/internal/pipeline"
)

// OpenAIService wraps Whisper transcription and chat-based text cleaning. It
// implements pipeline.Transcriber and the content filter's TextCleaner.
type OpenAIService struct {
	client openai.Client
	model  string
}

func NewOpenAIService(apiKey, model string) *OpenAIService {
	return &OpenAIService{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// whisperLanguage maps our playlist language tags onto ISO codes. Hinglish
// stays empty so Whisper auto-detects the code-switched speech.
func whisperLanguage(language string) string {
	switch language {
	case "hindi":
		return "hi"
	case "english":
		return "en"
	default:
		return ""
	}
}

// Transcribe sends a local audio file to Whisper. Duration is left at zero
// when the API does not report one; the caller falls back to the source
// metadata.
func (s *OpenAIService) Transcribe(ctx context.Context, audioPath, language string) (*pipeline.Transcript, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  file,
		Model: openai.AudioModelWhisper1,
	}
	if lang := whisperLanguage(language); lang != "" {
		params.Language = openai.String(lang)
	}

	resp, err := s.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}
	if resp.Text == "" {
		return nil, fmt.Errorf("whisper returned empty transcript")
	}

	return &pipeline.Transcript{Text: resp.Text}, nil
}

const cleanSystemPrompt = `You are an expert content filter for educational material. Clean the transcribed content by:
1. Removing filler words, hesitations, and speech disfluencies
2. Filtering out side jokes, personal anecdotes, and off-topic conversations
3. Removing informal greetings and social chat that do not contribute to learning
4. Keeping only the core educational content and explanations
5. Preserving technical terms, examples, and important context
6. Keeping the language style (%s) natural and educational

Do NOT change the meaning or add new information. Keep questions, answers, examples and analogies that help explain concepts. Return only the filtered educational content.`

// Clean asks the chat model to strip disfluencies and off-topic chatter while
// preserving the educational meaning.
func (s *OpenAIService) Clean(ctx context.Context, text, language string) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(cleanSystemPrompt, language)),
			openai.UserMessage("Please filter this educational content, keeping only the valuable learning material:\n\n" + text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from model")
	}
	return resp.Choices[0].Message.Content, nil
}
