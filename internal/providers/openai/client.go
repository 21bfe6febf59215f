package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"parley/internal/audio"
	"parley/internal/domain"
)

// Config controls the OpenAI audio client.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string
}

// Client implements ports.Transcriber with Whisper and ports.SpeechSynthesizer
// with the speech endpoint.
type Client struct {
	client   *goopenai.Client
	language string
	keySet   bool
}

func NewClient(cfg Config) *Client {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Client{
		client:   goopenai.NewClientWithConfig(clientCfg),
		language: cfg.Language,
		keySet:   strings.TrimSpace(cfg.APIKey) != "",
	}
}

func (c *Client) Transcribe(ctx context.Context, clip domain.AudioClip) (string, error) {
	if !c.keySet {
		return "", errors.New("OPENAI_API_KEY is not configured")
	}
	wav, err := audio.EncodeWAV(clip)
	if err != nil {
		return "", err
	}

	resp, err := c.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    goopenai.Whisper1,
		FilePath: "recording.wav",
		Reader:   bytes.NewReader(wav),
		Language: c.language,
	})
	if err != nil {
		return "", collaboratorError("transcribe", err)
	}
	return resp.Text, nil
}

func (c *Client) Synthesize(ctx context.Context, req domain.SpeechRequest) ([]byte, error) {
	if !c.keySet {
		return nil, errors.New("OPENAI_API_KEY is not configured")
	}
	model := goopenai.SpeechModel(req.Model)
	if model == "" {
		model = goopenai.TTSModel1
	}
	voice := goopenai.SpeechVoice(req.Voice)
	if voice == "" {
		voice = goopenai.VoiceAlloy
	}

	resp, err := c.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          model,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, collaboratorError("text-to-speech", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	return data, nil
}

// collaboratorError keeps the HTTP status of API failures so rate limits and
// auth problems are classified; transport failures pass through unchanged.
func collaboratorError(collaborator string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &domain.CollaboratorError{Collaborator: collaborator, Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		message := reqErr.HTTPStatus
		if reqErr.Err != nil {
			message = reqErr.Err.Error()
		}
		return &domain.CollaboratorError{Collaborator: collaborator, Status: reqErr.HTTPStatusCode, Message: message}
	}
	return fmt.Errorf("%s: %w", collaborator, err)
}
