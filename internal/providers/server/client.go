package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"parley/internal/audio"
	"parley/internal/domain"
)

// Config controls the companion server client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the companion translation server. It covers every remote
// collaborator: translation, transcription, PDF extraction, speech and PDF export.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "http://127.0.0.1:5000"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, http: httpClient}
}

type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
}

type translateResponse struct {
	Translation *string `json:"translation"`
	Error       string  `json:"error"`
}

func (c *Client) Translate(ctx context.Context, text string, langs domain.LanguagePair) (string, error) {
	body, err := json.Marshal(translateRequest{Text: text, SourceLang: langs.Source, TargetLang: langs.Target})
	if err != nil {
		return "", err
	}

	var resp translateResponse
	if err := c.do(ctx, "translate", "/translate", "application/json", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if resp.Translation == nil {
		return "", &domain.CollaboratorError{Collaborator: "translate", Message: "Failed to fetch translation"}
	}
	return *resp.Translation, nil
}

type transcribeResponse struct {
	Text  *string `json:"text"`
	Error string  `json:"error"`
}

// Transcribe uploads the clip as recording.wav.
func (c *Client) Transcribe(ctx context.Context, clip domain.AudioClip) (string, error) {
	wav, err := audio.EncodeWAV(clip)
	if err != nil {
		return "", err
	}
	body, contentType, err := multipartFile("recording.wav", bytes.NewReader(wav))
	if err != nil {
		return "", err
	}

	var resp transcribeResponse
	if err := c.do(ctx, "transcribe", "/upload-audio", contentType, body, &resp); err != nil {
		return "", err
	}
	if resp.Text == nil {
		return "", &domain.CollaboratorError{Collaborator: "transcribe", Message: "Failed to transcribe audio"}
	}
	return *resp.Text, nil
}

type extractResponse struct {
	Sentences []string `json:"sentences"`
	Error     string   `json:"error"`
}

// Extract uploads a PDF and returns the server's sentence segmentation.
func (c *Client) Extract(ctx context.Context, filename string, content io.Reader) ([]string, error) {
	body, contentType, err := multipartFile(filename, content)
	if err != nil {
		return nil, err
	}

	var resp extractResponse
	if err := c.do(ctx, "extract", "/upload-pdf", contentType, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Sentences) == 0 {
		return nil, &domain.CollaboratorError{Collaborator: "extract", Message: "Failed to extract text"}
	}
	return resp.Sentences, nil
}

// Synthesize returns the encoded speech audio.
func (c *Client) Synthesize(ctx context.Context, req domain.SpeechRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return c.doBinary(ctx, "text-to-speech", "/text-to-speech", bytes.NewReader(body))
}

type chatRow struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type exportRequest struct {
	ChatData []chatRow `json:"chat_data"`
}

// RenderPDF posts the pairs to the server's PDF exporter for the given layout.
func (c *Client) RenderPDF(ctx context.Context, pairs []domain.Pair, kind domain.ExportKind) ([]byte, error) {
	var path string
	switch kind {
	case domain.ExportPDFTable:
		path = "/export/pdf_table"
	case domain.ExportPDFText:
		path = "/export/pdf_text"
	default:
		return nil, fmt.Errorf("export kind %q is not rendered by the server", kind)
	}

	rows := make([]chatRow, 0, len(pairs))
	for _, pair := range pairs {
		rows = append(rows, chatRow{
			Original:   pair.Original,
			Translated: pair.Translated,
			SourceLang: pair.Languages.Source,
			TargetLang: pair.Languages.Target,
		})
	}
	body, err := json.Marshal(exportRequest{ChatData: rows})
	if err != nil {
		return nil, err
	}
	return c.doBinary(ctx, "export", path, bytes.NewReader(body))
}

// do posts body and decodes a JSON reply into out. An "error" field wins over
// the status code; a reply with a usable payload is accepted even when the
// status is not 2xx.
func (c *Client) do(ctx context.Context, collaborator string, path string, contentType string, body io.Reader, out any) error {
	resp, err := c.post(ctx, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", collaborator, err)
	}

	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return statusError(collaborator, resp, payload)
	}
	if strings.TrimSpace(envelope.Error) != "" {
		return &domain.CollaboratorError{Collaborator: collaborator, Status: errorStatus(resp), Message: envelope.Error}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", collaborator, err)
	}
	return nil
}

func (c *Client) doBinary(ctx context.Context, collaborator string, path string, body io.Reader) ([]byte, error) {
	resp, err := c.post(ctx, path, "application/json", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", collaborator, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(payload, &envelope) == nil && strings.TrimSpace(envelope.Error) != "" {
			return nil, &domain.CollaboratorError{Collaborator: collaborator, Status: resp.StatusCode, Message: envelope.Error}
		}
		return nil, statusError(collaborator, resp, payload)
	}
	return payload, nil
}

func (c *Client) post(ctx context.Context, path string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	return resp, nil
}

func statusError(collaborator string, resp *http.Response, payload []byte) error {
	message := strings.TrimSpace(string(payload))
	if message == "" || len(message) > 200 {
		message = "Server error: " + http.StatusText(resp.StatusCode)
	}
	return &domain.CollaboratorError{Collaborator: collaborator, Status: errorStatus(resp), Message: message}
}

func errorStatus(resp *http.Response) int {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return 0
	}
	return resp.StatusCode
}

func multipartFile(filename string, content io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, "", fmt.Errorf("read %s: %w", filename, err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
