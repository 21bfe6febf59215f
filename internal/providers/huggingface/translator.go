package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"parley/internal/domain"
)

var ErrUnsupportedPair = errors.New("unsupported translation direction")

// languageCodes maps the language names shown in the controls to model codes.
var languageCodes = map[string]string{
	"English": "en",
	"Arabic":  "ar",
}

// Config controls the Inference API translator.
type Config struct {
	APIToken   string
	BaseURL    string
	Models     map[string]string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// DefaultModels are the Helsinki-NLP checkpoints keyed by "<src>-<tgt>".
func DefaultModels() map[string]string {
	return map[string]string{
		"en-ar": "Helsinki-NLP/opus-mt-tc-big-en-ar",
		"ar-en": "Helsinki-NLP/opus-mt-ar-en",
	}
}

// Translator implements ports.Translator against the Hugging Face Inference API.
type Translator struct {
	cfg  Config
	http *http.Client
}

func NewTranslator(cfg Config) *Translator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-inference.huggingface.co/models"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultModels()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Translator{cfg: cfg, http: httpClient}
}

func (t *Translator) Translate(ctx context.Context, text string, langs domain.LanguagePair) (string, error) {
	if strings.TrimSpace(t.cfg.APIToken) == "" {
		return "", errors.New("HUGGINGFACE_API_TOKEN is not configured")
	}
	model, err := t.modelFor(langs)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/"+model, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("huggingface %s: %w", model, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read huggingface response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apiError(resp.StatusCode, payload)
	}

	var results []struct {
		TranslationText string `json:"translation_text"`
		GeneratedText   string `json:"generated_text"`
	}
	if err := json.Unmarshal(payload, &results); err != nil {
		return "", fmt.Errorf("decode huggingface response: %w", err)
	}
	if len(results) == 0 {
		return "", &domain.CollaboratorError{Collaborator: "translate", Message: "Translation failed"}
	}
	if results[0].TranslationText != "" {
		return results[0].TranslationText, nil
	}
	return results[0].GeneratedText, nil
}

func (t *Translator) modelFor(langs domain.LanguagePair) (string, error) {
	source, okSource := languageCodes[langs.Source]
	target, okTarget := languageCodes[langs.Target]
	if !okSource || !okTarget {
		return "", fmt.Errorf("%w: %s to %s", ErrUnsupportedPair, langs.Source, langs.Target)
	}
	model, ok := t.cfg.Models[source+"-"+target]
	if !ok {
		return "", fmt.Errorf("%w: %s to %s", ErrUnsupportedPair, langs.Source, langs.Target)
	}
	return model, nil
}

func apiError(status int, payload []byte) error {
	var envelope struct {
		Error string `json:"error"`
	}
	message := http.StatusText(status)
	if json.Unmarshal(payload, &envelope) == nil && envelope.Error != "" {
		message = envelope.Error
	}
	return &domain.CollaboratorError{Collaborator: "translate", Status: status, Message: message}
}
