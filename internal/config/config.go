package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names accepted in the providers section.
const (
	ProviderServer      = "server"
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderDeepgram    = "deepgram"
)

// Config stores runtime configuration for the desktop app and the headless API.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Providers   ProvidersConfig   `yaml:"providers"`
	HuggingFace HuggingFaceConfig `yaml:"huggingface"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	Deepgram    DeepgramConfig    `yaml:"deepgram"`
	Audio       AudioConfig       `yaml:"audio"`
	Playback    PlaybackConfig    `yaml:"playback"`
	Rules       RulesConfig       `yaml:"rules"`
	Export      ExportConfig      `yaml:"export"`
	HTTP        HTTPConfig        `yaml:"http"`
}

// ServerConfig points at the companion translation server.
type ServerConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ProvidersConfig selects which collaborator serves each remote operation.
type ProvidersConfig struct {
	Translator  string `yaml:"translator"`
	Transcriber string `yaml:"transcriber"`
	Synthesizer string `yaml:"synthesizer"`
}

type HuggingFaceConfig struct {
	APIToken string            `yaml:"api_token"`
	BaseURL  string            `yaml:"base_url"`
	Models   map[string]string `yaml:"models"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Language string `yaml:"language"`
}

type DeepgramConfig struct {
	APIKey      string `yaml:"api_key"`
	APIBaseURL  string `yaml:"api_base"`
	Model       string `yaml:"model"`
	Language    string `yaml:"language"`
	SmartFormat bool   `yaml:"smart_format"`
}

type AudioConfig struct {
	RecorderCommand string `yaml:"recorder_command"`
	InputFormat     string `yaml:"input_format"`
	InputDevice     string `yaml:"input_device"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	ChunkSize       int    `yaml:"chunk_size"`
}

type PlaybackConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Voice   string   `yaml:"voice"`
	Model   string   `yaml:"model"`
}

type RulesConfig struct {
	Path           string `yaml:"path"`
	IterationLimit int    `yaml:"iteration_limit"`
	Watch          bool   `yaml:"watch"`
}

// ExportConfig controls where the headless API and desktop fallback write exports.
type ExportConfig struct {
	Directory string `yaml:"directory"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Load resolves configuration from environment variables, an optional YAML
// file named by PARLEY_CONFIG, and defaults, in that order of precedence.
// A .env file (PARLEY_ENV_FILE, default ".env") is read first when present and
// never overrides variables already set in the process environment.
func Load() (Config, error) {
	if err := loadDotEnv(envOrDefault("PARLEY_ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	cfg := defaults(home)
	if path := strings.TrimSpace(os.Getenv("PARLEY_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults(home string) Config {
	defaultRules := filepath.Join(home, ".config", "parley", "substitutions.rules")
	legacyRules := filepath.Join(home, ".config", "parley", "rules.txt")

	return Config{
		Server: ServerConfig{
			BaseURL: "http://127.0.0.1:5000",
			Timeout: 60 * time.Second,
		},
		Providers: ProvidersConfig{
			Translator:  ProviderServer,
			Transcriber: ProviderServer,
			Synthesizer: ProviderServer,
		},
		HuggingFace: HuggingFaceConfig{
			BaseURL: "https://api-inference.huggingface.co/models",
		},
		Deepgram: DeepgramConfig{
			APIBaseURL:  "https://api.deepgram.com/v1",
			Model:       "nova-2",
			SmartFormat: true,
		},
		Audio: AudioConfig{
			RecorderCommand: "ffmpeg",
			InputFormat:     "pulse",
			InputDevice:     "default",
			SampleRate:      16000,
			Channels:        1,
			ChunkSize:       4096,
		},
		Playback: PlaybackConfig{
			Command: "ffplay",
			Args:    []string{"-nodisp", "-autoexit", "-loglevel", "error"},
			Voice:   "alloy",
			Model:   "tts-1",
		},
		Rules: RulesConfig{
			Path:           firstExisting(defaultRules, legacyRules),
			IterationLimit: 30,
			Watch:          true,
		},
		Export: ExportConfig{
			Directory: filepath.Join(home, "Downloads"),
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %q: %w", path, err)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %q: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.BaseURL = envOrDefault("PARLEY_SERVER_URL", cfg.Server.BaseURL)
	cfg.Server.Timeout = envOrDefaultMillis("PARLEY_SERVER_TIMEOUT_MS", cfg.Server.Timeout)

	cfg.Providers.Translator = strings.ToLower(envOrDefault("PARLEY_TRANSLATOR", cfg.Providers.Translator))
	cfg.Providers.Transcriber = strings.ToLower(envOrDefault("PARLEY_TRANSCRIBER", cfg.Providers.Transcriber))
	cfg.Providers.Synthesizer = strings.ToLower(envOrDefault("PARLEY_SYNTHESIZER", cfg.Providers.Synthesizer))

	cfg.HuggingFace.APIToken = envOrDefault("HUGGINGFACE_API_TOKEN", cfg.HuggingFace.APIToken)
	cfg.HuggingFace.BaseURL = envOrDefault("HUGGINGFACE_API_BASE", cfg.HuggingFace.BaseURL)

	cfg.OpenAI.APIKey = envOrDefault("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.BaseURL = envOrDefault("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.OpenAI.Language = envOrDefault("OPENAI_LANGUAGE", cfg.OpenAI.Language)

	cfg.Deepgram.APIKey = envOrDefault("DEEPGRAM_API_KEY", cfg.Deepgram.APIKey)
	cfg.Deepgram.APIBaseURL = envOrDefault("DEEPGRAM_API_BASE", cfg.Deepgram.APIBaseURL)
	cfg.Deepgram.Model = envOrDefault("DEEPGRAM_MODEL", cfg.Deepgram.Model)
	cfg.Deepgram.Language = envOrDefault("DEEPGRAM_LANGUAGE", cfg.Deepgram.Language)
	cfg.Deepgram.SmartFormat = envOrDefaultBool("DEEPGRAM_SMART_FORMAT", cfg.Deepgram.SmartFormat)

	cfg.Audio.RecorderCommand = envOrDefault("PARLEY_FFMPEG_COMMAND", cfg.Audio.RecorderCommand)
	cfg.Audio.InputFormat = envOrDefault("PARLEY_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = firstNonEmpty(
		os.Getenv("PARLEY_AUDIO_INPUT_DEVICE"),
		os.Getenv("PULSE_SOURCE"),
		cfg.Audio.InputDevice,
	)
	cfg.Audio.SampleRate = envOrDefaultInt("PARLEY_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("PARLEY_CHANNELS", cfg.Audio.Channels)
	cfg.Audio.ChunkSize = envOrDefaultInt("PARLEY_AUDIO_CHUNK_SIZE", cfg.Audio.ChunkSize)

	cfg.Playback.Command = envOrDefault("PARLEY_PLAYER_COMMAND", cfg.Playback.Command)
	if args := strings.TrimSpace(os.Getenv("PARLEY_PLAYER_ARGS")); args != "" {
		cfg.Playback.Args = strings.Fields(args)
	}
	cfg.Playback.Voice = envOrDefault("PARLEY_TTS_VOICE", cfg.Playback.Voice)
	cfg.Playback.Model = envOrDefault("PARLEY_TTS_MODEL", cfg.Playback.Model)

	cfg.Rules.Path = envOrDefault("PARLEY_RULES_FILE", cfg.Rules.Path)
	cfg.Rules.IterationLimit = envOrDefaultInt("PARLEY_RULE_ITERATION_LIMIT", cfg.Rules.IterationLimit)
	cfg.Rules.Watch = envOrDefaultBool("PARLEY_RULES_WATCH", cfg.Rules.Watch)

	cfg.Export.Directory = envOrDefault("PARLEY_EXPORT_DIR", cfg.Export.Directory)
	cfg.HTTP.Addr = envOrDefault("PARLEY_HTTP_ADDR", cfg.HTTP.Addr)
}

// MaxChannels is the widest recording the WAV encoder accepts.
const MaxChannels = 2

func normalize(cfg *Config) error {
	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = 60 * time.Second
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.Channels > MaxChannels {
		return fmt.Errorf("unsupported audio channel count %d (want 1 or %d)", cfg.Audio.Channels, MaxChannels)
	}
	if cfg.Audio.ChunkSize < 256 {
		cfg.Audio.ChunkSize = 4096
	}
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = 30
	}

	if err := oneOf("translator", cfg.Providers.Translator, ProviderServer, ProviderHuggingFace); err != nil {
		return err
	}
	if err := oneOf("transcriber", cfg.Providers.Transcriber, ProviderServer, ProviderOpenAI, ProviderDeepgram); err != nil {
		return err
	}
	return oneOf("synthesizer", cfg.Providers.Synthesizer, ProviderServer, ProviderOpenAI)
}

func oneOf(role string, value string, allowed ...string) error {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s provider %q (want one of %s)", role, value, strings.Join(allowed, ", "))
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envOrDefaultMillis(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Millisecond
}
