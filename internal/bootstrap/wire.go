package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"parley/internal/audio"
	"parley/internal/config"
	"parley/internal/export"
	"parley/internal/metrics"
	"parley/internal/ports"
	"parley/internal/providers/deepgram"
	"parley/internal/providers/huggingface"
	"parley/internal/providers/openai"
	"parley/internal/providers/server"
	"parley/internal/rules"
	"parley/internal/transcript"
	"parley/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Config       config.Config
	Transcript   *transcript.Log
	Languages    *usecase.LanguageSelection
	Conversation *usecase.ConversationController
	Capture      *usecase.CaptureAdapter
	Export       *usecase.ExportAdapter
	Playback     *usecase.PlaybackAdapter
	Rules        *rules.Engine
	Metrics      *metrics.Session
	Logger       *slog.Logger
}

// Build loads configuration and wires all backend dependencies.
func Build(events ports.EventSink, logger *slog.Logger) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	return BuildWithConfig(cfg, events, logger)
}

// BuildWithConfig wires the runtime graph from an already resolved config.
func BuildWithConfig(cfg config.Config, events ports.EventSink, logger *slog.Logger) (Services, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rulesEngine, err := rules.NewEngine(cfg.Rules.Path, cfg.Rules.IterationLimit)
	if err != nil {
		return Services{}, err
	}

	serverClient := server.NewClient(server.Config{
		BaseURL: cfg.Server.BaseURL,
		Timeout: cfg.Server.Timeout,
	})
	openaiClient := openai.NewClient(openai.Config{
		APIKey:   cfg.OpenAI.APIKey,
		BaseURL:  cfg.OpenAI.BaseURL,
		Language: cfg.OpenAI.Language,
	})

	translator, err := selectTranslator(cfg, serverClient)
	if err != nil {
		return Services{}, err
	}
	transcriber, err := selectTranscriber(cfg, serverClient, openaiClient, logger)
	if err != nil {
		return Services{}, err
	}
	synthesizer, err := selectSynthesizer(cfg, serverClient, openaiClient)
	if err != nil {
		return Services{}, err
	}

	sessionMetrics := metrics.NewSession(uuid.NewString())
	log := transcript.NewLog()
	languages := usecase.NewLanguageSelection(usecase.DefaultLanguages)

	conversation := usecase.NewConversationController(
		log,
		translator,
		serverClient,
		languages,
		events,
		sessionMetrics,
		logger,
	)

	capture := usecase.NewCaptureAdapter(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		transcriber,
		conversation,
		rulesEngine,
		events,
		sessionMetrics,
		logger,
		usecase.CaptureConfig{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			ChunkSize: cfg.Audio.ChunkSize,
		},
	)

	exporter := usecase.NewExportAdapter(
		log,
		export.NewBuilder(),
		serverClient,
		events,
		sessionMetrics,
		logger,
	)

	playback := usecase.NewPlaybackAdapter(
		log,
		synthesizer,
		audio.NewCommandPlayer(cfg.Playback.Command, cfg.Playback.Args, ""),
		events,
		sessionMetrics,
		logger,
		usecase.PlaybackConfig{Voice: cfg.Playback.Voice, Model: cfg.Playback.Model},
	)

	logger.Info("services ready",
		"session", sessionMetrics.SessionID,
		"translator", cfg.Providers.Translator,
		"transcriber", cfg.Providers.Transcriber,
		"synthesizer", cfg.Providers.Synthesizer,
		"rules", rulesEngine.Len(),
	)

	return Services{
		Config:       cfg,
		Transcript:   log,
		Languages:    languages,
		Conversation: conversation,
		Capture:      capture,
		Export:       exporter,
		Playback:     playback,
		Rules:        rulesEngine,
		Metrics:      sessionMetrics,
		Logger:       logger,
	}, nil
}

// WatchRules hot-reloads the substitution rules until ctx is done. It returns
// immediately when watching is disabled or no rules file is configured.
func (s Services) WatchRules(ctx context.Context) {
	if !s.Config.Rules.Watch || s.Rules == nil || s.Rules.Path() == "" {
		return
	}
	go func() {
		if err := rules.Watch(ctx, s.Rules, s.Logger); err != nil {
			s.Logger.Warn("rules watcher stopped", "error", err)
		}
	}()
}

// Shutdown drops any recording in progress and logs the session summary.
func (s Services) Shutdown() {
	if s.Capture != nil {
		s.Capture.Abort()
	}
	if s.Metrics != nil {
		s.Logger.Info("session finished", "summary", s.Metrics.Summary())
	}
}

func selectTranslator(cfg config.Config, serverClient *server.Client) (ports.Translator, error) {
	switch cfg.Providers.Translator {
	case config.ProviderServer:
		return serverClient, nil
	case config.ProviderHuggingFace:
		return huggingface.NewTranslator(huggingface.Config{
			APIToken: cfg.HuggingFace.APIToken,
			BaseURL:  cfg.HuggingFace.BaseURL,
			Models:   cfg.HuggingFace.Models,
			Timeout:  cfg.Server.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported translator provider %q", cfg.Providers.Translator)
	}
}

func selectTranscriber(cfg config.Config, serverClient *server.Client, openaiClient *openai.Client, logger *slog.Logger) (ports.Transcriber, error) {
	switch cfg.Providers.Transcriber {
	case config.ProviderServer:
		return serverClient, nil
	case config.ProviderOpenAI:
		return openaiClient, nil
	case config.ProviderDeepgram:
		provider := deepgram.NewProvider(deepgram.Config{
			APIKey:      cfg.Deepgram.APIKey,
			APIBaseURL:  cfg.Deepgram.APIBaseURL,
			Model:       cfg.Deepgram.Model,
			Language:    cfg.Deepgram.Language,
			SmartFormat: cfg.Deepgram.SmartFormat,
		})
		return deepgram.NewTranscriber(provider, cfg.Audio.ChunkSize, logger), nil
	default:
		return nil, fmt.Errorf("unsupported transcriber provider %q", cfg.Providers.Transcriber)
	}
}

func selectSynthesizer(cfg config.Config, serverClient *server.Client, openaiClient *openai.Client) (ports.SpeechSynthesizer, error) {
	switch cfg.Providers.Synthesizer {
	case config.ProviderServer:
		return serverClient, nil
	case config.ProviderOpenAI:
		return openaiClient, nil
	default:
		return nil, fmt.Errorf("unsupported synthesizer provider %q", cfg.Providers.Synthesizer)
	}
}
