package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ecastro/convobot"
	"github.com/ecastro/convobot/capability/currency"
	"github.com/ecastro/convobot/capability/lyrics"
	"github.com/ecastro/convobot/capability/translate"
	"github.com/ecastro/convobot/capability/weather"
	"github.com/ecastro/convobot/config"
	"github.com/ecastro/convobot/core"
	"github.com/ecastro/convobot/logging"
	"github.com/ecastro/convobot/model"
	anthropicmodel "github.com/ecastro/convobot/model/anthropic"
	openaimodel "github.com/ecastro/convobot/model/openai"
	"github.com/ecastro/convobot/session"
	"github.com/ecastro/convobot/transport/httpapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.New(&logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})

	store := session.NewStore(func(o *session.Options) {
		o.TTL = cfg.Session.TTL
		o.MaxTurns = cfg.Session.MaxTurns
		o.Logger = logger
	})
	store.StartSweeper(ctx, cfg.Session.SweepInterval)

	completer, err := buildCompleter(cfg.Completion)
	if err != nil {
		log.Fatalf("failed to initialize completion provider: %v", err)
	}
	logger.Info("completion provider initialized", "provider", completer.Info().Provider, "model", completer.Info().Name)

	bot := convobot.New(func(o *convobot.Options) {
		o.SessionStore = store
		o.Completer = completer
		o.CallTimeout = cfg.Dispatch.CallTimeout
		o.HistoryLimit = cfg.Dispatch.HistoryLimit
		o.Logger = logger
	})

	registerCapabilities(bot, cfg.Capabilities, logger)

	handler := httpapi.NewHandler(bot, store.Stats, httpapi.WithLogger(logger))
	startServer(ctx, cfg.Server, handler.Router(), logger)
}

func buildCompleter(cfg config.CompletionConfig) (model.Completer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openaimodel.NewCompleter(func(o *openaimodel.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.Temperature != nil {
				o.Temperature = *cfg.Temperature
			}
			if cfg.MaxTokens != nil {
				o.MaxCompletionTokens = int64(*cfg.MaxTokens)
			}
			o.Instructions = cfg.Instructions
		}), nil
	case config.ProviderAnthropic:
		return anthropicmodel.NewCompleter(func(o *anthropicmodel.Options) {
			o.APIKey = cfg.APIKey
			if cfg.Temperature != nil {
				o.Temperature = *cfg.Temperature
			}
			if cfg.MaxTokens != nil {
				o.MaxTokens = int64(*cfg.MaxTokens)
			}
			o.Instructions = cfg.Instructions
		}), nil
	case config.ProviderMock:
		return model.NewMockCompleter("local", "mock"), nil
	default:
		return nil, errors.New("unknown completion provider " + cfg.Provider)
	}
}

// registerCapabilities wires every capability whose prerequisites are met.
// A duplicate registration is a programming error and aborts startup.
func registerCapabilities(bot *convobot.Bot, cfg config.CapabilityConfig, logger logging.Logger) {
	register := func(desc core.Descriptor, invoker core.Invoker) {
		if err := bot.RegisterCapability(desc, invoker); err != nil {
			log.Fatalf("failed to register capability %s: %v", desc.Name, err)
		}
		logger.Info("capability registered", "capability", desc.Name)
	}

	register(currency.Descriptor(), currency.NewClient(func(o *currency.Options) {
		if cfg.CurrencyBaseURL != "" {
			o.BaseURL = cfg.CurrencyBaseURL
		}
	}))
	register(translate.Descriptor(), translate.NewClient(func(o *translate.Options) {
		if cfg.TranslateBaseURL != "" {
			o.BaseURL = cfg.TranslateBaseURL
		}
	}))
	register(lyrics.Descriptor(), lyrics.NewClient(func(o *lyrics.Options) {
		if cfg.LyricsBaseURL != "" {
			o.BaseURL = cfg.LyricsBaseURL
		}
	}))

	if cfg.WeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY not set, weather capability disabled")
		return
	}
	register(weather.Descriptor(), weather.NewClient(cfg.WeatherAPIKey, func(o *weather.Options) {
		if cfg.WeatherBaseURL != "" {
			o.BaseURL = cfg.WeatherBaseURL
		}
	}))
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger logging.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("convobot listening", "addr", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
