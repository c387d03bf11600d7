// Command kbchat is an interactive console chat grounded in a local
// knowledge base. Documents from the knowledge directory are combined into
// the conversation's system message; responses can be requested blocking or
// streamed, and blocking responses are served from a fingerprint-keyed
// cache when the conversation repeats itself.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/peterh/liner"

	"github.com/hupe1980/kbchat/cache"
	"github.com/hupe1980/kbchat/cache/sqlite"
	"github.com/hupe1980/kbchat/chat"
	"github.com/hupe1980/kbchat/config"
	"github.com/hupe1980/kbchat/core"
	"github.com/hupe1980/kbchat/knowledge"
	"github.com/hupe1980/kbchat/logging"
	"github.com/hupe1980/kbchat/model"
	anthropicmodel "github.com/hupe1980/kbchat/model/anthropic"
	openaimodel "github.com/hupe1980/kbchat/model/openai"
)

var (
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("kbchat: "+err.Error()))
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   string
		knowledgeDir string
		modelID      string
	)
	flag.StringVar(&configPath, "config", "", "path to a TOML config file")
	flag.StringVar(&knowledgeDir, "knowledge", "", "knowledge directory (overrides config)")
	flag.StringVar(&modelID, "model", "", "model id (overrides config)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if knowledgeDir != "" {
		cfg.Knowledge.Dir = knowledgeDir
	}
	if modelID != "" {
		cfg.Provider.ModelID = modelID
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	provider, err := buildProvider(cfg.Provider)
	if err != nil {
		return err
	}

	source := knowledge.NewDirSource(cfg.Knowledge.Dir, func(o *knowledge.Options) {
		if len(cfg.Knowledge.Extensions) > 0 {
			o.Extensions = cfg.Knowledge.Extensions
		}
		o.Logger = logger
	})

	chatOpts := []func(o *chat.Options){
		chat.WithLogger(logger),
		chat.WithCacheTTL(cfg.Cache.TTL()),
	}
	switch cfg.Cache.Backend {
	case config.CacheOff:
		chatOpts = append(chatOpts, chat.WithCache(nil))
	case config.CacheSQLite:
		store, err := sqlite.Open(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("open response cache: %w", err)
		}
		defer store.Close()
		chatOpts = append(chatOpts, chat.WithCache(store))
	default:
		chatOpts = append(chatOpts, chat.WithCache(cache.NewInMemoryCache()))
	}

	orch := chat.New(source, provider, chatOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Document changes only mark the knowledge base dirty. The reload itself
	// runs on the REPL goroutine between turns because the orchestrator
	// expects serialized callers.
	var dirty atomic.Bool
	if cfg.Knowledge.Watch {
		watcher, err := knowledge.NewWatcher(cfg.Knowledge.Extensions, logger)
		if err != nil {
			return fmt.Errorf("start knowledge watcher: %w", err)
		}
		defer watcher.Close()
		changes, err := watcher.Watch(ctx, cfg.Knowledge.Dir)
		if err != nil {
			return fmt.Errorf("watch %s: %w", cfg.Knowledge.Dir, err)
		}
		go func() {
			for path := range changes {
				logger.Info("knowledge document changed", "path", path)
				dirty.Store(true)
			}
		}()
	}

	info := provider.Info()
	fmt.Println(infoStyle.Render(fmt.Sprintf("kbchat | model %s (%s) | knowledge %s", info.Name, info.Provider, cfg.Knowledge.Dir)))
	fmt.Println(infoStyle.Render("type /help for commands"))

	return repl(ctx, orch, &dirty)
}

func buildProvider(cfg config.ProviderConfig) (model.Provider, error) {
	switch cfg.Backend {
	case config.BackendOpenAI:
		if cfg.APIKey != "" {
			client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
			return openaimodel.NewProviderFromClient(&client, cfg.ModelConfig())
		}
		return openaimodel.NewProvider(cfg.ModelConfig())
	case config.BackendAnthropic:
		return anthropicmodel.NewProvider(cfg.ModelConfig(), cfg.APIKey)
	case config.BackendMock:
		return model.NewMockProvider(cfg.ModelID), nil
	default:
		return nil, fmt.Errorf("unknown provider backend %q", cfg.Backend)
	}
}

func repl(ctx context.Context, orch *chat.Orchestrator, dirty *atomic.Bool) error {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := line.Prompt(promptStyle.Render("you> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println(infoStyle.Render("(interrupted, /exit to quit)"))
				continue
			}
			// io.EOF on Ctrl+D ends the session
			return nil
		}
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		line.AppendHistory(input)

		if dirty.Swap(false) {
			if err := orch.ReloadKnowledge(ctx); err != nil {
				fmt.Println(errorStyle.Render("knowledge reload failed: " + err.Error()))
			} else {
				fmt.Println(infoStyle.Render("knowledge base reloaded"))
			}
		}

		switch {
		case trimmed == "/exit" || trimmed == "/quit":
			return nil
		case trimmed == "/help":
			printHelp()
		case trimmed == "/clear":
			orch.ClearHistory()
			fmt.Println(infoStyle.Render("history cleared, knowledge reloads on next turn"))
		case trimmed == "/history":
			printHistory(orch.History())
		case strings.HasPrefix(trimmed, "/stream "):
			streamTurn(ctx, orch, strings.TrimPrefix(trimmed, "/stream "))
		case strings.HasPrefix(trimmed, "/"):
			fmt.Println(errorStyle.Render("unknown command, try /help"))
		default:
			sendTurn(ctx, orch, trimmed)
		}
	}
}

func sendTurn(ctx context.Context, orch *chat.Orchestrator, text string) {
	turnCtx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	response, err := orch.Send(turnCtx, text)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	fmt.Println(assistantStyle.Render(response))
}

func streamTurn(ctx context.Context, orch *chat.Orchestrator, text string) {
	turnCtx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	frags, errs, err := orch.Stream(turnCtx, text)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	for frag := range frags {
		fmt.Print(assistantStyle.Render(frag))
	}
	fmt.Println()
	if streamErr := <-errs; streamErr != nil {
		fmt.Println(errorStyle.Render(streamErr.Error()))
	}
}

func printHistory(msgs []core.Message) {
	if len(msgs) == 0 {
		fmt.Println(infoStyle.Render("(no turns yet)"))
		return
	}
	for _, m := range msgs {
		text := m.Text
		if m.Role == core.RoleSystem && len(text) > 120 {
			text = text[:120] + "..."
		}
		fmt.Printf("%s %s\n", promptStyle.Render(string(m.Role)+":"), text)
	}
}

func printHelp() {
	fmt.Println(infoStyle.Render(strings.TrimSpace(`
/stream <text>  stream the response incrementally
/clear          drop all turns and re-read the knowledge base
/history        print the conversation so far
/help           show this help
/exit, /quit    leave`)))
}
