package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/mklimuk/worklog-pilot/pkg/ai"
	"github.com/mklimuk/worklog-pilot/pkg/api"
	"github.com/mklimuk/worklog-pilot/pkg/automation"
	"github.com/mklimuk/worklog-pilot/pkg/config"
	"github.com/mklimuk/worklog-pilot/pkg/db"
	"github.com/mklimuk/worklog-pilot/pkg/index"
	"github.com/mklimuk/worklog-pilot/pkg/integration/commands"
	"github.com/mklimuk/worklog-pilot/pkg/integration/discord"
	"github.com/mklimuk/worklog-pilot/pkg/integration/telegram"
	"github.com/mklimuk/worklog-pilot/pkg/report"
	"github.com/mklimuk/worklog-pilot/pkg/sync"
	"github.com/mklimuk/worklog-pilot/pkg/vault"
	"github.com/mklimuk/worklog-pilot/pkg/watch"
)

func main() {
	vaultPath := flag.String("vault", "", "Path to the vault directory")
	dbPath := flag.String("db", "worklog-pilot.db", "Path to SQLite DB")
	port := flag.String("port", "8080", "HTTP Port")
	configPath := flag.String("config", "", "Path to YAML config file")
	rescan := flag.Bool("rescan", false, "Rebuild the index on startup")
	flag.Parse()

	if *vaultPath == "" {
		log.Fatal("Please provide -vault path")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize DB
	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		log.Fatalf("Failed to init schema: %v", err)
	}

	repo := db.NewRepository(database)

	// Initialize vault access and index
	store := vault.NewDirStore(*vaultPath)
	indexer := index.NewIndexer(store, cfg.RootFolder, cfg.IndexPath)
	indexer.Load()
	if *rescan {
		started := time.Now()
		count := indexer.FullScan()
		if err := repo.LogIndexRun("full_scan", count, time.Since(started)); err != nil {
			log.Printf("Failed to log index run: %v", err)
		}
		log.Printf("Indexed %d log files", count)
	}

	classifier := cfg.Classifier()
	markers := cfg.Markers()
	reports := report.NewBuilder(store, cfg.RootFolder, indexer, classifier, cfg.HoursPerDay)

	// Initialize AI Client
	aiClient, model, err := newAIClient(cfg.AI)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}
	if aiClient != nil {
		defer aiClient.Close()
	}

	// Initialize Git Manager
	var gitManager *sync.GitManager
	if cfg.Git.Enabled {
		gitManager = sync.NewGitManager(*vaultPath, cfg.Git.SSHKeyPath)
	}

	// Initialize Automations
	automations := automation.NewService(repo, time.Local, 15*time.Second)
	automations.RegisterAction("full_scan", func(ctx context.Context, params string) (string, error) {
		started := time.Now()
		count := indexer.FullScan()
		if err := repo.LogIndexRun("full_scan", count, time.Since(started)); err != nil {
			log.Printf("Failed to log index run: %v", err)
		}
		return fmt.Sprintf("indexed %d files", count), nil
	})
	automations.RegisterAction("git_sync", func(ctx context.Context, params string) (string, error) {
		if gitManager == nil {
			return "", fmt.Errorf("git sync is not enabled")
		}
		if err := gitManager.Sync(""); err != nil {
			return "", err
		}
		return "synced", nil
	})
	automations.RegisterAction("range_summary", func(ctx context.Context, params string) (string, error) {
		return runSummaryAction(ctx, params, aiClient, model, reports, store, repo, cfg.RootFolder)
	})
	automations.Start()
	defer automations.Stop()

	// Initialize file watcher
	watcher, err := watch.New(*vaultPath, cfg.RootFolder, indexer)
	if err != nil {
		log.Printf("Failed to create file watcher: %v", err)
	} else if err := watcher.Start(); err != nil {
		log.Printf("Failed to start file watcher: %v", err)
	} else {
		log.Printf("Watching %s for log changes", cfg.RootFolder)
		defer watcher.Stop()
	}

	// Initialize Router
	router := api.NewRouter(api.Deps{
		Store:       store,
		Root:        cfg.RootFolder,
		Indexer:     indexer,
		Reports:     reports,
		Classifier:  classifier,
		Markers:     markers,
		AI:          aiClient,
		Model:       model,
		Repo:        repo,
		Automations: automations,
		Git:         gitManager,
	})

	cmds := &commands.Commands{
		Store:      store,
		Root:       cfg.RootFolder,
		Reports:    reports,
		Classifier: classifier,
		Markers:    markers,
		StartTime:  cfg.DefaultStartTime,
	}

	// Initialize Discord Bot (Optional)
	discordToken := os.Getenv("DISCORD_TOKEN")
	if discordToken != "" {
		bot, err := discord.NewBot(discordToken, cmds, gitManager)
		if err != nil {
			log.Printf("Failed to create Discord bot: %v", err)
		} else {
			if err := bot.Start(); err != nil {
				log.Printf("Failed to start Discord bot: %v", err)
			} else {
				log.Println("Discord Bot started")
				defer bot.Stop()
			}
		}
	}

	// Initialize Telegram Bot (Optional)
	telegramToken := os.Getenv("TELEGRAM_TOKEN")
	if telegramToken != "" {
		tgBot, err := telegram.NewBot(telegramToken, cmds, gitManager)
		if err != nil {
			log.Printf("Failed to create Telegram bot: %v", err)
		} else {
			if err := tgBot.Start(); err != nil {
				log.Printf("Failed to start Telegram bot: %v", err)
			} else {
				log.Println("Telegram Bot started")
				defer tgBot.Stop()
			}
		}
	}

	log.Printf("Starting server on :%s", *port)
	if err := http.ListenAndServe(":"+*port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// newAIClient builds the configured provider. An empty provider disables
// summary generation instead of failing startup.
func newAIClient(cfg config.AIConfig) (ai.Generator, string, error) {
	switch cfg.Provider {
	case "":
		return nil, "", nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, "", fmt.Errorf("OPENAI_API_KEY environment variable is required when using openai provider")
		}
		client := ai.NewOpenAIClient(key)
		return client, modelOrDefault(cfg.Model, "gpt-4o-mini"), nil
	case "moonshot":
		key := os.Getenv("MOONSHOT_API_KEY")
		if key == "" {
			return nil, "", fmt.Errorf("MOONSHOT_API_KEY environment variable is required when using moonshot provider")
		}
		return ai.NewMoonshotClient(key), modelOrDefault(cfg.Model, "kimi-k2.5"), nil
	case "compat":
		if cfg.Endpoint == "" {
			return nil, "", fmt.Errorf("ai.endpoint is required when using compat provider")
		}
		key := os.Getenv("LLM_API_KEY")
		return ai.NewCompatClient(cfg.Endpoint, key, cfg.Model), cfg.Model, nil
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY environment variable is required when using anthropic provider")
		}
		return ai.NewAnthropicClient(key), modelOrDefault(cfg.Model, "claude-3-5-haiku-latest"), nil
	case "gemini":
		key := os.Getenv("GEMINI_API_KEY")
		if key == "" {
			return nil, "", fmt.Errorf("GEMINI_API_KEY environment variable is required when using gemini provider")
		}
		client, err := ai.NewGeminiClient(context.Background(), key)
		if err != nil {
			return nil, "", err
		}
		return client, modelOrDefault(cfg.Model, "gemini-2.5-flash"), nil
	default:
		return nil, "", fmt.Errorf("unknown AI provider: %s", cfg.Provider)
	}
}

func modelOrDefault(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}

// runSummaryAction generates a summary for the scheduled range and stores
// it the same way the HTTP endpoint does.
func runSummaryAction(ctx context.Context, params string, gen ai.Generator, model string,
	reports *report.Builder, store vault.Store, repo *db.Repository, root string) (string, error) {
	if gen == nil {
		return "", fmt.Errorf("no AI provider configured")
	}

	var p struct {
		Kind string `json:"kind"`
	}
	if params != "" {
		if err := json.Unmarshal([]byte(params), &p); err != nil {
			return "", fmt.Errorf("invalid params: %w", err)
		}
	}
	kind := ai.SummaryKind(p.Kind)

	now := time.Now()
	var rep *report.Report
	switch kind {
	case ai.SummaryMonthly:
		// Summarize the month that just ended
		rep = reports.BuildMonth(now.AddDate(0, -1, 0))
	default:
		kind = ai.SummaryWeekly
		// Summarize the week that just ended
		rep = reports.BuildWeek(now.AddDate(0, 0, -7))
	}
	if rep.RawContent == "" {
		return "no work logs in range", nil
	}

	system, user := ai.SummaryPrompts(kind, rep.RawContent)
	summary, err := gen.Generate(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	startStr := rep.Start.Format(index.DateFormat)
	endStr := rep.End.Format(index.DateFormat)
	note := &vault.Note{
		Path: fmt.Sprintf("%s/summaries/%s %s%s", root, kind, startStr, vault.LogExt),
		Frontmatter: map[string]interface{}{
			"created":     now.Format(index.DateFormat),
			"type":        string(kind) + "-summary",
			"range_start": startStr,
			"range_end":   endStr,
			"model":       model,
		},
		Content: summary,
	}
	if err := vault.WriteNote(store, note); err != nil {
		return "", fmt.Errorf("failed to write summary note: %w", err)
	}
	if err := repo.LogSummary(string(kind), startStr, endStr, model, summary); err != nil {
		log.Printf("Failed to log summary: %v", err)
	}
	return "summary " + startStr + ".." + endStr, nil
}
