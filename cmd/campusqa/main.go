// Command campusqa runs the campus assistant: an HTTP API server or a
// one-shot query from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hzyuan/campusqa-go/internal/adapters/catalog"
	"github.com/hzyuan/campusqa-go/internal/adapters/chatlog"
	"github.com/hzyuan/campusqa-go/internal/adapters/filewatcher"
	"github.com/hzyuan/campusqa-go/internal/adapters/keywords"
	"github.com/hzyuan/campusqa-go/internal/adapters/llm"
	"github.com/hzyuan/campusqa-go/internal/adapters/userstore"
	"github.com/hzyuan/campusqa-go/internal/domain/entities"
	"github.com/hzyuan/campusqa-go/internal/domain/ports"
	"github.com/hzyuan/campusqa-go/internal/domain/usecases"
	"github.com/hzyuan/campusqa-go/internal/infrastructure/config"
	httpserver "github.com/hzyuan/campusqa-go/internal/infrastructure/http"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "campusqa",
		Short: "Campus assistant: document-grounded Q&A for campus life",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.LogLevel(),
			})))
		},
	}
	root.AddCommand(newServeCmd(), newAskCmd())
	return root
}

// assistant bundles the wired pipeline and its stores.
type assistant struct {
	resolver *usecases.QueryResolver
	catalog  *catalog.Catalog
	chatLog  *chatlog.Store
	users    *userstore.Store
}

func buildAssistant(cfg config.Config) (*assistant, error) {
	expander := keywords.NewExpander()
	if cfg.HomophoneTable != "" {
		var err error
		expander, err = keywords.NewExpanderFromFile(cfg.HomophoneTable)
		if err != nil {
			return nil, fmt.Errorf("loading homophone table: %w", err)
		}
	}

	cat := catalog.New(cfg.DataDir, expander)
	completion := llm.NewOpenAIAdapter(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)

	resolver := usecases.NewQueryResolver(
		usecases.NewIntentClassifier(cat),
		usecases.NewResponseComposer(cat, completion, cfg.OpenAIModel),
	)

	logs, err := chatlog.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening chat log: %w", err)
	}
	users, err := userstore.New(cfg.DBPath)
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("opening user store: %w", err)
	}

	return &assistant{resolver: resolver, catalog: cat, chatLog: logs, users: users}, nil
}

func (a *assistant) close() {
	a.chatLog.Close()
	a.users.Close()
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			app, err := buildAssistant(cfg)
			if err != nil {
				return err
			}
			defer app.close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			startTopicWatcher(ctx, cfg, app.catalog)

			server := httpserver.NewServer(app.resolver, app.catalog, app.chatLog, app.users, cfg.Addr)
			if err := server.Start(ctx); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

// startTopicWatcher reloads topic documents edited while the server runs.
// A watcher failure only disables live reload; it never stops the server.
func startTopicWatcher(ctx context.Context, cfg config.Config, cat *catalog.Catalog) {
	watcher, err := filewatcher.NewFSNotifyWatcher(nil)
	if err != nil {
		slog.Warn("topic watcher unavailable", slog.String("error", err.Error()))
		return
	}

	dir := filepath.Join(cfg.DataDir, "data", "topics")
	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		slog.Warn("topic directory not watched",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		watcher.Stop()
		return
	}

	go func() {
		defer watcher.Stop()
		for event := range events {
			if event.Operation == ports.FileDeleted {
				continue
			}
			cat.Reload(event.Path)
		}
	}()
}

func newAskCmd() *cobra.Command {
	var topicID, username string

	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Resolve a single query and print the answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			app, err := buildAssistant(cfg)
			if err != nil {
				return err
			}
			defer app.close()

			ctx := cmd.Context()
			query := args[0]

			var history []entities.ChatMessage
			if username != "" {
				records, err := app.chatLog.Recent(ctx, username, 5)
				if err != nil {
					slog.Warn("chat history load failed", slog.String("error", err.Error()))
				}
				for i := len(records) - 1; i >= 0; i-- {
					history = append(history,
						entities.ChatMessage{Role: entities.RoleUser, Content: records[i].Query},
						entities.ChatMessage{Role: entities.RoleAssistant, Content: records[i].Response},
					)
				}
			}

			answer := app.resolver.Resolve(ctx, query, topicID, history)
			fmt.Println(answer)

			if username != "" {
				if _, err := app.chatLog.Append(ctx, entities.ChatRecord{
					Username: username,
					Query:    query,
					Response: answer,
					Topic:    topicID,
				}); err != nil {
					slog.Warn("chat log append failed", slog.String("error", err.Error()))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&topicID, "topic", "", "restrict retrieval to one topic id")
	cmd.Flags().StringVar(&username, "user", "", "load and record history for this user")
	return cmd
}
