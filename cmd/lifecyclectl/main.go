// Command lifecyclectl - служебные операции над хранилищем жизненного цикла:
// миграции, ручной проход эскалации, очередь модерации и выпуск тестовых токенов.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ignatzorin/hiring-lifecycle/internal/app"
	"github.com/ignatzorin/hiring-lifecycle/internal/config"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:           "lifecyclectl",
	Short:         "Служебные команды сервиса жизненного цикла наймов",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "вывод в JSON")
	rootCmd.AddCommand(newMigrateCmd(), newSweepCmd(), newAnalysesCmd(), newTokenCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig читает конфигурацию и настраивает логгер для CLI.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel)
	logger.SetTextFormatter()
	logger.L().SetOutput(os.Stderr)
	return cfg, nil
}

// withStorage открывает хранилище без применения миграций и закрывает его после fn.
func withStorage(ctx context.Context, fn func(cfg *config.Config, store *app.Storage) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := app.OpenStorage(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
