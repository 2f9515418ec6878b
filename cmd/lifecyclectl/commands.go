package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/hiring-lifecycle/internal/app"
	"github.com/ignatzorin/hiring-lifecycle/internal/auth"
	"github.com/ignatzorin/hiring-lifecycle/internal/config"
	"github.com/ignatzorin/hiring-lifecycle/internal/db"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/compliance"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/moderation"
)

var errNoDatabase = errors.New("команда требует STORAGE_DRIVER=postgres")

// systemActor - от его имени CLI читает очередь модерации.
var systemActor = entity.Actor{Role: valueobject.RoleAdmin, Email: "lifecyclectl"}

func newMigrateCmd() *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции базы",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd.Context(), func(cfg *config.Config, store *app.Storage) error {
				if store.DB == nil {
					return errNoDatabase
				}
				if statusOnly {
					list, err := db.PendingMigrations(cmd.Context(), store.DB, cfg.MigrationsPath)
					if err != nil {
						return err
					}
					if jsonOutput {
						return printJSON(cmd.OutOrStdout(), list)
					}
					tw := table.NewWriter()
					tw.SetOutputMirror(cmd.OutOrStdout())
					tw.AppendHeader(table.Row{"Migration", "Applied"})
					for _, m := range list {
						tw.AppendRow(table.Row{m.Name, m.Applied})
					}
					tw.Render()
					return nil
				}

				applied, err := db.RunMigrations(cmd.Context(), store.DB, cfg.MigrationsPath)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), applied)
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "нет новых миграций")
					return nil
				}
				for _, name := range applied {
					fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "только показать состояние миграций")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Выполнить один проход эскалации просроченных обязательств",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd.Context(), func(cfg *config.Config, store *app.Storage) error {
				if store.DB == nil {
					return errNoDatabase
				}
				// события пишутся в лог: у CLI нет подключённых клиентов
				uc := app.NewUseCases(app.Deps{
					Repos:      store.Repos,
					Notifier:   usecase.LoggingNotifier{},
					Escalation: app.EscalationPolicy(cfg.Escalation),
					SweepBatch: batch,
				})
				report, err := uc.Compliances.Sweep.Execute(cmd.Context())
				if err != nil {
					return err
				}
				return renderSweepReport(cmd, report)
			})
		},
	}
	cmd.Flags().IntVar(&batch, "batch", compliance.DefaultSweepBatch, "сколько записей обработать за проход")
	return cmd
}

func renderSweepReport(cmd *cobra.Command, report *compliance.SweepReport) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), report)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.AppendHeader(table.Row{"Scanned", "Escalated", "Finished", "Skipped", "Failed"})
	tw.AppendRow(table.Row{report.Scanned, report.Escalated, report.Finished, report.Skipped, report.Failed})
	tw.Render()
	return nil
}

func newAnalysesCmd() *cobra.Command {
	var (
		all            bool
		classification string
		limit          int
	)
	cmd := &cobra.Command{
		Use:   "analyses",
		Short: "Показать очередь модерации",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd.Context(), func(cfg *config.Config, store *app.Storage) error {
				input := moderation.ListAnalysesInput{
					Actor:          systemActor,
					Classification: classification,
					Page:           repository.Page{Limit: limit},
				}
				if !all {
					unresolved := false
					input.Resolved = &unresolved
				}
				list, total, err := moderation.NewListAnalysesUseCase(store.Repos.Analyses).Execute(cmd.Context(), input)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), list)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"ID", "User", "Classification", "Reports", "Resolved", "Created"})
				for _, a := range list {
					tw.AppendRow(table.Row{a.ID, a.UserID, a.Classification, a.TotalReports, a.Resolved, a.CreatedAt.Format(time.DateTime)})
				}
				tw.AppendFooter(table.Row{"", "", "", "", "total", total})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "включая разрешённые")
	cmd.Flags().StringVar(&classification, "classification", "", "фильтр по классификации")
	cmd.Flags().IntVar(&limit, "limit", repository.DefaultPageLimit, "сколько записей показать")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		email  string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Выпустить access токен для локальной проверки API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("выпуск токенов недоступен в production")
			}
			actor, err := tokenActor(userID, role, email)
			if err != nil {
				return err
			}
			token, err := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL).Issue(actor)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]string{"user_id": actor.UserID.String(), "token": token})
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "id пользователя (по умолчанию новый)")
	cmd.Flags().StringVar(&role, "role", string(valueobject.RoleClient), "роль: client, provider, moderator, admin")
	cmd.Flags().StringVar(&email, "email", "", "email пользователя")
	return cmd
}

func tokenActor(rawID, role, email string) (entity.Actor, error) {
	id := uuid.New()
	if rawID != "" {
		parsed, err := uuid.Parse(rawID)
		if err != nil {
			return entity.Actor{}, fmt.Errorf("некорректный --user: %w", err)
		}
		id = parsed
	}
	r := valueobject.Role(role)
	if !r.IsValid() {
		return entity.Actor{}, fmt.Errorf("неизвестная роль %q", role)
	}
	return entity.Actor{UserID: id, Role: r, Email: email}, nil
}

