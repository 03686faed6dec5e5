package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/SundayYogurt/directory_service/config"
	"github.com/SundayYogurt/directory_service/infra/queue"
	"github.com/SundayYogurt/directory_service/infra/storage"
	"github.com/SundayYogurt/directory_service/internal/api"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/notify"
	"github.com/SundayYogurt/directory_service/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
)

func main() {
	// ---------- Load Config ----------
	cfg := config.LoadConfig()
	config.SetupLogging(cfg)

	root := &cobra.Command{
		Use:           "directory",
		Short:         "Event directory back-office service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(cfg), notifyCmd(cfg), seedAdminCmd(cfg))

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func serveCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return api.StartServer(cfg)
		},
	}
}

func notifyCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Mail staff members when their proposals are resolved",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.KafkaBroker == "" {
				return errors.New("KAFKA_BROKER is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := storage.Open(cfg)
			if err != nil {
				return err
			}

			mailer := notify.NewSMTPMailer(notify.SMTPConfig{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				User:     cfg.SMTPUser,
				Password: cfg.SMTPPassword,
				From:     cfg.MailFrom,
				FromName: cfg.MailFromName,
			})
			handler := notify.NewHandler(repository.NewUserRepository(db), mailer)

			// ---------- Init Kafka Consumer ----------
			consumer := queue.NewKafkaConsumer(
				cfg.KafkaBroker,
				cfg.KafkaTopic,
				cfg.KafkaGroupID,
				cfg.KafkaUsername,
				cfg.KafkaPassword,
				handler,
			)
			logrus.WithFields(logrus.Fields{
				"broker":   cfg.KafkaBroker,
				"topic":    cfg.KafkaTopic,
				"group_id": cfg.KafkaGroupID,
			}).Info("notifier listening for review events")
			return consumer.Listen(ctx)
		},
	}
}

func seedAdminCmd(cfg config.Config) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create or reset the admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			db, err := storage.Open(cfg)
			if err != nil {
				return err
			}
			if err := storage.Migrate(ctx, db); err != nil {
				return err
			}
			if err := storage.SeedDefaults(ctx, db); err != nil {
				return err
			}
			_, err = storage.SeedUser(ctx, db, email, password, domain.RoleAdmin)
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", cfg.AdminEmail, "admin email (ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", cfg.AdminPassword, "admin password (ADMIN_PASSWORD)")
	return cmd
}
