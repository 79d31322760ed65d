package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/linguist-api/internal/config"
	"github.com/phrazzld/linguist-api/internal/platform/database"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	envFile    string
}

func (f *globalFlags) options() config.Options {
	return config.Options{ConfigFile: f.configFile, EnvFile: f.envFile}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "linguist",
		Short:        "Mastery tracking and spaced repetition for language learners",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "path to a YAML config file (default ./config.yaml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "path to a dotenv file (default ./.env)")

	root.AddCommand(
		newServeCommand(flags),
		newMigrateCommand(flags),
		newVocabCommand(flags),
		newVersionCommand(),
	)
	return root
}

func newServeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
}

func newMigrateCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status|version|reset]",
		Short: "Run database migrations",
		Args:  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{
			database.MigrateUp,
			database.MigrateDown,
			database.MigrateStatus,
			database.MigrateVersion,
			database.MigrateReset,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig(flags.options())
			if err != nil {
				return err
			}
			logger, err := setupAppLogger(cfg)
			if err != nil {
				return err
			}
			return runMigrations(cmd.Context(), cfg, args[0], logger)
		},
	}
}

func newVocabCommand(flags *globalFlags) *cobra.Command {
	vocab := &cobra.Command{
		Use:   "vocab",
		Short: "Manage vocabulary cards",
	}

	var in importFileInput
	var learner string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import vocabulary from an .xlsx or .csv file",
		Long: "Reads word, translation and an optional context note from columns A to C.\n" +
			"The first row is a header. Words the learner already has are skipped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(learner)
			if err != nil {
				return fmt.Errorf("invalid --learner %q: %w", learner, err)
			}
			in.LearnerID = id

			app, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.cleanup()

			result, err := app.importVocabularyFile(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported=%d skipped=%d invalid=%d\n",
				result.Imported, result.Skipped, result.Invalid)
			return err
		},
	}
	importCmd.Flags().StringVar(&learner, "learner", "", "learner ID")
	importCmd.Flags().StringVar(&in.Path, "file", "", "vocabulary file (.xlsx or .csv)")
	importCmd.Flags().StringVar(&in.Sheet, "sheet", "", "worksheet name (default first sheet)")
	importCmd.Flags().StringVar(&in.Topic, "topic", "", "context note for rows without one")
	_ = importCmd.MarkFlagRequired("learner")
	_ = importCmd.MarkFlagRequired("file")

	vocab.AddCommand(importCmd)
	return vocab
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}

// bootstrap loads configuration, sets up logging, opens the database and
// builds the application.
func bootstrap(ctx context.Context, flags *globalFlags) (*application, error) {
	cfg, err := loadAppConfig(flags.options())
	if err != nil {
		return nil, err
	}
	logger, err := setupAppLogger(cfg)
	if err != nil {
		return nil, err
	}
	logAppConfig(cfg, logger)

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	app, err := newApplication(cfg, logger, db, nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return app, nil
}
