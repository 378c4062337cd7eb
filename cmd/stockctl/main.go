// stockctl is the admin CLI for the stock data service: migrations, backups,
// ad-hoc ingest and strategy scans, all against the same config the server uses.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantrey/stock-data-service/internal/backup"
	"github.com/quantrey/stock-data-service/internal/cache"
	"github.com/quantrey/stock-data-service/internal/config"
	"github.com/quantrey/stock-data-service/internal/database"
	"github.com/quantrey/stock-data-service/internal/ingest"
	"github.com/quantrey/stock-data-service/internal/provider"
	"github.com/quantrey/stock-data-service/internal/strategy"
)

var (
	flagDate  string
	flagCode  string
	flagStart string
	flagEnd   string

	migrationsPath string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stockctl",
		Short:         "Admin CLI for the stock data service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&migrationsPath, "migrations", "db/migrations", "path to migration files")

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newBackupCmd())
	root.AddCommand(newIngestCmd())
	root.AddCommand(newBackfillCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newCompaniesCmd())
	return root
}

// openDB loads config, creates the database if needed and connects
func openDB() (*config.Config, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := database.EnsureDatabase(cfg.Database.ServerDSN(), cfg.Database.DBName); err != nil {
		return nil, nil, err
	}
	db, err := database.New(cfg.Database.DSN())
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newIngestService(cfg *config.Config, db *database.DB, logger *zap.Logger) *ingest.Service {
	client := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.Token)
	barCache := cache.NewDailyBarCache(nil, 0, db)
	return ingest.NewService(client, db, barCache, logger)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database if needed and apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RunMigrations(migrationsPath); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Dump the database with mysqldump into a timestamped file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger, _ := zap.NewProduction()
			defer logger.Sync()

			runner := backup.NewRunner(cfg.Database, cfg.Backup, logger)
			path, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch daily bars for a trade date, optionally one stock",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagDate == "" {
				return fmt.Errorf("--date is required (YYYYMMDD)")
			}

			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			logger, _ := zap.NewProduction()
			defer logger.Sync()
			svc := newIngestService(cfg, db, logger)

			var count int
			if flagCode != "" {
				count, err = svc.IngestDaily(cmd.Context(), flagCode, flagDate)
			} else {
				count, err = svc.IngestDailyByDate(cmd.Context(), flagDate)
			}
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d bars\n", count)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagDate, "date", "", "trade date (YYYYMMDD)")
	cmd.Flags().StringVar(&flagCode, "code", "", "ts_code, e.g. 000001.SZ")

	cmd.AddCommand(newIngestMonthlyCmd())
	cmd.AddCommand(newIngestIndexCmd())
	return cmd
}

func newIngestMonthlyCmd() *cobra.Command {
	var code, start, end string
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Fetch one stock's month-end bars over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if code == "" {
				return fmt.Errorf("--code is required")
			}

			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			logger, _ := zap.NewProduction()
			defer logger.Sync()
			svc := newIngestService(cfg, db, logger)

			count, err := svc.IngestMonthly(cmd.Context(), code, start, end)
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d monthly bars\n", count)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "ts_code, e.g. 000001.SZ")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYYMMDD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYYMMDD)")
	return cmd
}

func newIngestIndexCmd() *cobra.Command {
	var code, start, end string
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Fetch an index's daily bars over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			logger, _ := zap.NewProduction()
			defer logger.Sync()
			svc := newIngestService(cfg, db, logger)

			count, err := svc.IngestIndexDaily(cmd.Context(), code, start, end)
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d index bars\n", count)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", strategy.CSI300IndexCode, "index ts_code")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYYMMDD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYYMMDD)")
	return cmd
}

func newBackfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Fetch one stock's daily bars over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagCode == "" || flagStart == "" || flagEnd == "" {
				return fmt.Errorf("--code, --start and --end are required")
			}

			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			logger, _ := zap.NewProduction()
			defer logger.Sync()
			svc := newIngestService(cfg, db, logger)

			count, err := svc.BackfillDaily(cmd.Context(), flagCode, flagStart, flagEnd)
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d bars\n", count)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagCode, "code", "", "ts_code, e.g. 000001.SZ")
	cmd.Flags().StringVar(&flagStart, "start", "", "start date (YYYYMMDD)")
	cmd.Flags().StringVar(&flagEnd, "end", "", "end date (YYYYMMDD)")
	return cmd
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "scan <strategy>",
		Short:     "Run a strategy scan and store its signals",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{strategy.NameRSI, strategy.NameMomentum, strategy.NameCSI300RS},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			logger, _ := zap.NewProduction()
			defer logger.Sync()

			scanner := strategy.NewScanner(db, nil, logger,
				strategy.NewRSIStrategy(db, 0, 0),
				strategy.NewMomentumStrategy(db, 0, 0),
				strategy.NewCSI300RSStrategy(db, 0),
			)

			signals, err := scanner.Scan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, s := range signals {
				fmt.Printf("%3d  %-12s %-10s %s\n", s.Rank, s.TsCode, s.Score.String(), s.Status)
			}
			return nil
		},
	}
}

func newCompaniesCmd() *cobra.Command {
	companies := &cobra.Command{
		Use:   "companies",
		Short: "Manage the listed-company roster",
	}
	companies.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Refresh the roster from the provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			logger, _ := zap.NewProduction()
			defer logger.Sync()
			svc := newIngestService(cfg, db, logger)

			count, err := svc.SyncCompanies(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("synced %d companies\n", count)
			return nil
		},
	})
	return companies
}
