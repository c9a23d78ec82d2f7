package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vonshlovens/siteqa/internal/config"
	"github.com/vonshlovens/siteqa/internal/remote"
	"github.com/vonshlovens/siteqa/internal/search"
	"github.com/vonshlovens/siteqa/internal/store"
	"github.com/vonshlovens/siteqa/internal/sync"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "siteqa",
		Short:   "Site Q/A knowledge base with bidirectional sync",
		Long:    `A local-first Q/A knowledge base for site support questions that syncs bidirectionally with a shared PostgreSQL backend.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(
		pullCmd(),
		publishCmd(),
		statusCmd(),
		daemonCmd(),
		listCmd(),
		addCmd(),
		editCmd(),
		removeCmd(),
		approveCmd(),
		searchCmd(),
		similarCmd(),
		initCmd(),
		migrateCmd(),
		resetWatermarkCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env bundles everything a sync-facing command needs
type env struct {
	cfg     *config.Config
	dataDir string
	store   *store.Store
	client  *remote.Client
	engine  *sync.Engine
}

func (e *env) close() {
	if e.client != nil {
		e.client.Close()
	}
	if e.store != nil {
		e.store.Close()
	}
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	st, err := store.Open(filepath.Join(dataDir, "siteqa.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	client, err := remote.New(ctx, &cfg.Remote)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to configure remote client: %w", err)
	}

	engine := sync.NewEngine(st, client, sync.Options{
		DataDir:      dataDir,
		ExcludeSites: cfg.Publish.ExcludeSites,
	})

	return &env{cfg: cfg, dataDir: dataDir, store: st, client: client, engine: engine}, nil
}

// openLocal is openEnv without the remote client, for commands that only
// touch the local store
func openLocal() (*config.Config, *store.Store, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}
	st, err := store.Open(filepath.Join(dataDir, "siteqa.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local store: %w", err)
	}
	return cfg, st, nil
}

func pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Download records from the server into the local store",
		Long:  `Fetches all live records from the server and inserts or updates them locally. Never deletes local records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			var bar *progressbar.ProgressBar
			unsubscribe := e.engine.Subscribe(func(s sync.State) {
				if s.Total == 0 {
					return
				}
				if bar == nil {
					bar = progressbar.NewOptions(s.Total,
						progressbar.OptionSetDescription("Pulling records"),
						progressbar.OptionShowCount(),
						progressbar.OptionSetWidth(40),
						progressbar.OptionClearOnFinish(),
					)
				}
				bar.Set(s.Synced)
			})
			defer unsubscribe()

			e.engine.Pull(ctx, false)
			if bar != nil {
				bar.Finish()
			}

			state := e.engine.State()
			switch state.Phase {
			case sync.PhaseOK:
				fmt.Println(state.Message)
				return nil
			case sync.PhaseOffline:
				fmt.Println(state.Message)
				return nil
			default:
				return fmt.Errorf("pull failed: %s", state.Message)
			}
		},
	}
}

func publishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Push local changes to the server",
		Long:  `Diffs the local store against the server and applies creates, updates and soft-deletes. Aborts without mutating anything if the server changed since the last pull.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			res := e.engine.Publish(ctx)
			if res.Err != "" {
				return fmt.Errorf("publish failed: %s", res.Err)
			}
			if !res.OK {
				fmt.Printf("Publish blocked: %d record(s) changed on the server since your last pull.\n\n", len(res.Conflicts))
				fmt.Printf("%-10s %-38s %s\n", "LOCAL ID", "REMOTE ID", "CHANGED AT")
				for _, c := range res.Conflicts {
					fmt.Printf("%-10d %-38s %s\n", c.LocalID, c.RemoteID, c.RemoteUpdatedAt.Format(time.RFC3339))
				}
				fmt.Println("\nRun `siteqa pull` to review the server versions, then publish again.")
				return fmt.Errorf("%d conflict(s)", len(res.Conflicts))
			}

			fmt.Printf("Published: %d created, %d updated, %d deleted", res.Created, res.Updated, res.Deleted)
			if res.Skipped > 0 {
				fmt.Printf(", %d skipped", res.Skipped)
			}
			if res.Failed > 0 {
				fmt.Printf(", %d failed", res.Failed)
			}
			fmt.Println()
			if res.Failed > 0 {
				return fmt.Errorf("%d mutation(s) failed, see the log", res.Failed)
			}
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connection status and sync info",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			fmt.Println("=== SiteQA Status ===")
			if err := e.client.Probe(ctx); err != nil {
				fmt.Println("Server: unreachable")
				fmt.Printf("  Error: %v\n", err)
			} else {
				fmt.Println("Server: connected")
				fmt.Printf("  Host: %s\n", e.cfg.Remote.Host)
				fmt.Printf("  Database: %s\n", e.cfg.Remote.Database)
				if e.cfg.Remote.HasServiceAccount() {
					fmt.Printf("  Service account: %s\n", e.cfg.Remote.Identity)
				} else {
					fmt.Println("  Service account: none (read-only)")
				}
			}
			fmt.Println()

			total, unlinked, err := e.store.Count(ctx)
			if err != nil {
				return fmt.Errorf("failed to count local records: %w", err)
			}
			fmt.Printf("Local store: %s\n", filepath.Join(e.dataDir, "siteqa.db"))
			fmt.Printf("  Records: %d\n", total)
			fmt.Printf("  Unpublished: %d\n", unlinked)

			if last, ok := e.engine.LastSync(); ok {
				fmt.Printf("  Last sync: %s\n", last.Format(time.RFC3339))
			} else {
				fmt.Println("  Last sync: never")
			}
			return nil
		},
	}
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run periodic background pulls",
		Long:  `Pulls from the server on a fixed interval so the local store stays fresh. Reloads the interval when the config file changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			interval := time.Duration(e.cfg.Sync.IntervalSeconds) * time.Second
			if interval <= 0 {
				interval = 5 * time.Minute
			}

			intervalCh := make(chan time.Duration, 1)
			if err := config.Watch(cfgFile, func(cfg *config.Config) {
				next := time.Duration(cfg.Sync.IntervalSeconds) * time.Second
				if next > 0 {
					intervalCh <- next
				}
			}); err != nil {
				slog.Warn("config watch unavailable", "error", err)
			}

			slog.Info("performing initial pull")
			e.engine.Pull(ctx, false)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			slog.Info("daemon started", "interval", interval)
			fmt.Println("Pulling on a schedule. Press Ctrl+C to stop.")

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-sigCh:
					slog.Info("shutting down...")
					return nil

				case next := <-intervalCh:
					if next != interval {
						interval = next
						ticker.Reset(interval)
						slog.Info("sync interval updated", "interval", interval)
					}

				case <-ticker.C:
					if e.engine.State().Phase.InFlight() {
						slog.Debug("previous sync still running, skipping tick")
						continue
					}
					e.engine.Pull(ctx, false)
				}
			}
		},
	}
}

func listCmd() *cobra.Command {
	var site string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List local records",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			_, st, err := openLocal()
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.ListAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to list records: %w", err)
			}

			fmt.Printf("%-6s %-3s %-3s %-20s %-15s %s\n", "ID", "PUB", "APR", "SITE", "CATEGORY", "QUESTION")
			for _, r := range records {
				if site != "" && !strings.EqualFold(r.SiteName, site) {
					continue
				}
				fmt.Printf("%-6d %-3s %-3s %-20s %-15s %s\n",
					r.LocalID, yesNo(r.RemoteID != nil), yesNo(r.Approved),
					truncate(r.SiteName, 20), truncate(r.Category, 15), truncate(r.Question, 60))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&site, "site", "", "only show records for this site")
	return cmd
}

func addCmd() *cobra.Command {
	var f store.Fields
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a record to the local store",
		Long:  `Adds a question/answer record locally. It reaches the server on the next publish.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			for name, v := range map[string]string{
				"site": f.SiteName, "category": f.Category, "subcategory": f.Subcategory,
				"question": f.Question, "answer": f.Answer,
			} {
				if strings.TrimSpace(v) == "" {
					return fmt.Errorf("--%s is required and must not be blank", name)
				}
			}

			_, st, err := openLocal()
			if err != nil {
				return err
			}
			defer st.Close()

			id, err := st.Insert(ctx, f)
			if err != nil {
				return fmt.Errorf("failed to add record: %w", err)
			}
			fmt.Printf("Added record %d. Run `siteqa publish` to share it.\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.SiteName, "site", "", "site name")
	cmd.Flags().StringVar(&f.Category, "category", "", "category")
	cmd.Flags().StringVar(&f.Subcategory, "subcategory", "", "subcategory")
	cmd.Flags().StringVar(&f.Question, "question", "", "question text")
	cmd.Flags().StringVar(&f.Answer, "answer", "", "answer text")
	cmd.Flags().StringVar(&f.AdditionalInfo, "info", "", "additional info")
	cmd.Flags().BoolVar(&f.Approved, "approved", false, "mark as approved")
	return cmd
}

func editCmd() *cobra.Command {
	var f store.Fields
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a local record",
		Long:  `Changes the given fields of a local record. Only flags you pass are changed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q", args[0])
			}

			_, st, err := openLocal()
			if err != nil {
				return err
			}
			defer st.Close()

			current, err := st.GetByLocalID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load record: %w", err)
			}
			if current == nil {
				return fmt.Errorf("no record with id %d", id)
			}

			next := store.Fields{
				SiteName:       current.SiteName,
				Category:       current.Category,
				Subcategory:    current.Subcategory,
				Question:       current.Question,
				Answer:         current.Answer,
				AdditionalInfo: current.AdditionalInfo,
				Approved:       current.Approved,
			}
			flags := cmd.Flags()
			if flags.Changed("site") {
				next.SiteName = f.SiteName
			}
			if flags.Changed("category") {
				next.Category = f.Category
			}
			if flags.Changed("subcategory") {
				next.Subcategory = f.Subcategory
			}
			if flags.Changed("question") {
				next.Question = f.Question
			}
			if flags.Changed("answer") {
				next.Answer = f.Answer
			}
			if flags.Changed("info") {
				next.AdditionalInfo = f.AdditionalInfo
			}
			if flags.Changed("approved") {
				next.Approved = f.Approved
			}

			if _, err := st.UpdateByLocalID(ctx, id, next); err != nil {
				return fmt.Errorf("failed to update record: %w", err)
			}
			fmt.Printf("Updated record %d.\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.SiteName, "site", "", "site name")
	cmd.Flags().StringVar(&f.Category, "category", "", "category")
	cmd.Flags().StringVar(&f.Subcategory, "subcategory", "", "subcategory")
	cmd.Flags().StringVar(&f.Question, "question", "", "question text")
	cmd.Flags().StringVar(&f.Answer, "answer", "", "answer text")
	cmd.Flags().StringVar(&f.AdditionalInfo, "info", "", "additional info")
	cmd.Flags().BoolVar(&f.Approved, "approved", false, "mark as approved")
	return cmd
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a local record",
		Long:  `Removes a record from the local store. If it was published, the next publish soft-deletes it on the server.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q", args[0])
			}

			_, st, err := openLocal()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.GetByLocalID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load record: %w", err)
			}
			if rec == nil {
				return fmt.Errorf("no record with id %d", id)
			}

			if _, err := st.DeleteByLocalID(ctx, id); err != nil {
				return fmt.Errorf("failed to remove record: %w", err)
			}
			if rec.RemoteID != nil {
				fmt.Printf("Removed record %d. Run `siteqa publish` to delete it on the server too.\n", id)
			} else {
				fmt.Printf("Removed record %d.\n", id)
			}
			return nil
		},
	}
}

func approveCmd() *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Mark a record as approved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q", args[0])
			}

			_, st, err := openLocal()
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.SetApproval(ctx, id, !revoke)
			if err != nil {
				return fmt.Errorf("failed to set approval: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("no record with id %d", id)
			}
			if revoke {
				fmt.Printf("Record %d is no longer approved.\n", id)
			} else {
				fmt.Printf("Record %d approved.\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke approval instead")
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		approvedOnly bool
		limit        int
		rebuild      bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search over local records",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			_, st, err := openLocal()
			if err != nil {
				return err
			}
			defer st.Close()

			if rebuild {
				if err := st.RebuildFTS(ctx); err != nil {
					return fmt.Errorf("failed to rebuild search index: %w", err)
				}
				fmt.Println("Search index rebuilt.")
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("provide a query, or --rebuild")
			}

			records, err := st.Search(ctx, strings.Join(args, " "), approvedOnly, limit)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			printMatches(records)
			return nil
		},
	}
	cmd.Flags().BoolVar(&approvedOnly, "approved", false, "only search approved records")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "rebuild the search index and exit")
	return cmd
}

func similarCmd() *cobra.Command {
	var (
		approvedOnly bool
		max          int
		threshold    float64
	)
	cmd := &cobra.Command{
		Use:   "similar <question>",
		Short: "Find records similar to a question",
		Long:  `Ranks stored questions by relevance to the given one. Useful for spotting duplicates before adding a record.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			_, st, err := openLocal()
			if err != nil {
				return err
			}
			defer st.Close()

			matches, err := search.Similar(ctx, st, search.LexicalScorer{}, strings.Join(args, " "), search.Options{
				Max:          max,
				Threshold:    threshold,
				ApprovedOnly: approvedOnly,
			})
			if err != nil {
				return fmt.Errorf("similarity search failed: %w", err)
			}

			if len(matches) == 0 {
				fmt.Println("No similar records found.")
				return nil
			}
			for _, m := range matches {
				fmt.Printf("[%.2f] #%-5d %s / %s\n        Q: %s\n        A: %s\n",
					m.Score, m.Record.LocalID, m.Record.SiteName, m.Record.Category,
					truncate(m.Record.Question, 100), truncate(m.Record.Answer, 100))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&approvedOnly, "approved", false, "only consider approved records")
	cmd.Flags().IntVar(&max, "max", 5, "maximum number of matches")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.2, "minimum relevance score")
	return cmd
}

// starterConfig mirrors the mapstructure layout of config.Config
type starterConfig struct {
	DataDir string `yaml:"data_dir,omitempty"`
	Remote  struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		SSLMode  string `yaml:"sslmode"`
		Identity string `yaml:"identity"`
		Secret   string `yaml:"secret"`
	} `yaml:"remote"`
	Sync struct {
		IntervalSeconds int `yaml:"interval_s"`
	} `yaml:"sync"`
	Publish struct {
		ExcludeSites []string `yaml:"exclude_sites"`
	} `yaml:"publish"`
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				var err error
				path, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			var sc starterConfig
			sc.Remote.Host = "qa.example.com"
			sc.Remote.Port = 5432
			sc.Remote.User = "qa_reader"
			sc.Remote.Password = "${SITEQA_READ_PASSWORD}"
			sc.Remote.Database = "siteqa"
			sc.Remote.SSLMode = "require"
			sc.Remote.Identity = "qa_editor"
			sc.Remote.Secret = "${SITEQA_SECRET}"
			sc.Sync.IntervalSeconds = 300
			sc.Publish.ExcludeSites = []string{}

			data, err := yaml.Marshal(&sc)
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}

			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err := os.WriteFile(path, data, 0600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			fmt.Printf("Config written to: %s\n", path)
			fmt.Println("\nSet the credential environment variables:")
			fmt.Println("  export SITEQA_READ_PASSWORD='...'")
			fmt.Println("  export SITEQA_SECRET='...'")
			fmt.Println("\nTo test the connection, run: siteqa status")
			fmt.Println("To fetch the shared records, run: siteqa pull")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func migrateCmd() *cobra.Command {
	var showStatus bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run server schema migrations",
		Long:  `Applies the embedded schema migrations to the server database. Requires service account credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			client, err := remote.New(ctx, &cfg.Remote)
			if err != nil {
				return fmt.Errorf("failed to configure remote client: %w", err)
			}
			defer client.Close()

			if showStatus {
				return client.MigrationStatus(ctx)
			}
			if err := client.RunMigrations(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("Migrations completed successfully.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&showStatus, "status", false, "show migration status instead of applying")
	return cmd
}

func resetWatermarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-watermark",
		Short: "Forget the last sync time",
		Long:  `Discards the last-sync timestamp so the next publish re-checks every record against the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			dataDir, err := config.EnsureDataDir(cfg)
			if err != nil {
				return fmt.Errorf("failed to prepare data directory: %w", err)
			}
			if err := sync.NewWatermark(dataDir).Reset(); err != nil {
				return fmt.Errorf("failed to reset watermark: %w", err)
			}
			fmt.Println("Sync watermark cleared.")
			return nil
		},
	}
}

func printMatches(records []store.Record) {
	if len(records) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, r := range records {
		fmt.Printf("#%-5d %s / %s / %s\n       Q: %s\n       A: %s\n",
			r.LocalID, r.SiteName, r.Category, r.Subcategory,
			truncate(r.Question, 100), truncate(r.Answer, 100))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
