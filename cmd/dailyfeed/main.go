// Command dailyfeed browses the daily AI-enhanced arXiv digests in a terminal.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/csheth/dailyfeed/internal/config"
	"github.com/csheth/dailyfeed/internal/logger"
	"github.com/csheth/dailyfeed/internal/tui"
)

// version is set at build time via ldflags.
var version = "dev"

// flagKeys maps persistent flags onto configuration keys.
var flagKeys = map[string]string{
	"data-url":      config.KeyDataURL,
	"language":      config.KeyLanguage,
	"categories":    config.KeyCategories,
	"prefs":         config.KeyPrefsPath,
	"stats-repo":    config.KeyStatsRepo,
	"fetch-timeout": config.KeyFetchTimeout,
	"log-file":      config.KeyLogFile,
	"log-level":     config.KeyLogLevel,
	"llm-model":     config.KeyLLMModel,
	"llm-endpoint":  config.KeyLLMEndpoint,
	"llm-timeout":   config.KeyLLMTimeout,
	"arxiv-api":     config.KeyArxivAPI,
	"cache-dir":     config.KeyCacheDir,
}

// cli holds the configuration shared by every subcommand of one invocation.
type cli struct {
	v   *viper.Viper
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	config.SetDefaults(c.v)

	root := &cobra.Command{
		Use:   "dailyfeed",
		Short: "Browse daily AI-enhanced arXiv digests",
		Long: `dailyfeed reads the per-day paper batches published by the daily arXiv
AI-enhanced pipeline and shows them as a card grid grouped by category.

Saved keywords and authors (see "dailyfeed prefs") float matching papers to
the top. Run without a subcommand to open the browser.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
		RunE: c.runBrowser,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default: ./dailyfeed.yaml or ~/.config/dailyfeed/config.yaml)")
	flags.String("data-url", "", "base URL or directory of the published feed")
	flags.String("language", "", "language suffix of the data files (eg. Chinese, English)")
	flags.StringSlice("categories", nil, "allowed categories in display order")
	flags.String("prefs", "", "preferences file holding saved keywords and authors")
	flags.String("stats-repo", "", "GitHub repository whose stars and forks are shown")
	flags.Duration("fetch-timeout", 0, "timeout for each network job")
	flags.String("log-file", "", "log file (empty disables logging)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("llm-model", "", "Ollama model used for on-demand AI summaries")
	flags.String("llm-endpoint", "", "Ollama host (eg. http://localhost:11434)")
	flags.Duration("llm-timeout", 0, "deadline for one AI summary")
	flags.String("arxiv-api", "", "arXiv API query endpoint used by fetch")
	flags.String("cache-dir", "", "directory for cached PDFs")
	for flag, key := range flagKeys {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.Flags().Bool("no-alt-screen", false, "disable the alternate screen buffer")

	root.AddCommand(newDatesCmd(c), newExportCmd(c), newFetchCmd(c), newPrefsCmd(c))
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	used, err := config.ReadFile(c.v, cfgFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(c.v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	c.cfg = cfg
	if _, err := logger.Init(cfg.LogFile, cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "logging disabled:", err)
	}
	if used != "" {
		logger.Get().Info("using config file", zap.String("path", used))
	}
	return nil
}

func (c *cli) runBrowser(cmd *cobra.Command, args []string) error {
	a, err := newApp(c.cfg)
	if err != nil {
		return err
	}
	noAlt, _ := cmd.Flags().GetBool("no-alt-screen")

	opts := []tea.ProgramOption{}
	if !noAlt {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(tui.New(a.tuiConfig()), opts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

func main() {
	defer func() { _ = logger.Get().Sync() }()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dailyfeed:", err)
		os.Exit(1)
	}
}
