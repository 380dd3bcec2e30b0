package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"finsight/pkg/core/agent"
	"finsight/pkg/core/knowledge"
	"finsight/pkg/core/ledger"
	"finsight/pkg/core/llm"
	"finsight/pkg/core/pipeline"
	"finsight/pkg/core/report"
	"finsight/pkg/core/store"
)

var (
	askPeriod  string
	askConfig  string
	askKB      string
	askDemo    bool
	askNoLLM   bool
	askJSON    bool
	askHTML    bool
	askTimeout time.Duration
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one ledger question and print the report",
	Long: `Resolves the period, classifies the question, runs the receivable and
payable agents as needed, and prints the synthesized report.

With --demo the question runs against a small in-memory ledger instead of
the database, which is useful to try the tool without any setup.`,
	Example: `  # Against the database configured in DATABASE_URL
  finsight ask "How is my DSO this month?"

  # Pin the period from outside the question
  finsight ask --period 2025-03 "executive report"

  # No database needed
  finsight ask --demo "Which invoices are due this week?"

  # Deterministic narrative only, no model call
  finsight ask --demo --no-llm "How is my cash conversion cycle?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askPeriod, "period", "", "pin the period as YYYY-MM, wins over the question text")
	askCmd.Flags().StringVar(&askConfig, "config", "config/agents.yaml", "provider configuration file")
	askCmd.Flags().StringVar(&askKB, "kb", "", "knowledge base YAML, builtin rules when empty")
	askCmd.Flags().BoolVar(&askDemo, "demo", false, "run against a seeded in-memory ledger")
	askCmd.Flags().BoolVar(&askNoLLM, "no-llm", false, "skip the model, deterministic narrative only")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full outcome as JSON")
	askCmd.Flags().BoolVar(&askHTML, "html", false, "print the report as HTML")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall run timeout")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	log := rootLog.With().Str("component", "ask").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	ledgerStore, err := openStore(ctx)
	if err != nil {
		return err
	}

	var provider llm.Provider
	if !askNoLLM {
		cfg, err := agent.LoadConfig(askConfig)
		if err != nil {
			return err
		}
		manager := agent.NewManager(cfg, log)
		provider = manager.ProviderFor("executive")
		log.Info().Str("provider", provider.Name()).Msg("provider selected")
	}

	kb, err := loadKB()
	if err != nil {
		return err
	}

	router := pipeline.NewRouter(ledgerStore, provider, kb, log)
	outcome := router.Run(ctx, pipeline.Query{Question: question, Period: askPeriod})

	switch {
	case askJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	case askHTML:
		html, err := report.RenderHTML(outcome.Report)
		if err != nil {
			return err
		}
		fmt.Println(html)
		return nil
	default:
		fmt.Println(outcome.Markdown)
		return nil
	}
}

func openStore(ctx context.Context) (ledger.Store, error) {
	if askDemo {
		return seedDemoStore(time.Now()), nil
	}
	if err := store.InitDB(ctx); err != nil {
		return nil, fmt.Errorf("database unavailable, try --demo: %w", err)
	}
	return store.NewPgLedgerStore(), nil
}

func loadKB() (*knowledge.Registry, error) {
	if askKB == "" {
		return knowledge.Default(), nil
	}
	return knowledge.Load(askKB)
}
