package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/labgrader/internal/grader"
	"github.com/pavelanni/labgrader/internal/llm"
	"github.com/pavelanni/labgrader/internal/llm/prompts"
	"github.com/pavelanni/labgrader/internal/model"
	"github.com/pavelanni/labgrader/internal/rubric"
	"github.com/pavelanni/labgrader/internal/sheet"
	"github.com/pavelanni/labgrader/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "labgrader",
		Short: "LLM-assisted grading for lab exam submissions",
	}

	grade := gradeCmd()
	root.AddCommand(grade, exportCmd())

	// Make "grade" the default when no subcommand is given.
	root.RunE = grade.RunE

	// Register grade flags on root so bare `labgrader --input ...` still works.
	root.Flags().AddFlagSet(grade.Flags())

	return root
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade all submissions and write the results workbook",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "submissions.xlsx", "Submissions workbook path")
	f.StringP("output", "o", "exam_results.xlsx", "Results workbook path")
	f.String("db", "labgrader.db", "SQLite run-archive path (empty to disable archiving)")
	f.StringSlice("cohorts", []string{"WNL8", "WNL10"}, "Section codes to grade")
	f.String("policy", string(prompts.PolicyStrict), "Grading prompt policy (strict, lenient)")
	f.String("llm-url", "https://inference.do-ai.run/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for LLM (or set LABGRADER_LLM_KEY)")
	f.String("llm-model", "llama3.3-70b-instruct", "LLM model name")
	f.Int("max-tokens", llm.DefaultMaxTokens, "Maximum completion tokens per grading call")
	f.Float32("temperature", llm.DefaultTemperature, "Sampling temperature")
	f.Duration("timeout", llm.DefaultTimeout, "Per-call request timeout")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export archived grading runs as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "labgrader.db", "SQLite run-archive path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("LABGRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("labgrader")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/labgrader")
	v.AddConfigPath("/etc/labgrader")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runGrade(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// The credential is checked once, before any submission is read.
	client, err := llm.New(llm.Config{
		BaseURL:     v.GetString("llm-url"),
		APIKey:      v.GetString("llm-key"),
		Model:       v.GetString("llm-model"),
		MaxTokens:   v.GetInt("max-tokens"),
		Temperature: float32(v.GetFloat64("temperature")),
		Timeout:     v.GetDuration("timeout"),
	})
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}

	policy := prompts.Policy(strings.ToLower(strings.TrimSpace(v.GetString("policy"))))
	if !prompts.IsValidPolicy(string(policy)) {
		slog.Warn("invalid policy, using strict", "policy", string(policy))
		policy = prompts.PolicyStrict
	}

	cohorts := parseCohorts(v.GetStringSlice("cohorts"))
	if len(cohorts) == 0 {
		cohorts = rubric.Cohorts()
	}

	subs, err := sheet.ReadSubmissions(v.GetString("input"), cohorts)
	if err != nil {
		return fmt.Errorf("read submissions: %w", err)
	}
	if len(subs) == 0 {
		slog.Info("no submissions matched the configured cohorts, nothing to grade",
			"input", v.GetString("input"))
		return nil
	}

	g := grader.New(client, grader.Config{Policy: policy, Cohorts: cohorts})

	startedAt := time.Now()
	report := g.Run(context.Background(), subs)
	finishedAt := time.Now()

	if err := sheet.WriteReport(v.GetString("output"), report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if dbPath := v.GetString("db"); dbPath != "" {
		archiveRun(dbPath, report, model.RunMeta{
			Model:      v.GetString("llm-model"),
			Policy:     string(policy),
			Cohorts:    joinCohorts(cohorts),
			StartedAt:  startedAt,
			FinishedAt: finishedAt,
		})
	}

	for _, st := range report.Stats {
		slog.Info("cohort summary",
			"cohort", string(st.Cohort), "students", st.Count,
			"average", st.AvgPercent, "highest", st.MaxPercent, "lowest", st.MinPercent)
	}
	slog.Info("grading complete", "submissions", len(subs), "output", v.GetString("output"))

	return nil
}

// archiveRun stores the run in the archive. The report is already on
// disk at this point, so archive failures are logged, not fatal.
func archiveRun(dbPath string, report model.Report, meta model.RunMeta) {
	db, err := store.New(dbPath)
	if err != nil {
		slog.Warn("could not open run archive", "db", dbPath, "error", err)
		return
	}
	defer db.Close()

	runID, err := db.SaveRun(meta, report)
	if err != nil {
		slog.Warn("could not archive run", "db", dbPath, "error", err)
		return
	}
	slog.Info("run archived", "db", dbPath, "run_id", runID)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	runs, err := db.ExportAllRuns()
	if err != nil {
		return fmt.Errorf("export runs: %w", err)
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func parseCohorts(raw []string) []model.Cohort {
	var out []model.Cohort
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, model.Cohort(s))
		}
	}
	return out
}

func joinCohorts(cohorts []model.Cohort) string {
	strs := make([]string, len(cohorts))
	for i, c := range cohorts {
		strs[i] = string(c)
	}
	return strings.Join(strs, ",")
}
