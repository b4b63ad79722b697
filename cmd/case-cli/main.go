// Command case-cli runs cases through the pipeline locally.
//
//	case-cli -input "I'm John, 45, chest pain since this morning"
//
// prints the case record as JSON and exits 0 when the case completed, 1 when
// it failed and 2 when the input is empty. Without -input it reads cases
// interactively until quit, exit or q.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/upb/triage-pipeline/app"
	"github.com/upb/triage-pipeline/config"
	"github.com/upb/triage-pipeline/internal/observability"
	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/services/pipeline"
)

const (
	exitCompleted = 0
	exitFailed    = 1
	exitUsage     = 2
)

// CaseProcessor runs one case through the pipeline
type CaseProcessor interface {
	ProcessCase(ctx context.Context, rawInput string) *models.CaseResult
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("case-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	input := fs.String("input", "", "patient description to process once")
	showJSON := fs.Bool("json", false, "print the full case record in interactive mode")
	logLevel := fs.String("log-level", "warn", "log level (logs go to stderr)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	inputSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "input" {
			inputSet = true
		}
	})

	// Validate before any setup so an empty case never touches the pipeline
	if inputSet {
		if err := pipeline.ValidateInput(*input); err != nil {
			fmt.Fprintln(stderr, "error: patient input is empty")
			return exitUsage
		}
	}

	cfg, err := config.New(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailed
	}

	logger, err := observability.NewLogger(observability.LoggerConfig{Level: *logLevel, Format: "console"})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	logger = logger.Named("case-cli")

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailed
	}
	defer func() { _ = deps.Close(context.Background()) }()

	if inputSet {
		return runOnce(ctx, deps.Orchestrator, *input, stdout, stderr)
	}
	return runInteractive(ctx, deps.Orchestrator, stdin, stdout, stderr, *showJSON)
}

// runOnce processes a single case and prints it as JSON
func runOnce(ctx context.Context, processor CaseProcessor, input string, stdout, stderr io.Writer) int {
	if err := pipeline.ValidateInput(input); err != nil {
		fmt.Fprintln(stderr, "error: patient input is empty")
		return exitUsage
	}

	result := processor.ProcessCase(ctx, input)
	if err := writeJSON(stdout, result); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailed
	}

	if !result.IsCompleted() {
		return exitFailed
	}
	return exitCompleted
}

// runInteractive reads one case per line until quit, exit, q or EOF
func runInteractive(ctx context.Context, processor CaseProcessor, stdin io.Reader, stdout, stderr io.Writer, showJSON bool) int {
	fmt.Fprintln(stdout, "Case triage pipeline - local runner")
	fmt.Fprintln(stdout, "Enter patient information (or 'quit' to exit)")
	fmt.Fprintln(stdout, "Example: I'm John, 45 years old, having chest pain for 2 days")

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\n> Patient: ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			fmt.Fprintln(stdout, "Exiting...")
			return exitCompleted
		case "":
			fmt.Fprintln(stdout, "Please enter patient information.")
			continue
		}

		if ctx.Err() != nil {
			break
		}

		result := processor.ProcessCase(ctx, line)
		printSummary(stdout, result)
		if showJSON {
			if err := writeJSON(stdout, result); err != nil {
				fmt.Fprintf(stderr, "error: %v\n", err)
			}
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailed
	}
	return exitCompleted
}

func printSummary(w io.Writer, result *models.CaseResult) {
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Case ID: %s\n", result.CaseID)
	fmt.Fprintf(w, "Status: %s\n", result.Status)
	fmt.Fprintf(w, "Duration: %.2fms\n", result.TotalDurationMs)
	fmt.Fprintf(w, "Est. Cost: $%.4f\n", result.EstimatedCostUSD)

	if result.Triage != nil {
		fmt.Fprintf(w, "Urgency Level: %d/5\n", result.Triage.UrgencyLevel)
		fmt.Fprintf(w, "Specialty: %s\n", result.Triage.RecommendedSpecialty)
		fmt.Fprintf(w, "Care Type: %s\n", result.Triage.RecommendedCareType)
	}
	if result.Routing != nil {
		fmt.Fprintf(w, "Recommended Provider: %s\n", result.Routing.RecommendedProvider.Name)
	}
	if result.RequiresHumanReview {
		fmt.Fprintln(w, "REQUIRES HUMAN REVIEW")
		fmt.Fprintf(w, "Reasons: %s\n", strings.Join(result.ReviewReasons, ", "))
	}
	if result.Error != nil {
		fmt.Fprintf(w, "Error: %s\n", *result.Error)
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
