package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/pkg/agents"
)

func newDecomposeCmd(opts *options) *cobra.Command {
	var (
		courseURL string
		userID    string
		noChat    bool
	)

	cmd := &cobra.Command{
		Use:   "decompose <file.pdf>",
		Short: "Build an implementation plan from a coursework PDF",
		Long: `Build an implementation plan from a coursework PDF and then chat
about the document.

Examples:
  courseplan decompose cw1.pdf
  courseplan decompose cw1.pdf --course-url https://course.example.org/ct
  courseplan decompose cw1.pdf --no-chat --store memory`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if !strings.EqualFold(filepath.Ext(args[0]), ".pdf") {
				return fmt.Errorf("only PDF files are accepted: %s", args[0])
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			ctx := background(cmd)
			a, err := newApp(ctx, cfg, opts.storeKind)
			if err != nil {
				return err
			}
			defer a.Close()

			var metadata map[string]interface{}
			if courseURL != "" {
				metadata = map[string]interface{}{"course_url": courseURL}
			}

			spinner := getSpinner("📄 Reading and analysing coursework...")
			res, err := a.orch.RunDecomposition(ctx, data, userID, metadata)
			_ = spinner.Finish()
			fmt.Print("\r")
			if err != nil {
				return fmt.Errorf("failed to decompose %s: %w", args[0], err)
			}

			color.Green("\n✓ Stored %d text chunks and %d images\n", res.TextChunkCount, res.ImageCount)
			printPlan(os.Stdout, res.Plan)

			if noChat {
				return nil
			}
			return chatLoop(ctx, a.orch, os.Stdin, res)
		},
	}

	cmd.Flags().StringVar(&courseURL, "course-url", "", "Course page used as context for image descriptions")
	cmd.Flags().StringVar(&userID, "user", "", "User id that owns the document collection")
	cmd.Flags().BoolVar(&noChat, "no-chat", false, "Exit after printing the plan")
	return cmd
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func deref(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func printPlan(w io.Writer, plan models.Plan) {
	heading := color.New(color.FgCyan, color.Bold).FprintfFunc()
	warn := color.New(color.FgYellow).FprintfFunc()

	heading(w, "\n%s\n", deref(plan.CourseName, "Coursework plan"))
	if plan.SummaryOverview != nil {
		fmt.Fprintf(w, "%s\n", *plan.SummaryOverview)
	}
	fmt.Fprintf(w, "\nDeadline: %s", deref(plan.Deadline, "unknown"))
	if plan.DeadlineNote != nil {
		fmt.Fprintf(w, " (%s)", *plan.DeadlineNote)
	}
	fmt.Fprintln(w)
	if plan.TotalEstimatedTime != nil {
		fmt.Fprintf(w, "Estimated time: %s\n", *plan.TotalEstimatedTime)
	}

	if len(plan.KeyDeliverables) > 0 {
		heading(w, "\nDeliverables\n")
		for _, d := range plan.KeyDeliverables {
			fmt.Fprintf(w, "  • %s\n", d)
		}
	}

	tasks := make(map[string]models.Task, len(plan.Tasks))
	for _, t := range plan.Tasks {
		tasks[t.ID] = t
	}
	printTask := func(t models.Task) {
		priority := "-"
		if t.Priority != nil {
			priority = fmt.Sprint(*t.Priority)
		}
		fmt.Fprintf(w, "  [P%s] %s: %s (%s)\n", priority, t.ID, t.Title, t.EstimatedTime)
	}

	printed := make(map[string]bool)
	for _, m := range plan.Milestones {
		heading(w, "\n%s\n", m.Title)
		for _, id := range m.Tasks {
			if t, ok := tasks[id]; ok {
				printTask(t)
				printed[id] = true
			}
		}
	}

	var rest []models.Task
	for _, t := range plan.Tasks {
		if !printed[t.ID] {
			rest = append(rest, t)
		}
	}
	if len(rest) > 0 {
		heading(w, "\nTasks\n")
		for _, t := range rest {
			printTask(t)
		}
	}

	if len(plan.ExtractionWarnings) > 0 {
		warn(w, "\nCould not extract: %s\n", strings.Join(plan.ExtractionWarnings, ", "))
	}
}

func chatLoop(ctx context.Context, orch *agents.Orchestrator, in io.Reader, res *agents.DecompositionResult) error {
	color.Cyan("\nAsk about your coursework (type 'exit' to quit)")

	scanner := bufio.NewScanner(in)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "exit") {
			break
		}

		spinner := getSpinner("🤖 Generating response...")
		out, err := orch.RunChat(ctx, query, res.SessionID, res.Collection)
		_ = spinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		assistantPrompt("Assistant: %s\n", out.Answer)
		for _, img := range out.Images {
			color.Blue("  image: %s\n", img)
		}
	}

	return scanner.Err()
}
