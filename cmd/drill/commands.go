package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"scaledrill/internal/model"
	"scaledrill/internal/theory"
)

var (
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	correctStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3fb950"))
	wrongStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f85149"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "drill",
		Short: "Practice naming scale degrees",
		Long: `drill - scale-degree practice in the terminal.

Questions look like "4th degree of Bb Major". Answers are note names;
enharmonic spellings are accepted, so D# passes for Eb.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPracticeCmd(), newResolveCmd(), newCheckCmd(), newOptionsCmd())
	return root
}

type practiceFlags struct {
	roots   []string
	modes   []string
	degrees []int
	count   int
	seed    uint64
}

func newPracticeCmd() *cobra.Command {
	var f practiceFlags
	def := model.NewDrillConfig(theory.DefaultConfig())

	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Answer random questions read from stdin",
		Long: `Answer random questions read from stdin.

Type a note name and press enter. An empty line skips the question,
"q" quits. A summary is printed at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.DrillConfig{Roots: f.roots, Modes: f.modes, Degrees: f.degrees}.Theory()
			if err != nil {
				return err
			}
			var rng theory.Rand
			if f.seed != 0 {
				rng = rand.New(rand.NewPCG(f.seed, f.seed))
			}
			return practice(cmd.InOrStdin(), cmd.OutOrStdout(), cfg, rng, f.count)
		},
	}

	cmd.Flags().StringSliceVar(&f.roots, "roots", def.Roots, "roots to draw from")
	cmd.Flags().StringSliceVar(&f.modes, "modes", def.Modes, "modes to draw from (major, minor)")
	cmd.Flags().IntSliceVar(&f.degrees, "degrees", def.Degrees, "scale degrees to draw from")
	cmd.Flags().IntVarP(&f.count, "count", "n", 0, "number of questions, 0 runs until EOF or q")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "random seed, 0 picks one")
	return cmd
}

func practice(in io.Reader, out io.Writer, cfg theory.Config, rng theory.Rand, count int) error {
	scanner := bufio.NewScanner(in)
	var asked, correct, skipped int

loop:
	for count == 0 || asked < count {
		q, err := theory.NextQuestion(cfg, rng)
		if err != nil {
			return err
		}
		if q.Empty() {
			fmt.Fprintln(out, dimStyle.Render(q.Prompt))
			return nil
		}

		asked++
		fmt.Fprintf(out, "%s %s ", dimStyle.Render(fmt.Sprintf("[%d]", asked)), promptStyle.Render(q.Prompt+"?"))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			asked--
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "q", "quit", "exit":
			asked--
			break loop
		case "":
			skipped++
			fmt.Fprintln(out, dimStyle.Render("skipped, answer was "+q.Answer))
			continue
		}

		v := theory.CheckAnswer(line, q.Answer)
		if v.IsCorrect() {
			correct++
		}
		fmt.Fprintln(out, renderVerdict(v))
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d/%d correct, %d skipped", correct, asked, skipped)))
	return nil
}

func renderVerdict(v theory.Verdict) string {
	if v.IsCorrect() {
		return correctStyle.Render("correct")
	}
	msg := "incorrect"
	if v.Expected != "" {
		msg += ", expected " + v.Expected
	}
	return wrongStyle.Render(msg)
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "resolve <degree> <root> <mode>",
		Short:   "Print the note at a scale degree",
		Example: "  drill resolve 4 Bb major",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			degree, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("degree %q: %w", args[0], err)
			}
			mode, err := theory.ParseMode(args[2])
			if err != nil {
				return err
			}
			note, err := theory.ResolveDegree(degree, theory.Normalize(args[1]), mode)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), note)
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "check <answer> <expected>",
		Short:   "Compare an answer to the expected note",
		Example: "  drill check D# Eb",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderVerdict(theory.CheckAnswer(args[0], args[1])))
			return nil
		},
	}
}

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the roots, modes and degrees a drill can use",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := model.NewDrillConfig(theory.DefaultConfig())
			out := cmd.OutOrStdout()
			degrees := make([]string, len(cfg.Degrees))
			for i, d := range cfg.Degrees {
				degrees[i] = strconv.Itoa(d)
			}
			fmt.Fprintf(out, "%s %s\n", promptStyle.Render("roots:  "), strings.Join(cfg.Roots, " "))
			fmt.Fprintf(out, "%s %s\n", promptStyle.Render("modes:  "), strings.Join(cfg.Modes, " "))
			fmt.Fprintf(out, "%s %s\n", promptStyle.Render("degrees:"), strings.Join(degrees, " "))
		},
	}
}
