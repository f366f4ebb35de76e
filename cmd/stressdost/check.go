package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/stress-dost/internal/config"
	"github.com/danielpatrickdp/stress-dost/internal/content"
	"github.com/danielpatrickdp/stress-dost/internal/dataset"
	"github.com/danielpatrickdp/stress-dost/internal/profiler"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and static data files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		bank, err := profiler.LoadBank(cfg.Data.QuizPath)
		if err != nil {
			return fmt.Errorf("quiz bank: %w", err)
		}
		assessor := profiler.NewAssessor(bank, profiler.AssessorConfig{QuestionLimit: cfg.Data.QuestionLimit}, rand.New(rand.NewPCG(1, 2)))
		fmt.Fprintf(out, "quiz      %s: %d questions, %d served, %d dimensions, %d skipped\n",
			cfg.Data.QuizPath, len(bank.Questions), assessor.Len(), len(bank.Dimensions), len(bank.Skipped))
		for _, s := range bank.Skipped {
			fmt.Fprintf(out, "  skipped %s\n", s)
		}

		popups, err := dataset.Load(cfg.Data.DatasetPath)
		if err != nil {
			return fmt.Errorf("dataset: %w", err)
		}
		fmt.Fprintf(out, "dataset   %s: %d popups\n", cfg.Data.DatasetPath, popups.Len())
		for _, c := range []trigger.Category{trigger.CategoryFear, trigger.CategoryThoughts, trigger.CategoryFrustration} {
			fmt.Fprintf(out, "  %-12s %d\n", c, len(popups.Popups(c)))
		}

		if cfg.Data.QuestionIDs != "" {
			ids, err := content.LoadIDs(cfg.Data.QuestionIDs)
			if err != nil {
				fmt.Fprintf(out, "questions %s: unavailable (%v)\n", cfg.Data.QuestionIDs, err)
			} else {
				fmt.Fprintf(out, "questions %s: %d ids\n", cfg.Data.QuestionIDs, len(ids))
			}
		}

		generator := "disabled"
		if cfg.Generator.Enabled && cfg.Generator.Addr != "" {
			generator = cfg.Generator.Addr
		}
		fmt.Fprintf(out, "generator %s\n", generator)
		fmt.Fprintf(out, "storage   %s\n", cfg.Storage.DBPath)
		return nil
	},
}
