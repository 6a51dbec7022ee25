package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/vigil/internal/domain/recommend"
)

func combineCmd() *cobra.Command {
	var statMultiplier, mlMultiplier float64
	cmd := &cobra.Command{
		Use:   "combine <stat-score> <ml-score>",
		Short: "Weight a statistical and an ML score into a combined score",
		Long: `Compute stat*stat-multiplier + ml*ml-multiplier, rounded to two decimals.
Separate negative scores from flags with --.

Examples:
  vigilctl combine 5 3 --stat-multiplier 2 --ml-multiplier 0.5
  vigilctl combine -- 5 -5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid stat score %q: %w", args[0], err)
			}
			ml, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid ml score %q: %w", args[1], err)
			}
			score := recommend.Round2(recommend.CombinedScore(stat, ml, statMultiplier, mlMultiplier))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(score, 'f', -1, 64))
			return err
		},
	}
	cmd.Flags().Float64Var(&statMultiplier, "stat-multiplier", 1, "Multiplier of the statistical score")
	cmd.Flags().Float64Var(&mlMultiplier, "ml-multiplier", 1, "Multiplier of the ML score")
	return cmd
}
