package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utidosgames/storefront/internal/coins"
)

func coinsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coins",
		Short: "UTI Coins tools",
	}
	cmd.AddCommand(coinsAdjustCmd(opts), coinsConvertCmd())
	return cmd
}

func coinsAdjustCmd(opts *options) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "adjust <user-id> <amount>",
		Short: "Credit (positive) or debit (negative) coins",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || amount == 0 {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			c, err := opts.adminSession(cmd.Context())
			if err != nil {
				return err
			}
			var out map[string]any
			if err := c.AdjustCoins(cmd.Context(), args[0], amount, reason, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded with the transaction")
	return cmd
}

func coinsConvertCmd() *cobra.Command {
	var fromCoins bool
	cmd := &cobra.Command{
		Use:   "convert <amount>",
		Short: "Convert reais to coins, or coins to reais with --from-coins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if fromCoins {
				n, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid coin amount %q", args[0])
				}
				fmt.Fprintf(out, "%d coins = %s\n", n, coins.FormatReais(coins.CoinsToCents(n)))
				return nil
			}

			reais, err := strconv.ParseFloat(strings.Replace(args[0], ",", ".", 1), 64)
			if err != nil || reais < 0 {
				return fmt.Errorf("invalid amount %q", args[0])
			}
			n := coins.ReaisToCoins(reais)
			fmt.Fprintf(out, "%s = %d coins\n", args[0], n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromCoins, "from-coins", false, "treat the amount as coins")
	return cmd
}
