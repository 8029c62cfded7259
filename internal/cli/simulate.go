package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateGross   float64
	simulateTraffic float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Evaluate a synthetic snapshot and deliver the resulting alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateGross <= 0 || simulateTraffic <= 0 {
			return errors.New("--gross and --traffic must be greater than 0")
		}

		gross := decimal.NewFromFloat(simulateGross)
		traffic := decimal.NewFromFloat(simulateTraffic)
		return getApp().SimulateAlert(cmd.Context(), gross, traffic)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateGross, "gross", 0, "Gross rewards in CC for the latest round")
	simulateCmd.Flags().Float64Var(&simulateTraffic, "traffic", 0, "Estimated traffic in CC for the latest round")
}
