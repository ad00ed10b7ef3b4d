package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamasky/tx-observer/internal/app"
)

var (
	replayDate      string
	replayNight     bool
	replaySpeed     int
	replaySpeedUnit string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a historical session and log the alerts it would have raised",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayDate == "" {
			return fmt.Errorf("--date must be provided")
		}

		cfg := getApp().Config
		if replaySpeed > 0 {
			cfg.Replay.SpeedValue = replaySpeed
		}
		if replaySpeedUnit != "" {
			cfg.Replay.SpeedUnit = replaySpeedUnit
		}

		opts := app.ReplayOptions{
			Date:  replayDate,
			Night: replayNight,
		}

		return getApp().Replay(cmd.Context(), opts)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayDate, "date", "", "Trading date to replay (YYYY-MM-DD)")
	replayCmd.Flags().BoolVar(&replayNight, "night", false, "Replay the night session instead of the day session")
	replayCmd.Flags().IntVar(&replaySpeed, "speed", 0, "Virtual time advanced per tick (defaults to config)")
	replayCmd.Flags().StringVar(&replaySpeedUnit, "speed-unit", "", "Unit of --speed: SECONDS or MINUTES")
}
