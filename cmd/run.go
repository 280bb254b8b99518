package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rankgrid/internal/model"
)

var (
	runTarget   string
	runPlaceID  string
	runTerm     string
	runCity     string
	runState    string
	runLat      float64
	runLng      float64
	runGridSize int
	runRadius   float64
	runNoSave   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a grid search and print the aggregation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine, _, cleanup, err := initEngine(ctx, !runNoSave)
		if err != nil {
			return err
		}
		defer cleanup()

		gridSize := runGridSize
		if gridSize == 0 {
			gridSize = cfg.Search.DefaultGridSize
		}
		radius := runRadius
		if radius == 0 {
			radius = cfg.Search.DefaultRadiusMiles
		}

		sc := model.SearchConfig{
			TargetBusiness: runTarget,
			TargetPlaceID:  runPlaceID,
			SearchTerm:     runTerm,
			GridSize:       gridSize,
			RadiusMiles:    radius,
			CenterLat:      runLat,
			CenterLng:      runLng,
			City:           runCity,
			State:          runState,
		}

		res, err := engine.Run(ctx, sc)
		if err != nil {
			return err
		}

		zap.L().Info("run complete",
			zap.String("session", res.SessionID),
			zap.Duration("elapsed", res.Elapsed),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runTarget, "target", "", "target business name to track (omit for market exploration)")
	runCmd.Flags().StringVar(&runPlaceID, "place-id", "", "target business place ID")
	runCmd.Flags().StringVar(&runTerm, "term", "", "search term (required)")
	runCmd.Flags().StringVar(&runCity, "city", "", "city for display and storage")
	runCmd.Flags().StringVar(&runState, "state", "", "state for display and storage")
	runCmd.Flags().Float64Var(&runLat, "lat", 0, "grid center latitude")
	runCmd.Flags().Float64Var(&runLng, "lng", 0, "grid center longitude")
	runCmd.Flags().IntVar(&runGridSize, "grid-size", 0, "lattice dimension N for an NxN grid (default from config)")
	runCmd.Flags().Float64Var(&runRadius, "radius", 0, "coverage radius in miles, capped at 30 (default from config)")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "skip background persistence")
	rootCmd.AddCommand(runCmd)
}
