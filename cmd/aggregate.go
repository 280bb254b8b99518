package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rankgrid/internal/aggregate"
	"github.com/sells-group/rankgrid/internal/provider"
)

var (
	aggTarget   string
	aggTerm     string
	aggGridSize int
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <results.json>",
	Short: "Re-aggregate a saved provider results document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read results file %s", args[0])
		}

		doc, err := provider.ParseDocument(data)
		if err != nil {
			return err
		}

		term := aggTerm
		if term == "" {
			term = doc.SearchParams.SearchTerm
		}
		if term == "" {
			term = doc.Config.SearchTerm
		}
		target := aggTarget
		if target == "" {
			target = doc.Config.TargetBusiness
		}
		gridSize := aggGridSize
		if gridSize == 0 {
			gridSize = doc.Config.GridSize
		}

		rows, cols := gridSize, gridSize
		for _, rp := range doc.RawResults {
			if rp.Point.Row+1 > rows {
				rows = rp.Point.Row + 1
			}
			if rp.Point.Col+1 > cols {
				cols = rp.Point.Col + 1
			}
		}

		result, err := aggregate.Aggregate(aggregate.Params{
			RawResults:    doc.RawResults,
			SearchTerm:    term,
			TargetName:    target,
			TargetObs:     doc.TargetBusiness,
			GridRows:      rows,
			GridCols:      cols,
			CenterLat:     doc.Config.CenterLat,
			CenterLng:     doc.Config.CenterLng,
			City:          doc.Config.City,
			State:         doc.Config.State,
			ExecutionTime: doc.Execution.DurationSeconds,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	aggregateCmd.Flags().StringVar(&aggTarget, "target", "", "override the target business name from the document")
	aggregateCmd.Flags().StringVar(&aggTerm, "term", "", "override the search term from the document")
	aggregateCmd.Flags().IntVar(&aggGridSize, "grid-size", 0, "override the grid size from the document")
	rootCmd.AddCommand(aggregateCmd)
}
