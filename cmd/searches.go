package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/rankgrid/internal/model"
	"github.com/sells-group/rankgrid/internal/store"
)

var (
	listCity   string
	listState  string
	listMode   string
	listLimit  int
	listOffset int
)

var searchesCmd = &cobra.Command{
	Use:   "searches",
	Short: "Inspect stored grid searches",
}

var searchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored searches, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		searches, err := st.ListSearches(cmd.Context(), store.SearchFilter{
			City:   listCity,
			State:  listState,
			Mode:   model.SearchMode(listMode),
			Limit:  listLimit,
			Offset: listOffset,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(searches)
	},
}

var searchesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one stored search with its full result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		search, err := st.GetSearch(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(search)
	},
}

func init() {
	searchesListCmd.Flags().StringVar(&listCity, "city", "", "filter by city")
	searchesListCmd.Flags().StringVar(&listState, "state", "", "filter by state")
	searchesListCmd.Flags().StringVar(&listMode, "mode", "", "filter by mode (targeted or all_businesses)")
	searchesListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum rows to return")
	searchesListCmd.Flags().IntVar(&listOffset, "offset", 0, "rows to skip")
	searchesCmd.AddCommand(searchesListCmd, searchesGetCmd)
	rootCmd.AddCommand(searchesCmd)
}
