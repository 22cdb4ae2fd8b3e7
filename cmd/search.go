package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mjschmitt/sheetview/internal/model"
	"github.com/mjschmitt/sheetview/internal/search"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <file> <query>",
	Short: "Search every cell of a workbook",
	Long: `Indexes the whole workbook and prints the cells whose display value
contains the query, case-insensitive, in (sheet, row, col) order.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		wb, st, _, err := openWorkbook(ctx, args[0])
		if err != nil {
			return err
		}
		defer st.Close()

		ix := search.NewIndexer()
		for _, s := range wb.Sheets {
			for _, key := range st.LoadedChunks(s.ID) {
				if cells, ok := st.ChunkCells(s.ID, key); ok {
					ix.IndexChunk(s.ID, key, cells)
				}
			}
		}
		ix.SetComplete()

		refs := ix.Search(args[1])
		for i, ref := range refs {
			if searchLimit > 0 && i >= searchLimit {
				fmt.Printf("… and %d more\n", len(refs)-i)
				break
			}
			sheetName := ""
			if s := wb.SheetByID(ref.Sheet); s != nil {
				sheetName = s.Name
			}
			value := ""
			if cell, ok := st.GetCell(ref.Sheet, ref.Row, ref.Col); ok {
				value = cell.Display
			}
			fmt.Printf("%s!%s\t%s\n", sheetName, model.CellRef(ref.Row, ref.Col), value)
		}
		fmt.Printf("%d match(es)\n", len(refs))
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 100, "maximum matches to print (0 = all)")
	rootCmd.AddCommand(searchCmd)
}
