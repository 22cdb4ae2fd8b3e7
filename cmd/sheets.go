package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mjschmitt/sheetview/internal/model"
	"github.com/mjschmitt/sheetview/internal/parser"
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets <file>",
	Short: "List the sheets of a workbook without loading cell data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := openDocument(args[0])
		if err != nil {
			return err
		}
		for i, s := range doc.Sheets() {
			fmt.Printf("%d\t%s\t%d rows × %d cols (declared)\n", i+1, s.Name, s.MaxRow, s.MaxCol)
		}
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show workbook metadata: sheet count, dimensions, macro flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := openDocument(args[0])
		if err != nil {
			return err
		}
		sheets := doc.Sheets()
		fmt.Printf("file:    %s\n", doc.Filename())
		fmt.Printf("sheets:  %d\n", len(sheets))
		fmt.Printf("macros:  %v\n", doc.HasMacros())
		chunkRows, chunkCols := doc.ChunkSize()
		for _, s := range sheets {
			keys := model.ChunkKeysInRange(
				model.Range{Start: 0, End: s.MaxRow},
				model.Range{Start: 0, End: s.MaxCol},
				chunkRows, chunkCols,
			)
			fmt.Printf("  %-24s %d×%d declared, %d chunk(s)\n", s.Name, s.MaxRow, s.MaxCol, len(keys))
		}
		return nil
	},
}

// openDocument validates and opens the container without streaming cells.
func openDocument(path string) (*parser.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parser.Open(data, filepath.Base(path), parserOptions())
}

func init() {
	rootCmd.AddCommand(sheetsCmd)
	rootCmd.AddCommand(infoCmd)
}
