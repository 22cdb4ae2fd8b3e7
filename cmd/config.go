package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/mjschmitt/sheetview/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sheetview configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("✓ Config written")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("chunk_rows:        %d\n", c.ChunkRows)
		fmt.Printf("chunk_cols:        %d\n", c.ChunkCols)
		fmt.Printf("max_rows:          %d\n", c.MaxRows)
		fmt.Printf("max_cols:          %d\n", c.MaxCols)
		fmt.Printf("max_file_mb:       %d\n", c.MaxFileMB)
		fmt.Printf("row_height:        %g\n", c.RowHeight)
		fmt.Printf("col_width:         %g\n", c.ColWidth)
		fmt.Printf("overscan_rows:     %d\n", c.OverscanRows)
		fmt.Printf("overscan_cols:     %d\n", c.OverscanCols)
		fmt.Printf("chunk_timeout_ms:  %d\n", c.ChunkTimeoutMs)
		fmt.Printf("print_page_rows:   %d\n", c.PrintPageRows)
		fmt.Printf("print_page_cols:   %d\n", c.PrintPageCols)
		fmt.Printf("print_cell_width:  %d\n", c.PrintCellW)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
