package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mjschmitt/sheetview/internal/viewer"
)

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Open a workbook in the interactive terminal viewer",
	Long: `Opens an xlsx/xlsm workbook and renders the visible window in the
terminal. Arrows move the selection, ctrl-left/right (or [ and ]) switch
sheets, / searches, f toggles fullscreen, p toggles print layout, +/- zoom,
Escape leaves a mode, q quits. Parsing and indexing continue in the
background while you browse.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		ctrl := viewer.New(viewerConfig())
		defer ctrl.Close()
		if err := ctrl.Load(filepath.Base(args[0]), data); err != nil {
			// The viewer stays interactive on error so the user sees the
			// message and can retry structural failures in place.
			debugf("load: %v", err)
		}
		return viewer.NewTerminal(ctrl).Run()
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
