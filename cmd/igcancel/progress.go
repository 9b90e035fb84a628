package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"igcancel/pkg/checkpoint"
	"igcancel/pkg/ui"
)

// progressCmd represents the progress command
var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect or reset the saved progress",
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show where the last run stopped",
	Args:  cobra.NoArgs,
	RunE:  runProgressShow,
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the saved progress so the next run starts from the top",
	Long: `Delete the progress file. A copy is kept next to it with a .backup
suffix, so an accidental reset can be undone by renaming it back.`,
	Args: cobra.NoArgs,
	RunE: runProgressReset,
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressResetCmd)

	progressCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the progress file (default ./data)")
	progressResetCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}

func progressManager(cmd *cobra.Command) (*checkpoint.Manager, error) {
	flags := map[string]interface{}{}
	if cmd.Flags().Changed("data-dir") {
		flags["data-dir"] = dataDir
	}
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, err
	}
	return checkpoint.NewManager(cfg.ProgressPath()), nil
}

func runProgressShow(cmd *cobra.Command, args []string) error {
	manager, err := progressManager(cmd)
	if err != nil {
		return err
	}

	info, err := manager.Info()
	if err != nil {
		return err
	}
	if info == nil {
		ui.PrintInfo("No saved progress", manager.Path())
		return nil
	}

	ui.PrintHighlight("Saved Progress")
	fmt.Println()
	ui.PrintInfo("File", info.Path)
	if info.Source != "" {
		ui.PrintInfo("Source", info.Source)
	}
	if info.RunID != "" {
		ui.PrintInfo("Run", info.RunID)
	}
	if info.Total > 0 {
		ui.PrintInfo("Position", fmt.Sprintf("%d/%d %s", info.Position, info.Total, ui.RenderBar(info.Position, info.Total, 30)))
	} else {
		ui.PrintInfo("Position", fmt.Sprint(info.Position))
	}
	ui.PrintInfo("Cancelled", fmt.Sprint(info.SuccessCount))
	ui.PrintInfo("Failed", fmt.Sprint(info.FailedCount))
	ui.PrintInfo("Updated", fmt.Sprintf("%s (%s ago)", info.UpdatedAt.Format(checkpoint.TimestampLayout), ui.FormatDuration(info.Age)))

	if info.Total > 0 && info.Position >= info.Total {
		fmt.Println("\nThe last run finished. Use 'igcancel progress reset' to start over.")
	} else {
		fmt.Println("\nResume with 'igcancel --continue'.")
	}
	return nil
}

func runProgressReset(cmd *cobra.Command, args []string) error {
	manager, err := progressManager(cmd)
	if err != nil {
		return err
	}
	if !manager.Exists() {
		ui.PrintInfo("No saved progress", manager.Path())
		return nil
	}

	if !assumeYes {
		ok, err := ui.ConfirmStdin("Discard the saved progress?")
		if err != nil || !ok {
			return err
		}
	}

	if err := manager.Backup(); err != nil {
		return err
	}
	if err := manager.Delete(); err != nil {
		return err
	}
	ui.PrintSuccess("Progress reset, backup kept at " + manager.BackupPath())
	return nil
}
