package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	screengrab "github.com/bryanchriswhite/ScreenGrab"
	"github.com/spf13/cobra"
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Show the frontmost application",
	Long: `Show the frontmost application and the display it occupies.

With --watch, keeps running and prints every focus change until
interrupted.`,
	Example: `  # Print the current focus once
  screengrab focus

  # Print as JSON
  screengrab focus --format json

  # Follow focus changes
  screengrab focus --watch`,
	RunE: runFocus,
}

var (
	focusWatch  bool
	focusFormat string
)

func init() {
	rootCmd.AddCommand(focusCmd)

	focusCmd.Flags().BoolVarP(&focusWatch, "watch", "W", false, "follow focus changes")
	focusCmd.Flags().StringVarP(&focusFormat, "format", "f", "text", "output format (text or json)")
}

func runFocus(cmd *cobra.Command, args []string) error {
	session, _, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	snap, err := session.CurrentFocus()
	if err != nil {
		return fmt.Errorf("failed to read focus: %w", err)
	}
	if err := printFocus(snap); err != nil {
		return err
	}
	if !focusWatch {
		return nil
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	last := snap
	for {
		select {
		case <-sigChan:
			return nil
		case <-ticker.C:
			snap, err := session.CurrentFocus()
			if err != nil {
				return fmt.Errorf("failed to read focus: %w", err)
			}
			if snap == last {
				continue
			}
			last = snap
			if err := printFocus(snap); err != nil {
				return err
			}
		}
	}
}

func printFocus(snap screengrab.Focus) error {
	if focusFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snap)
	}

	display := snap.DisplayID
	if display == "" {
		display = "-"
	}
	fmt.Printf("%s (pid %d) on display %s\n", snap.Name, snap.PID, display)
	return nil
}
