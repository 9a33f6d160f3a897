package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	screengrab "github.com/bryanchriswhite/ScreenGrab"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List attached displays",
	Long: `List attached displays with their stable identities.

Each display shows its session id, stable UUID, serial (when the display
exposes one), geometry and scale factor.`,
	Example: `  # List displays in table format (default)
  screengrab list

  # List displays in JSON format
  screengrab list --format json

  # List visible windows instead
  screengrab list --windows`,
	RunE: runList,
}

var (
	listFormat  string
	listWindows bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
	listCmd.Flags().BoolVarP(&listWindows, "windows", "w", false, "list visible windows instead of displays")
}

func runList(cmd *cobra.Command, args []string) error {
	session, _, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	if listWindows {
		return listVisibleWindows(session)
	}

	displays, err := session.Displays()
	if err != nil {
		return fmt.Errorf("failed to enumerate displays: %w", err)
	}

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(displays)
	case "table":
		return printDisplaysTable(displays)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func printDisplaysTable(displays []screengrab.Display) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tNAME\tUUID\tSERIAL\tGEOMETRY\tPRIMARY")
	fmt.Fprintln(w, "--\t----\t----\t------\t--------\t-------")

	for _, d := range displays {
		serial, err := d.Serial()
		if err != nil {
			serial = "-"
		}
		primary := "No"
		if d.IsPrimary {
			primary = "Yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%dx%d+%d+%d\t%s\n",
			d.ID, d.Name, d.UUID, serial,
			d.Bounds.Dx(), d.Bounds.Dy(), d.Bounds.Min.X, d.Bounds.Min.Y,
			primary)
	}

	return nil
}

func listVisibleWindows(session *screengrab.Session) error {
	windows, err := session.Windows()
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}

	if listFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(windows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "Z\tTITLE\tAPP\tPID\tGEOMETRY")
	fmt.Fprintln(w, "-\t-----\t---\t---\t--------")
	for _, win := range windows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%dx%d+%d+%d\n",
			win.Z, win.Title, win.AppName, win.PID,
			win.Bounds.Dx(), win.Bounds.Dy(), win.Bounds.Min.X, win.Bounds.Min.Y)
	}

	return nil
}
