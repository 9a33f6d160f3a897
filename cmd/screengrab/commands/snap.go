package commands

import (
	"fmt"
	"image"
	"image/png"
	"os"

	screengrab "github.com/bryanchriswhite/ScreenGrab"
	"github.com/spf13/cobra"
)

var snapCmd = &cobra.Command{
	Use:   "snap",
	Short: "Capture a display to a PNG file",
	Long: `Capture a display, or a region of it, and write the result as PNG.

The display is selected by any unique key: serial number, UUID or
numeric id as printed by 'screengrab list'. Without --display the
primary display is captured.`,
	Example: `  # Capture the primary display
  screengrab snap -o shot.png

  # Capture a specific display by serial
  screengrab snap --display 4242 -o shot.png

  # Capture a 800x600 region at offset (100,50)
  screengrab snap --region 100,50,800,600 -o shot.png`,
	RunE: runSnap,
}

var (
	snapOutput  string
	snapDisplay string
	snapRegion  []int
)

func init() {
	rootCmd.AddCommand(snapCmd)

	snapCmd.Flags().StringVarP(&snapOutput, "output", "o", "screenshot.png", "output file")
	snapCmd.Flags().StringVarP(&snapDisplay, "display", "d", "", "display key (serial, UUID or id)")
	snapCmd.Flags().IntSliceVarP(&snapRegion, "region", "r", nil, "display-local region as x,y,width,height")
}

func runSnap(cmd *cobra.Command, args []string) error {
	session, _, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	display, err := pickDisplay(session)
	if err != nil {
		return err
	}

	var img *image.RGBA
	if len(snapRegion) > 0 {
		if len(snapRegion) != 4 {
			return fmt.Errorf("--region wants x,y,width,height, got %d values", len(snapRegion))
		}
		x, y, w, h := snapRegion[0], snapRegion[1], snapRegion[2], snapRegion[3]
		img, err = display.CaptureRegion(image.Rect(x, y, x+w, y+h))
	} else {
		img, err = display.Capture()
	}
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}

	f, err := os.Create(snapOutput)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", snapOutput, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}

	fmt.Printf("Wrote %dx%d capture to %s\n", img.Bounds().Dx(), img.Bounds().Dy(), snapOutput)
	return nil
}

func pickDisplay(session *screengrab.Session) (screengrab.Display, error) {
	if snapDisplay != "" {
		return session.FromUniqueKey(snapDisplay)
	}
	return session.Primary()
}
