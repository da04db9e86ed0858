package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Recognize every face in a photo and record attendance",
	RunE:  runCheckin,
}

func init() {
	rootCmd.AddCommand(checkinCmd)

	checkinCmd.Flags().String("image", "", "Path to the photo")
	_ = checkinCmd.MarkFlagRequired("image")
}

func runCheckin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	image, err := os.ReadFile(mustGetString(cmd, "image"))
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	res, err := a.svc.CheckIn(ctx, image)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d face(s) detected, %d recognized\n", res.Date, res.FacesDetected, len(res.Recognized))
	for _, r := range res.Recognized {
		state := "recorded"
		if !r.Recorded {
			state = "already recorded"
		}
		fmt.Fprintf(out, "  %-24s %5.1f%%  %s\n", r.Name, r.Confidence*100, state)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
	return nil
}
