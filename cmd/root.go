package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "secureattend",
	Short: "Face recognition attendance service",
	Long: `Secure-Attend enrolls people by face and records their attendance.
Faces are embedded by an external model service; enrollment, matching and the
attendance ledger are handled here.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
