package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "List enrolled identities in enrollment order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		ids, err := a.svc.Identities(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, id := range ids {
			fmt.Fprintf(out, "%-24s dim=%d enrolled=%s", id.Name, id.Dimension, id.EnrolledAt.Format("2006-01-02 15:04:05"))
			if id.RegNo != "" {
				fmt.Fprintf(out, " reg_no=%s course=%s", id.RegNo, id.Course)
			}
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%d identities\n", len(ids))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(identitiesCmd)
}
