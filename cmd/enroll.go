package cmd

import (
	"fmt"
	"os"

	"SECUREATTEND/models"

	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a person from a photo containing exactly one face",
	RunE:  runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Name of the person")
	enrollCmd.Flags().String("image", "", "Path to the photo")
	enrollCmd.Flags().String("reg-no", "", "Registration number; with --course adds a roster record")
	enrollCmd.Flags().String("course", "", "Course of the student")
	enrollCmd.MarkFlagsRequiredTogether("reg-no", "course")
	_ = enrollCmd.MarkFlagRequired("name")
	_ = enrollCmd.MarkFlagRequired("image")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	name := mustGetString(cmd, "name")
	image, err := os.ReadFile(mustGetString(cmd, "image"))
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	if regNo := mustGetString(cmd, "reg-no"); regNo != "" {
		st := models.Student{RegNo: regNo, Name: name, Course: mustGetString(cmd, "course")}
		if err := a.svc.AddStudent(ctx, st, image); err != nil {
			return err
		}
	} else if err := a.svc.Enroll(ctx, name, image); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %s\n", name)
	return nil
}
