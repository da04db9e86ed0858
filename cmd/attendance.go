package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Print the attendance recorded on a date",
	RunE:  runAttendance,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)

	attendanceCmd.Flags().String("date", "", "Date as YYYY-MM-DD (default today)")
	attendanceCmd.Flags().String("format", "json", "Output format: json or yaml")
}

type attendanceOutput struct {
	Date       string              `json:"date" yaml:"date"`
	Attendance map[string][]string `json:"attendance" yaml:"attendance"`
}

func writeAttendance(w io.Writer, format string, out attendanceOutput) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(out)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func runAttendance(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	date := mustGetString(cmd, "date")
	if date == "" {
		date = a.svc.Today()
	}
	byName, err := a.svc.GetAttendance(ctx, date)
	if err != nil {
		return err
	}

	out := attendanceOutput{Date: date, Attendance: make(map[string][]string, len(byName))}
	for name, times := range byName {
		for _, ts := range times {
			out.Attendance[name] = append(out.Attendance[name], ts.In(a.cfg.Attendance.Location).Format(time.TimeOnly))
		}
	}
	return writeAttendance(cmd.OutOrStdout(), mustGetString(cmd, "format"), out)
}
