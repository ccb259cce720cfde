package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hoppxi/ddc-brightness/pkg/ddc"
	"github.com/spf13/cobra"
)

var probeJSON bool

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "List monitors reachable over DDC/CI",
	RunE: func(cmd *cobra.Command, args []string) error {
		binary, _ := cmd.Flags().GetString("binary")
		monitors, err := ddc.Probe(orBackground(cmd.Context()), ddc.ExecRunner{}, binary)
		if err != nil {
			return err
		}
		if probeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(monitors)
		}
		printMonitors(cmd.OutOrStdout(), monitors)
		return nil
	},
}

func init() {
	probeCmd.Flags().BoolVar(&probeJSON, "json", false, "Print monitors as JSON")
}

func printMonitors(out io.Writer, monitors []ddc.Monitor) {
	if len(monitors) == 0 {
		fmt.Fprintln(out, "No monitors found.")
		return
	}
	best, _ := ddc.Best(monitors)
	for _, m := range monitors {
		mark := " "
		if m.DDCCI && m.Device == best.Device {
			mark = "*"
		}
		support := "no DDC/CI"
		if m.DDCCI {
			support = "DDC/CI"
		}
		fmt.Fprintf(out, "%s %-14s %-10s %s\n", mark, m.Device, support, m.Name)
	}
}
