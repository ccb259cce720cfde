package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hoppxi/ddc-brightness/internal/manager"
	"github.com/spf13/cobra"
)

var errNotRunning = errors.New("ddc-brightness is not running")

var ctlCmd = &cobra.Command{
	Use:   "ctl <status|get|set N|step N|up|down|show|quit>",
	Short: "Control the running applet",
	Example: `  ddc-brightness ctl up
  ddc-brightness ctl set 60
  ddc-brightness ctl step -10`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := ctlCommand(args)
		if err != nil {
			return err
		}
		if !manager.Manage.Running() {
			return errNotRunning
		}
		reply, err := manager.Manage.SendIPCCommand(line)
		if err != nil {
			return err
		}
		payload, err := manager.ParseReply(reply)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), payload)
		return nil
	},
}

// ctlCommand turns ctl arguments into a control socket line.
func ctlCommand(args []string) (string, error) {
	name := strings.ToLower(args[0])
	rest := args[1:]

	switch name {
	case "status", "get", "up", "down", "show":
		if len(rest) != 0 {
			return "", fmt.Errorf("%s takes no arguments", name)
		}
		return strings.ToUpper(name), nil
	case "quit", "stop":
		return "STOP", nil
	case "set", "step":
		if len(rest) != 1 {
			return "", fmt.Errorf("%s takes exactly one number", name)
		}
		return strings.ToUpper(name) + " " + rest[0], nil
	}
	return "", fmt.Errorf("unknown command %q", name)
}
