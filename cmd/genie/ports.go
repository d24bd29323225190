package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/ayusman/gesturegenie/internal/genie"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer midi.CloseDriver()

		out := cmd.OutOrStdout()
		printPorts(out, "Outputs", genie.OutPorts())
		printPorts(out, "Inputs", genie.InPorts())
		return nil
	},
}

func printPorts(w io.Writer, heading string, ports []string) {
	fmt.Fprintf(w, "%s:\n", heading)
	if len(ports) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for i, name := range ports {
		fmt.Fprintf(w, "  %d: %s\n", i, name)
	}
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
