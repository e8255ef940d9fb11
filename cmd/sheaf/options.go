// Options command lists the configuration options a device reports.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sheafscan/sheaf/internal/device"
	"github.com/sheafscan/sheaf/pkg/types"
)

var optionsCmd = &cobra.Command{
	Use:   "options <device>",
	Short: "List the configuration options a device reports",
	Long: `Options opens the device and prints every option it reports, with
the accepted values for each.

Example:
  sheaf options ./inbox
  sheaf options ./inbox --json`,
	Args: cobra.ExactArgs(1),
	RunE: runOptions,
}

func runOptions(cmd *cobra.Command, args []string) error {
	handle, err := device.DirDriver{}.Open(args[0])
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer handle.Close()

	opts, err := handle.Options()
	if err != nil {
		return fmt.Errorf("read options: %w", err)
	}

	if jsonOutput {
		out, err := json.MarshalIndent(opts, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	printOptionTable(opts)
	return nil
}

// printOptionTable prints options in a human-readable table format.
func printOptionTable(opts []types.Option) {
	if len(opts) == 0 {
		fmt.Println("No options reported.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tACCEPTS\tSETTABLE")
	fmt.Fprintln(w, "----\t----\t-------\t--------")
	for _, o := range opts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", o.Name, o.Type, describeConstraint(o.Constraint), o.Settable)
	}
	w.Flush()
}

// describeConstraint renders an option constraint for table output.
func describeConstraint(c *types.Constraint) string {
	switch {
	case c == nil:
		return "any"
	case c.HasRange:
		s := fmt.Sprintf("%g..%g", c.Min, c.Max)
		if c.Step != 0 {
			s += fmt.Sprintf(" step %g", c.Step)
		}
		return s
	case len(c.Words) > 0:
		parts := make([]string, len(c.Words))
		for i, n := range c.Words {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, ", ")
	case len(c.Strings) > 0:
		return strings.Join(c.Strings, ", ")
	default:
		return "any"
	}
}
