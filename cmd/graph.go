// makemake graph [path]
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/qobs-build/makemake/internal/msg"
)

var flagJSON bool

func doGraph(cmd *cobra.Command, args []string) {
	b := loadBuilder(cmd, args)
	plan, err := b.Plan()
	if err != nil {
		msg.Fatal("%v", err)
	}

	if flagJSON {
		if err := plan.WriteJSON(msg.Out); err != nil {
			msg.Fatal("%v", err)
		}
		return
	}
	plan.Dump(msg.Out)
}

var graphCmd = &cobra.Command{
	Use:   "graph [directory]",
	Short: "Print the resolved dependency graph",
	Long:  `Print the include graph, each target's link set and the objects to compile, without writing anything.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addScanFlags(graphCmd)
	graphCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the graph as JSON")
}
