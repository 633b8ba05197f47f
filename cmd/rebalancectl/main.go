// rebalancectl drives the rebalancing engine from the command line: it
// loads a topology from ZooKeeper, runs one requested operation, and
// writes a partition-reassignment plan for the changed partitions only.
package main

import (
	"fmt"
	"os"

	"github.com/anthonysandrin/kafka-rebalancer/cmd/rebalancectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
