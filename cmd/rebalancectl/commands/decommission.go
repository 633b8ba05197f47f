package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anthonysandrin/kafka-rebalancer/topology/balance"
)

var decommissionCmd = &cobra.Command{
	Use:   "decommission <broker-id> [broker-id...]",
	Short: "Drain the given brokers, force-moving replicas across groups if needed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDecommission,
}

func runDecommission(cmd *cobra.Command, args []string) error {
	ct, before, err := loadTopologyFromCmd(cmd)
	if err != nil {
		return err
	}

	ids := make([]int, len(args))
	for i, a := range args {
		id, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return err
		}
		ids[i] = id
	}

	result, err := balance.DecommissionBrokers(ct, ids)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		cmd.Printf("warning: %s\n", w)
	}
	cmd.Printf("%d replica moves to drain %d brokers\n", len(result.ReplicaMoves), len(ids))

	return writePlan(cmd, ct, before)
}
