package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthonysandrin/kafka-rebalancer/topology/balance"
)

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Equalize partition counts across groups/brokers and reseat preferred leaders",
	RunE:  runRebalance,
}

func init() {
	rebalanceCmd.Flags().Bool("replication-groups", false, "equalize per-partition replica counts across replication groups")
	rebalanceCmd.Flags().Bool("brokers", false, "equalize partition counts across brokers within each group")
	rebalanceCmd.Flags().Bool("leaders", false, "reseat preferred leaders to equalize leadership counts")
	rebalanceCmd.Flags().Int("max-partition-movements", 0, "cap on replica moves (0 = unbounded)")
	rebalanceCmd.Flags().Int("max-leader-changes", 0, "cap on leader reseats (0 = unbounded)")
	rebalanceCmd.Flags().Int64("max-movement-size", 0, "cap on total moved storage bytes (0 = unset); rejected by this balancer, belongs to a size-aware sibling")
	rebalanceCmd.Flags().Bool("verbose", false, "include per-move trace lines")
}

func runRebalance(cmd *cobra.Command, args []string) error {
	ct, before, err := loadTopologyFromCmd(cmd)
	if err != nil {
		return err
	}

	replicationGroups, _ := cmd.Flags().GetBool("replication-groups")
	brokers, _ := cmd.Flags().GetBool("brokers")
	leaders, _ := cmd.Flags().GetBool("leaders")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if !replicationGroups && !brokers && !leaders {
		return fmt.Errorf("rebalance: at least one of --replication-groups, --brokers, --leaders is required")
	}

	opts := balance.RebalanceOptions{
		ReplicationGroups: replicationGroups,
		Brokers:           brokers,
		Leaders:           leaders,
		Verbose:           verbose,
	}

	if v, _ := cmd.Flags().GetInt("max-partition-movements"); v > 0 {
		opts.MaxPartitionMovements = &v
	}
	if v, _ := cmd.Flags().GetInt("max-leader-changes"); v > 0 {
		opts.MaxLeaderChanges = &v
	}
	if v, _ := cmd.Flags().GetInt64("max-movement-size"); v > 0 {
		opts.MaxMovementSize = &v
	}

	result, err := balance.Rebalance(ct, opts)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if verbose {
		for _, line := range result.Trace {
			fmt.Println(line)
		}
	}
	fmt.Printf("%d replica moves, %d leader changes\n", len(result.ReplicaMoves), len(result.LeaderChanges))

	return writePlan(cmd, ct, before)
}
