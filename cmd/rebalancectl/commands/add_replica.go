package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	topo "github.com/anthonysandrin/kafka-rebalancer/topology"
	"github.com/anthonysandrin/kafka-rebalancer/topology/balance"
)

var addReplicaCmd = &cobra.Command{
	Use:   "add-replica <topic> <partition>",
	Short: "Increase a partition's replication factor",
	Args:  cobra.ExactArgs(2),
	RunE:  runAddReplica,
}

func init() {
	addReplicaCmd.Flags().Int("count", 1, "number of replicas to add")
}

func runAddReplica(cmd *cobra.Command, args []string) error {
	ct, before, err := loadTopologyFromCmd(cmd)
	if err != nil {
		return err
	}

	key, err := parsePartitionArgs(args)
	if err != nil {
		return err
	}

	count, _ := cmd.Flags().GetInt("count")

	result, err := balance.AddReplica(ct, key, count)
	if err != nil {
		return err
	}

	cmd.Printf("added %d replicas to %s/%d\n", len(result.Additions), key.Topic, key.Index)

	return writePlan(cmd, ct, before)
}

func parsePartitionArgs(args []string) (topo.PartitionKey, error) {
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return topo.PartitionKey{}, err
	}
	return topo.PartitionKey{Topic: args[0], Index: idx}, nil
}
