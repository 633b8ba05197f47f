package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anthonysandrin/kafka-rebalancer/topology/balance"
)

var removeReplicaCmd = &cobra.Command{
	Use:   "remove-replica <topic> <partition>",
	Short: "Decrease a partition's replication factor",
	Args:  cobra.ExactArgs(2),
	RunE:  runRemoveReplica,
}

func init() {
	removeReplicaCmd.Flags().Int("count", 1, "number of replicas to remove")
	removeReplicaCmd.Flags().String("out-of-sync", "", "comma-separated ids of known out-of-sync replicas, preferred for removal")
}

func runRemoveReplica(cmd *cobra.Command, args []string) error {
	ct, before, err := loadTopologyFromCmd(cmd)
	if err != nil {
		return err
	}

	key, err := parsePartitionArgs(args)
	if err != nil {
		return err
	}

	count, _ := cmd.Flags().GetInt("count")

	var outOfSync []int
	if osr, _ := cmd.Flags().GetString("out-of-sync"); osr != "" {
		for _, s := range strings.Split(osr, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return err
			}
			outOfSync = append(outOfSync, id)
		}
	}

	result, err := balance.RemoveReplica(ct, key, outOfSync, count)
	if err != nil {
		return err
	}

	cmd.Printf("removed %d replicas from %s/%d\n", len(result.Removals), key.Topic, key.Index)

	return writePlan(cmd, ct, before)
}
