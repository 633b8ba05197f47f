package commands

import (
	"flag"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jamiealquiza/envy"
	"github.com/spf13/cobra"

	"github.com/anthonysandrin/kafka-rebalancer/planwriter"
	topo "github.com/anthonysandrin/kafka-rebalancer/topology"
	"github.com/anthonysandrin/kafka-rebalancer/zkloader"
)

var rootCmd = &cobra.Command{
	Use:           "rebalancectl",
	Short:         "Plan Kafka partition and leader reassignments",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Flags are declared on the stdlib default FlagSet first, exactly as
	// cmd/autothrottle does, so envy.Parse (which walks flag.CommandLine)
	// can apply REBALANCECTL_* env overrides before the set is merged
	// into cobra's pflag set.
	flag.String("zk-addr", "localhost:2181", "ZooKeeper connect string")
	flag.Duration("zk-timeout", 5*time.Second, "ZooKeeper session timeout")
	flag.String("zk-chroot", "", "ZooKeeper chroot path")
	flag.String("topics", ".*", "comma-separated topic name regex patterns to include")
	flag.String("out", "plan.json", "path to write the reassignment plan")

	envy.Parse("REBALANCECTL")

	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(rebalanceCmd)
	rootCmd.AddCommand(decommissionCmd)
	rootCmd.AddCommand(addReplicaCmd)
	rootCmd.AddCommand(removeReplicaCmd)
}

// Execute runs the root command. Unknown flags are rejected by cobra
// itself before any subcommand body runs.
func Execute() error {
	return rootCmd.Execute()
}

func loadTopologyFromCmd(cmd *cobra.Command) (*topo.ClusterTopology, map[topo.PartitionKey][]int, error) {
	addr, _ := cmd.Flags().GetString("zk-addr")
	timeout, _ := cmd.Flags().GetDuration("zk-timeout")
	chroot, _ := cmd.Flags().GetString("zk-chroot")
	topicsFlag, _ := cmd.Flags().GetString("topics")
	patternStrs := strings.Split(topicsFlag, ",")

	patterns := make([]*regexp.Regexp, 0, len(patternStrs))
	for _, s := range patternStrs {
		p, err := regexp.Compile(s)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --topics pattern %q: %w", s, err)
		}
		patterns = append(patterns, p)
	}

	loader, err := zkloader.Dial(zkloader.Config{
		Addrs:   strings.Split(addr, ","),
		Timeout: timeout,
		Chroot:  chroot,
	})
	if err != nil {
		return nil, nil, err
	}
	defer loader.Close()

	ct, err := loader.LoadTopology(patterns)
	if err != nil {
		return nil, nil, err
	}

	return ct, planwriter.Snapshot(ct), nil
}

func writePlan(cmd *cobra.Command, ct *topo.ClusterTopology, before map[topo.PartitionKey][]int) error {
	out, _ := cmd.Flags().GetString("out")
	plan := planwriter.Build(ct, before)
	if len(plan.Partitions) == 0 {
		fmt.Println("no partitions changed, nothing to write")
		return nil
	}
	if err := planwriter.Write(plan, out); err != nil {
		return err
	}
	fmt.Printf("wrote plan for %d partitions to %s\n", len(plan.Partitions), out)
	return nil
}
