// Package planwriter serializes the outcome of a rebalance into the
// Kafka reassignment-plan JSON format, following the shape kafkazk.WriteMap
// and kafkazk.PartitionMap emit (teacher: kafkazk/partitions.go).
package planwriter

import (
	"encoding/json"
	"os"
	"sort"

	topo "github.com/anthonysandrin/kafka-rebalancer/topology"
)

// Entry is one partition's reassignment entry.
type Entry struct {
	Topic     string `json:"topic"`
	Partition int    `json:"partition"`
	Replicas  []int  `json:"replicas"`
}

// Plan is the on-disk reassignment-plan document. Version matches the
// value Kafka's own reassignment tooling expects.
type Plan struct {
	Version    int     `json:"version"`
	Partitions []Entry `json:"partitions"`
}

// Build emits a Plan containing only the partitions whose replica set in
// ct differs from the corresponding entry in before, per spec.md section
// 6: an unchanged partition produces no output -- diff-only, not a full
// snapshot.
func Build(ct *topo.ClusterTopology, before map[topo.PartitionKey][]int) *Plan {
	plan := &Plan{Version: 1}

	keys := ct.PartitionKeys()
	for _, key := range keys {
		p, ok := ct.Partition(key)
		if !ok {
			continue
		}
		prior, existed := before[key]
		if existed && intsEqual(prior, p.Replicas) {
			continue
		}

		plan.Partitions = append(plan.Partitions, Entry{
			Topic:     key.Topic,
			Partition: key.Index,
			Replicas:  p.ReplicasCopy(),
		})
	}

	sort.Slice(plan.Partitions, func(i, j int) bool {
		if plan.Partitions[i].Topic != plan.Partitions[j].Topic {
			return plan.Partitions[i].Topic < plan.Partitions[j].Topic
		}
		return plan.Partitions[i].Partition < plan.Partitions[j].Partition
	})

	return plan
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Snapshot captures the current replica set of every partition in ct, for
// use as the "before" argument to Build once the rebalance mutates ct in
// place.
func Snapshot(ct *topo.ClusterTopology) map[topo.PartitionKey][]int {
	before := make(map[topo.PartitionKey][]int)
	for _, key := range ct.PartitionKeys() {
		p, ok := ct.Partition(key)
		if !ok {
			continue
		}
		before[key] = p.ReplicasCopy()
	}
	return before
}

// Write marshals plan as indented JSON and writes it to path, appending a
// trailing newline, matching kafkazk.WriteMap's on-disk convention.
func Write(plan *Plan, path string) error {
	out, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(out, '\n'), 0o644)
}
