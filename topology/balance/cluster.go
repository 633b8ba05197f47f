package balance

import (
	"fmt"
	"sort"

	topo "github.com/anthonysandrin/kafka-rebalancer/topology"
)

// RebalanceOptions selects which passes Rebalance runs and the movement
// budgets it respects. MaxMovementSize is accepted only so the count-based
// balancer can reject it with a typed error, per spec.md section 4.3.1:
// a byte budget belongs to a size-aware sibling balancer, not this one.
type RebalanceOptions struct {
	ReplicationGroups bool
	Brokers           bool
	Leaders           bool

	MaxPartitionMovements *int
	MaxLeaderChanges      *int
	MaxMovementSize       *int64

	// Verbose is read by the CLI to decide whether to print Result.Trace
	// (mirrors the teacher CLI's --verbose flag). The balance operations
	// record a trace entry per move whether or not it is set.
	Verbose bool
}

// ReplicaMove records one replica relocation performed by a rebalance
// pass.
type ReplicaMove struct {
	Partition  topo.PartitionKey
	FromBroker int
	ToBroker   int
}

// ReplicaChange records a replica addition or removal performed by
// AddReplica/RemoveReplica.
type ReplicaChange struct {
	Partition topo.PartitionKey
	Broker    int
}

// LeaderChange records one preferred-leader swap.
type LeaderChange struct {
	Partition topo.PartitionKey
	NewLeader int
}

// Result collects everything a cluster-level operation did, for the
// outer driver to report and to serialize into a reassignment plan.
type Result struct {
	ReplicaMoves []ReplicaMove
	Additions    []ReplicaChange
	Removals     []ReplicaChange
	LeaderChanges []LeaderChange
	Warnings     []string
	Trace        []string
}

func (r *Result) trace(format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.Trace = append(r.Trace, fmt.Sprintf(format, args...))
}

func movementBudgetExhausted(r *Result, opts RebalanceOptions) bool {
	return opts.MaxPartitionMovements != nil && len(r.ReplicaMoves) >= *opts.MaxPartitionMovements
}

func leaderBudgetExhausted(r *Result, opts RebalanceOptions) bool {
	return opts.MaxLeaderChanges != nil && len(r.LeaderChanges) >= *opts.MaxLeaderChanges
}

// Rebalance runs the passes selected by opts in the fixed order
// replication_groups -> brokers -> leaders (spec.md section 4.3.1). A
// later pass never undoes the invariants an earlier one established.
func Rebalance(ct *topo.ClusterTopology, opts RebalanceOptions) (*Result, error) {
	if opts.MaxMovementSize != nil {
		return nil, &topo.RebalanceError{
			Message: "max_movement_size is not supported by the count-based balancer",
		}
	}

	result := &Result{}

	if opts.ReplicationGroups {
		for _, id := range ct.BrokerIDs() {
			b, _ := ct.Broker(id)
			if b.Inactive {
				return nil, &topo.RebalanceError{
					Message: "cannot rebalance replication groups while inactive brokers are present",
				}
			}
		}

		rebalanceReplicas(ct, result, opts)
		if movementBudgetExhausted(result, opts) {
			return result, nil
		}
		rebalanceGroupsPartitionCount(ct, result, opts)
	}

	if opts.Brokers {
		for _, gid := range ct.GroupIDs() {
			if err := RebalanceBrokersInGroup(ct, gid); err != nil {
				if empty, ok := err.(*topo.EmptyReplicationGroupError); ok {
					result.Warnings = append(result.Warnings, empty.Error())
					continue
				}
				return nil, err
			}
		}
	}

	if opts.Leaders {
		rebalanceLeaders(ct, result, opts)
	}

	return result, nil
}

// rebalanceReplicas is spec.md section 4.3.1's first pass: for each
// partition independently, equalize its replica count across replication
// groups.
func rebalanceReplicas(ct *topo.ClusterTopology, result *Result, opts RebalanceOptions) {
	groups := ct.GroupIDs()

	for _, key := range ct.PartitionKeys() {
		p, ok := ct.Partition(key)
		if !ok {
			continue
		}
		rf := p.ReplicationFactor()

		for {
			if movementBudgetExhausted(result, opts) {
				return
			}

			load := func(g string) int { return ct.CountReplicaInGroup(g, key) }
			over, under := topo.SeparateGroups(groups, load, func(g string) string { return g }, rf)
			if len(over) == 0 || len(under) == 0 {
				break
			}

			srcGroup, _ := pickExtreme(over, load, true, true)
			dstGroup, _ := pickExtreme(under, load, false, true)

			moved, from, to, err := movePartitionReporting(ct, srcGroup, dstGroup, key)
			if err != nil || !moved {
				break
			}
			result.ReplicaMoves = append(result.ReplicaMoves, ReplicaMove{Partition: key, FromBroker: from, ToBroker: to})
			result.trace("rebalance_replicas: moved %s/%d from group %s to group %s",
				key.Topic, key.Index, srcGroup, dstGroup)
		}
	}
}

// rebalanceGroupsPartitionCount is spec.md section 4.3.1's second pass:
// equalize total partition counts across replication groups without
// worsening per-partition replica balance. Groups are visited in
// ascending id order (spec.md section 9, second open question).
func rebalanceGroupsPartitionCount(ct *topo.ClusterTopology, result *Result, opts RebalanceOptions) {
	groups := ct.GroupIDs()
	numGroups := len(groups)
	if numGroups == 0 {
		return
	}

	totalFor := func(g string) int { return totalPartitionsInGroup(ct, g) }

	total := 0
	for _, g := range groups {
		total += totalFor(g)
	}

	over, under := topo.SeparateGroups(groups, totalFor, func(g string) string { return g }, total)
	if len(over) == 0 || len(under) == 0 {
		return
	}
	sort.Strings(over)
	sort.Strings(under)

	optCount, _, _ := topo.ComputeOptimum(numGroups, total)

	for _, overGroup := range over {
		for _, underGroup := range under {
			for {
				if movementBudgetExhausted(result, opts) {
					return
				}
				if totalFor(overGroup)-totalFor(underGroup) <= 1 {
					break
				}
				if totalFor(underGroup) == optCount || totalFor(overGroup) == optCount {
					break
				}

				key, ok := eligiblePartitionForGroupBalance(ct, numGroups, overGroup, underGroup)
				if !ok {
					break
				}

				moved, from, to, err := movePartitionReporting(ct, overGroup, underGroup, key)
				if err != nil || !moved {
					break
				}
				result.ReplicaMoves = append(result.ReplicaMoves, ReplicaMove{Partition: key, FromBroker: from, ToBroker: to})
				result.trace("rebalance_groups_partition_cnt: moved %s/%d from group %s to group %s",
					key.Topic, key.Index, overGroup, underGroup)
			}
			if totalFor(overGroup) == optCount {
				break
			}
		}
		if movementBudgetExhausted(result, opts) {
			return
		}
	}
}

// eligiblePartitionForGroupBalance finds a partition held by overGroup
// whose replica count there exceeds the per-partition quotient, and whose
// replica count in underGroup is at or below it -- so moving it does not
// worsen per-partition replication-group balance. Deterministic by
// iterating overGroup's partitions in (topic, index) order.
func eligiblePartitionForGroupBalance(ct *topo.ClusterTopology, numGroups int, overGroup, underGroup string) (topo.PartitionKey, bool) {
	for _, key := range ct.GroupPartitionKeys(overGroup) {
		p, ok := ct.Partition(key)
		if !ok {
			continue
		}
		quotient := p.ReplicationFactor() / numGroups
		if ct.CountReplicaInGroup(overGroup, key) > quotient &&
			ct.CountReplicaInGroup(underGroup, key) <= quotient {
			return key, true
		}
	}
	return topo.PartitionKey{}, false
}

func totalPartitionsInGroup(ct *topo.ClusterTopology, groupID string) int {
	total := 0
	for _, b := range ct.BrokersInGroup(groupID) {
		total += b.PartitionCount()
	}
	return total
}

// movePartitionReporting performs the same move as MovePartition and also
// reports which brokers were chosen, for the result ledger.
func movePartitionReporting(ct *topo.ClusterTopology, srcGroup, dstGroup string, key topo.PartitionKey) (moved bool, from, to int, err error) {
	source, ok := bestTopicSource(ct, srcGroup, key)
	if !ok {
		return false, 0, 0, nil
	}
	dest, ok := bestTopicDestination(ct, dstGroup, key)
	if !ok {
		return false, 0, 0, nil
	}
	if err := ct.MoveReplica(key, source.ID, dest.ID); err != nil {
		return false, 0, 0, nil
	}
	return true, source.ID, dest.ID, nil
}

// pickExtreme returns the id in ids with the maximal (or minimal, when
// maximize is false) loadFn value, tie-broken by id ascending (or
// descending, when tieAscending is false).
func pickExtreme(ids []string, loadFn func(string) int, maximize, tieAscending bool) (string, bool) {
	if len(ids) == 0 {
		return "", false
	}
	best := ids[0]
	bestLoad := loadFn(best)
	for _, id := range ids[1:] {
		load := loadFn(id)
		better := false
		switch {
		case maximize && load > bestLoad:
			better = true
		case !maximize && load < bestLoad:
			better = true
		case load == bestLoad:
			if tieAscending {
				better = id < best
			} else {
				better = id > best
			}
		}
		if better {
			best, bestLoad = id, load
		}
	}
	return best, true
}

// DecommissionBrokers marks every id decommissioned (all-or-nothing: an
// unknown id leaves none of them marked), rebalances each affected group
// so its decommissioned brokers are drained onto its active ones, then
// force-moves any still-held replicas to other replication groups.
func DecommissionBrokers(ct *topo.ClusterTopology, ids []int) (*Result, error) {
	for _, id := range ids {
		if _, ok := ct.Broker(id); !ok {
			return nil, &topo.InvalidBrokerIdError{ID: id}
		}
	}

	affected := make(map[string]struct{})
	for _, id := range ids {
		ct.MarkDecommissioned(id)
		b, _ := ct.Broker(id)
		affected[b.ReplicationGroupID] = struct{}{}
	}

	groups := make([]string, 0, len(affected))
	for g := range affected {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	result := &Result{}

	for _, g := range groups {
		if err := RebalanceBrokersInGroup(ct, g); err != nil {
			if empty, ok := err.(*topo.EmptyReplicationGroupError); ok {
				result.Warnings = append(result.Warnings, empty.Error())
				continue
			}
			return nil, err
		}
	}

	forceDecommission(ct, result, ids)

	unreassigned := make(map[int][]topo.PartitionKey)
	for _, id := range ids {
		b, _ := ct.Broker(id)
		if !b.Empty() {
			unreassigned[id] = b.PartitionKeys()
		}
	}
	if len(unreassigned) > 0 {
		return result, &topo.BrokerDecommissionError{Unreassigned: unreassigned}
	}

	return result, nil
}

// forceDecommission implements spec.md section 4.3.2 step 4: for any
// decommissioned broker still holding partitions, try to move each
// remaining replica to another replication group, trying groups in
// ascending order of their current replica count for that partition.
func forceDecommission(ct *topo.ClusterTopology, result *Result, ids []int) {
	for _, id := range ids {
		b, ok := ct.Broker(id)
		if !ok {
			continue
		}
		for _, key := range b.PartitionKeys() {
			if !b.HasPartition(key) {
				continue
			}

			candidates := make([]string, 0)
			for _, g := range ct.GroupIDs() {
				if g != b.ReplicationGroupID {
					candidates = append(candidates, g)
				}
			}
			sort.Slice(candidates, func(i, j int) bool {
				ci := ct.CountReplicaInGroup(candidates[i], key)
				cj := ct.CountReplicaInGroup(candidates[j], key)
				if ci != cj {
					return ci < cj
				}
				return candidates[i] < candidates[j]
			})

			for _, g := range candidates {
				dest, ok := bestTopicDestination(ct, g, key)
				if !ok {
					continue
				}
				if err := ct.MoveReplica(key, id, dest.ID); err != nil {
					continue
				}
				result.ReplicaMoves = append(result.ReplicaMoves, ReplicaMove{
					Partition: key, FromBroker: id, ToBroker: dest.ID,
				})
				result.trace("decommission: force-moved %s/%d off broker %d into group %s", key.Topic, key.Index, id, g)
				break
			}
		}
	}
}

// AddReplica increases partition key's replication factor by count, per
// spec.md section 4.3.4.
func AddReplica(ct *topo.ClusterTopology, key topo.PartitionKey, count int) (*Result, error) {
	p, ok := ct.Partition(key)
	if !ok {
		return nil, &topo.InvalidPartitionError{Key: key}
	}
	if p.ReplicationFactor()+count > ct.TotalActiveBrokers() {
		return nil, &topo.InvalidReplicationFactorError{
			Message: fmt.Sprintf(
				"cannot increase replication factor to %d: only %d active brokers",
				p.ReplicationFactor()+count, ct.TotalActiveBrokers(),
			),
		}
	}

	result := &Result{}

	isNonFull := func(g string) bool {
		for _, b := range ct.ActiveBrokersInGroup(g) {
			if !b.HasPartition(key) {
				return true
			}
		}
		return false
	}

	var nonFull []string
	for _, g := range ct.GroupIDs() {
		if isNonFull(g) {
			nonFull = append(nonFull, g)
		}
	}

	for i := 0; i < count; i++ {
		if len(nonFull) == 0 {
			return result, &topo.RebalanceError{Message: "no replication group has room for another replica"}
		}

		load := func(g string) int { return ct.CountReplicaInGroup(g, key) }
		totalReplicas := 0
		for _, g := range nonFull {
			totalReplicas += load(g)
		}
		optReplicas, _, _ := topo.ComputeOptimum(len(nonFull), totalReplicas)

		var underReplicated []string
		for _, g := range nonFull {
			if load(g) < optReplicas {
				underReplicated = append(underReplicated, g)
			}
		}
		candidates := underReplicated
		if len(candidates) == 0 {
			candidates = nonFull
		}

		g, _ := pickExtreme(candidates, func(g string) int { return totalPartitionsInGroup(ct, g) }, false, true)

		brokerID, ok := pickBrokerForAdd(ct, g, key)
		if !ok {
			return result, &topo.RebalanceError{Message: "no eligible broker found in group " + g}
		}
		if err := ct.AppendReplica(key, brokerID); err != nil {
			return result, err
		}
		result.Additions = append(result.Additions, ReplicaChange{Partition: key, Broker: brokerID})
		result.trace("add_replica: placed %s/%d on broker %d in group %s", key.Topic, key.Index, brokerID, g)

		if !isNonFull(g) {
			filtered := nonFull[:0]
			for _, x := range nonFull {
				if x != g {
					filtered = append(filtered, x)
				}
			}
			nonFull = filtered
		}
	}

	return result, nil
}

func pickBrokerForAdd(ct *topo.ClusterTopology, groupID string, key topo.PartitionKey) (int, bool) {
	var best *topo.Broker
	for _, b := range ct.ActiveBrokersInGroup(groupID) {
		if b.HasPartition(key) {
			continue
		}
		if best == nil || b.PartitionCount() < best.PartitionCount() ||
			(b.PartitionCount() == best.PartitionCount() && b.ID < best.ID) {
			best = b
		}
	}
	if best == nil {
		return 0, false
	}
	return best.ID, true
}

// RemoveReplica decreases partition key's replication factor by count,
// preferring to remove out-of-sync replicas, per spec.md section 4.3.5.
func RemoveReplica(ct *topo.ClusterTopology, key topo.PartitionKey, outOfSyncIDs []int, count int) (*Result, error) {
	p, ok := ct.Partition(key)
	if !ok {
		return nil, &topo.InvalidPartitionError{Key: key}
	}
	if p.ReplicationFactor() <= count {
		return nil, &topo.InvalidReplicationFactorError{
			Message: fmt.Sprintf("cannot remove %d replicas: replication factor is only %d", count, p.ReplicationFactor()),
		}
	}

	var osr []int
	for _, id := range outOfSyncIDs {
		if _, ok := ct.Broker(id); !ok {
			return nil, &topo.InvalidBrokerIdError{ID: id}
		}
		if p.HasReplica(id) {
			osr = append(osr, id)
		}
	}

	result := &Result{}

	groupOf := func(id int) string {
		b, _ := ct.Broker(id)
		return b.ReplicationGroupID
	}

	for i := 0; i < count; i++ {
		p, _ = ct.Partition(key)

		var nonEmpty []string
		for _, g := range ct.GroupIDs() {
			if ct.CountReplicaInGroup(g, key) > 0 {
				nonEmpty = append(nonEmpty, g)
			}
		}

		groupHasOSR := func(g string) bool {
			for _, id := range osr {
				if groupOf(id) == g {
					return true
				}
			}
			return false
		}
		var rgsWithOSR []string
		for _, g := range nonEmpty {
			if groupHasOSR(g) {
				rgsWithOSR = append(rgsWithOSR, g)
			}
		}

		candidates := rgsWithOSR
		if len(candidates) == 0 {
			candidates = nonEmpty
		}
		if len(candidates) == 0 {
			return result, &topo.RebalanceError{Message: "no replication group holds this partition"}
		}

		load := func(g string) int { return ct.CountReplicaInGroup(g, key) }
		totalReplicas := 0
		for _, g := range candidates {
			totalReplicas += load(g)
		}
		optReplicaCnt, _, _ := topo.ComputeOptimum(len(candidates), totalReplicas)

		var overReplicated []string
		for _, g := range candidates {
			if load(g) > optReplicaCnt {
				overReplicated = append(overReplicated, g)
			}
		}
		finalCandidates := overReplicated
		if len(finalCandidates) == 0 {
			finalCandidates = candidates
		}

		// "most overall partitions, tie-break by group id descending"
		g, _ := pickExtreme(finalCandidates, func(g string) int { return totalPartitionsInGroup(ct, g) }, true, false)

		var osrInG []int
		for _, id := range osr {
			if groupOf(id) == g && p.HasReplica(id) {
				osrInG = append(osrInG, id)
			}
		}

		var brokerID int
		if len(osrInG) > 0 {
			sort.Ints(osrInG)
			brokerID = osrInG[0]
		} else {
			var best *topo.Broker
			for _, b := range ct.BrokersInGroup(g) {
				if !b.HasPartition(key) {
					continue
				}
				if best == nil || b.PartitionCount() > best.PartitionCount() ||
					(b.PartitionCount() == best.PartitionCount() && b.ID < best.ID) {
					best = b
				}
			}
			if best == nil {
				return result, &topo.RebalanceError{Message: "no broker to remove in group " + g}
			}
			brokerID = best.ID
		}

		if err := ct.RemoveReplica(key, brokerID); err != nil {
			return result, err
		}
		result.Removals = append(result.Removals, ReplicaChange{Partition: key, Broker: brokerID})
		result.trace("remove_replica: removed broker %d from %s/%d (group %s)", brokerID, key.Topic, key.Index, g)

		newOSR := osr[:0]
		for _, id := range osr {
			if p.HasReplica(id) {
				newOSR = append(newOSR, id)
			}
		}
		osr = newOSR
	}

	p, _ = ct.Partition(key)
	var newLeader int
	var bestLeaderCount = -1
	for _, id := range p.Replicas {
		b, _ := ct.Broker(id)
		if bestLeaderCount == -1 || b.LeaderCount() < bestLeaderCount ||
			(b.LeaderCount() == bestLeaderCount && id < newLeader) {
			newLeader, bestLeaderCount = id, b.LeaderCount()
		}
	}
	if err := ct.SwapLeader(key, newLeader); err != nil {
		return result, err
	}

	return result, nil
}

// leaderSwap is one hop of an augmenting chain found by the leader-rebalance
// DFS: partition key should end up led by newLeader.
type leaderSwap struct {
	key       topo.PartitionKey
	newLeader int
}

// rebalanceLeaders implements spec.md section 4.3.3: pull leadership
// toward brokers leading fewer than opt partitions, then push it away from
// brokers leading more than opt+1, via bounded DFS over the
// leads/follows graph. Brokers are visited in ascending id order for
// determinism; the search stops short of optimality rather than violating
// the movement budget or looping.
func rebalanceLeaders(ct *topo.ClusterTopology, result *Result, opts RebalanceOptions) {
	totalBrokers := len(ct.BrokerIDs())
	if totalBrokers == 0 {
		return
	}
	opt, _, _ := topo.ComputeOptimum(totalBrokers, len(ct.PartitionKeys()))

	for _, id := range ct.BrokerIDs() {
		for {
			b, ok := ct.Broker(id)
			if !ok || b.LeaderCount() >= opt {
				break
			}
			if leaderBudgetExhausted(result, opts) {
				return
			}
			visited := map[int]bool{}
			chain := findPullChain(ct, id, opt, visited)
			if chain == nil {
				break
			}
			applyLeaderChain(ct, result, opts, chain, true)
		}
	}

	for _, id := range ct.BrokerIDs() {
		for {
			b, ok := ct.Broker(id)
			if !ok || b.LeaderCount() <= opt+1 {
				break
			}
			if leaderBudgetExhausted(result, opts) {
				return
			}
			visited := map[int]bool{}
			chain := findPushChain(ct, id, opt, visited)
			if chain == nil {
				break
			}
			applyLeaderChain(ct, result, opts, chain, false)
		}
	}
}

// findPullChain searches, from taker, for an augmenting chain that ends
// leadership at a broker with a genuine surplus (more than opt leaders),
// so handing taker one more leadership never drops that donor below opt.
// Partitions are scanned in (topic, index) order within each broker for
// determinism; brokers already visited anywhere in this search are skipped.
func findPullChain(ct *topo.ClusterTopology, taker, opt int, visited map[int]bool) []leaderSwap {
	if visited[taker] {
		return nil
	}
	visited[taker] = true

	b, ok := ct.Broker(taker)
	if !ok {
		return nil
	}

	for _, key := range b.PartitionKeys() {
		if b.IsLeaderOf(key) {
			continue
		}
		p, ok := ct.Partition(key)
		if !ok {
			continue
		}
		donor := p.PreferredLeader()
		if donor == taker {
			continue
		}
		donorBroker, ok := ct.Broker(donor)
		if !ok {
			continue
		}

		if donorBroker.LeaderCount() > opt {
			return []leaderSwap{{key: key, newLeader: taker}}
		}
		if visited[donor] {
			continue
		}
		if sub := findPullChain(ct, donor, opt, visited); sub != nil {
			return append([]leaderSwap{{key: key, newLeader: taker}}, sub...)
		}
	}

	return nil
}

// findPushChain is findPullChain's mirror image: from donor, it searches
// for an augmenting chain that ends at a broker with a genuine deficit
// (fewer than opt leaders), so giving that broker a leadership never needs
// to be paid back.
func findPushChain(ct *topo.ClusterTopology, donor, opt int, visited map[int]bool) []leaderSwap {
	if visited[donor] {
		return nil
	}
	visited[donor] = true

	b, ok := ct.Broker(donor)
	if !ok {
		return nil
	}

	for _, key := range b.PartitionKeys() {
		if !b.IsLeaderOf(key) {
			continue
		}
		p, ok := ct.Partition(key)
		if !ok {
			continue
		}

		for _, follower := range p.Replicas {
			if follower == donor {
				continue
			}
			fb, ok := ct.Broker(follower)
			if !ok {
				continue
			}
			if fb.LeaderCount() < opt {
				return []leaderSwap{{key: key, newLeader: follower}}
			}
		}

		for _, follower := range p.Replicas {
			if follower == donor || visited[follower] {
				continue
			}
			if sub := findPushChain(ct, follower, opt, visited); sub != nil {
				return append([]leaderSwap{{key: key, newLeader: follower}}, sub...)
			}
		}
	}

	return nil
}

// applyLeaderChain realizes an augmenting chain found by findPullChain
// (reverse order: the deepest, genuinely-surplus hop first) or
// findPushChain (forward order: the donor's own hop first), so every
// intermediate broker's leader count nets to zero change.
func applyLeaderChain(ct *topo.ClusterTopology, result *Result, opts RebalanceOptions, chain []leaderSwap, reverse bool) {
	steps := chain
	if reverse {
		steps = make([]leaderSwap, len(chain))
		for i, s := range chain {
			steps[len(chain)-1-i] = s
		}
	}

	for _, step := range steps {
		if leaderBudgetExhausted(result, opts) {
			return
		}
		if err := ct.SwapLeader(step.key, step.newLeader); err != nil {
			continue
		}
		result.LeaderChanges = append(result.LeaderChanges, LeaderChange{Partition: step.key, NewLeader: step.newLeader})
		result.trace("rebalance_leaders: %s/%d now led by broker %d", step.key.Topic, step.key.Index, step.newLeader)
	}
}
