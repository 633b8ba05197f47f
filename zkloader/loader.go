// Package zkloader builds a topology.ClusterTopology from the broker and
// topic metadata Kafka itself keeps in ZooKeeper, mirroring the znode
// layout kafkazk.PartitionMapFromZK reads (teacher: kafkazk/partitions.go).
package zkloader

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/samuel/go-zookeeper/zk"

	topo "github.com/anthonysandrin/kafka-rebalancer/topology"
)

const (
	brokerIDsPath  = "/brokers/ids"
	brokerTopicDir = "/brokers/topics"

	defaultReplicationGroup = "default"
)

// Config addresses a ZooKeeper ensemble. Chroot, if set, is prefixed to
// every path (e.g. "/kafka" for a cluster namespaced under /kafka).
type Config struct {
	Addrs   []string
	Timeout time.Duration
	Chroot  string
}

// zkConn is the subset of *zk.Conn this package uses. Tests substitute a
// fake implementation so LoadTopology can be exercised without a live
// ZooKeeper ensemble.
type zkConn interface {
	Children(path string) ([]string, *zk.Stat, error)
	Get(path string) ([]byte, *zk.Stat, error)
	Close()
}

// Loader reads cluster metadata from ZooKeeper. It holds a live connection;
// callers must Close it.
type Loader struct {
	conn   zkConn
	chroot string
}

// Dial connects to the ZooKeeper ensemble described by cfg.
func Dial(cfg Config) (*Loader, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	conn, _, err := zk.Connect(cfg.Addrs, timeout)
	if err != nil {
		return nil, fmt.Errorf("zkloader: connecting to zookeeper: %w", err)
	}

	return &Loader{conn: conn, chroot: cfg.Chroot}, nil
}

// Close releases the ZooKeeper connection.
func (l *Loader) Close() {
	l.conn.Close()
}

// newLoaderWithConn builds a Loader around an existing connection; used by
// tests to inject a fake zkConn.
func newLoaderWithConn(conn zkConn, chroot string) *Loader {
	return &Loader{conn: conn, chroot: chroot}
}

func (l *Loader) path(p string) string {
	return l.chroot + p
}

type brokerMeta struct {
	Rack *string `json:"rack"`
}

type topicMeta struct {
	Version    int              `json:"version"`
	Partitions map[string][]int `json:"partitions"`
}

// LoadTopology builds a topology.ClusterTopology from every broker
// registered in ZooKeeper and every topic whose name matches at least one
// of the supplied patterns. Rack (when set) becomes the broker's
// replication group id; brokers with no rack are placed in a single
// "default" group, matching a common single-AZ test deployment.
func (l *Loader) LoadTopology(patterns []*regexp.Regexp) (*topo.ClusterTopology, error) {
	ct := topo.New()

	brokerIDs, _, err := l.conn.Children(l.path(brokerIDsPath))
	if err != nil {
		return nil, fmt.Errorf("zkloader: listing brokers: %w", err)
	}
	sort.Strings(brokerIDs)

	for _, idStr := range brokerIDs {
		var id int
		if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
			continue
		}

		data, _, err := l.conn.Get(l.path(brokerIDsPath + "/" + idStr))
		if err != nil {
			return nil, fmt.Errorf("zkloader: reading broker %d: %w", id, err)
		}

		var meta brokerMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("zkloader: parsing broker %d metadata: %w", id, err)
		}

		group := defaultReplicationGroup
		if meta.Rack != nil && *meta.Rack != "" {
			group = *meta.Rack
		}

		ct.AddBroker(id, group, false, false)
	}

	topicNames, _, err := l.conn.Children(l.path(brokerTopicDir))
	if err != nil {
		return nil, fmt.Errorf("zkloader: listing topics: %w", err)
	}
	sort.Strings(topicNames)

	matched := make([]string, 0, len(topicNames))
	for _, name := range topicNames {
		for _, p := range patterns {
			if p.MatchString(name) {
				matched = append(matched, name)
				break
			}
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("zkloader: no topics found matching the given patterns")
	}

	for _, name := range matched {
		data, _, err := l.conn.Get(l.path(brokerTopicDir + "/" + name))
		if err != nil {
			return nil, fmt.Errorf("zkloader: reading topic %s: %w", name, err)
		}

		var meta topicMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("zkloader: parsing topic %s metadata: %w", name, err)
		}

		indexes := make([]string, 0, len(meta.Partitions))
		for idx := range meta.Partitions {
			indexes = append(indexes, idx)
		}
		sort.Strings(indexes)

		for _, idxStr := range indexes {
			var idx int
			if _, err := fmt.Sscanf(idxStr, "%d", &idx); err != nil {
				continue
			}
			if _, err := ct.AddPartition(name, idx, meta.Partitions[idxStr]); err != nil {
				return nil, fmt.Errorf("zkloader: adding %s/%d: %w", name, idx, err)
			}
		}
	}

	return ct, nil
}
