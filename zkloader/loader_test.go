package zkloader

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/samuel/go-zookeeper/zk"

	topo "github.com/anthonysandrin/kafka-rebalancer/topology"
)

// fakeConn is a minimal in-memory zkConn that stands in for a live
// ZooKeeper connection in tests.
type fakeConn struct {
	children map[string][]string
	data     map[string][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{children: map[string][]string{}, data: map[string][]byte{}}
}

func (f *fakeConn) Children(path string) ([]string, *zk.Stat, error) {
	return f.children[path], nil, nil
}

func (f *fakeConn) Get(path string) ([]byte, *zk.Stat, error) {
	return f.data[path], nil, nil
}

func (f *fakeConn) Close() {}

func rack(s string) *string { return &s }

func buildFakeCluster() *fakeConn {
	f := newFakeConn()

	f.children[brokerIDsPath] = []string{"1", "2", "3"}
	f.data[brokerIDsPath+"/1"], _ = json.Marshal(brokerMeta{Rack: rack("a")})
	f.data[brokerIDsPath+"/2"], _ = json.Marshal(brokerMeta{Rack: rack("b")})
	f.data[brokerIDsPath+"/3"], _ = json.Marshal(brokerMeta{})

	f.children[brokerTopicDir] = []string{"orders", "internal-offsets"}
	f.data[brokerTopicDir+"/orders"], _ = json.Marshal(topicMeta{
		Version: 1,
		Partitions: map[string][]int{
			"0": {1, 2},
			"1": {2, 3},
		},
	})
	f.data[brokerTopicDir+"/internal-offsets"], _ = json.Marshal(topicMeta{
		Version:    1,
		Partitions: map[string][]int{"0": {1}},
	})

	return f
}

func TestLoadTopologyBuildsBrokersAndMatchingTopics(t *testing.T) {
	l := newLoaderWithConn(buildFakeCluster(), "")

	ct, err := l.LoadTopology([]*regexp.Regexp{regexp.MustCompile("^orders$")})
	if err != nil {
		t.Fatalf("LoadTopology: %s", err)
	}

	for _, id := range []int{1, 2, 3} {
		if _, ok := ct.Broker(id); !ok {
			t.Errorf("expected broker %d to be loaded", id)
		}
	}

	if _, ok := ct.Partition(topo.PartitionKey{Topic: "orders", Index: 0}); !ok {
		t.Errorf("expected orders/0 to be loaded")
	}
	if _, ok := ct.Partition(topo.PartitionKey{Topic: "internal-offsets", Index: 0}); ok {
		t.Errorf("internal-offsets should not match the pattern")
	}
}

func TestLoadTopologyDefaultsGroupWhenRackMissing(t *testing.T) {
	l := newLoaderWithConn(buildFakeCluster(), "")

	ct, err := l.LoadTopology([]*regexp.Regexp{regexp.MustCompile("^orders$")})
	if err != nil {
		t.Fatalf("LoadTopology: %s", err)
	}

	b, ok := ct.Broker(3)
	if !ok {
		t.Fatalf("Broker(3) not found")
	}
	if b.ReplicationGroupID != defaultReplicationGroup {
		t.Errorf("group = %q, want %q", b.ReplicationGroupID, defaultReplicationGroup)
	}
}

func TestLoadTopologyErrorsWhenNoTopicMatches(t *testing.T) {
	l := newLoaderWithConn(buildFakeCluster(), "")

	_, err := l.LoadTopology([]*regexp.Regexp{regexp.MustCompile("^nothing-matches$")})
	if err == nil {
		t.Fatal("expected an error when no topic matches the given patterns")
	}
}
