package lock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeZK минимальное in-memory дерево узлов с наблюдателями
type fakeZK struct {
	mu       sync.Mutex
	nodes    map[string]bool
	seq      int
	watchers map[string][]chan zk.Event
}

func newFakeZK() *fakeZK {
	return &fakeZK{nodes: map[string]bool{}, watchers: map[string][]chan zk.Event{}}
}

func (f *fakeZK) Exists(path string) (bool, *zk.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodes[path], nil, nil
}

func (f *fakeZK) ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan zk.Event, 1)
	f.watchers[path] = append(f.watchers[path], ch)
	return f.nodes[path], nil, ch, nil
}

func (f *fakeZK) Create(path string, _ []byte, _ int32, _ []zk.ACL) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nodes[path] {
		return "", zk.ErrNodeExists
	}
	f.nodes[path] = true
	return path, nil
}

func (f *fakeZK) CreateProtectedEphemeralSequential(path string, _ []byte, _ []zk.ACL) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	dir := path[:strings.LastIndex(path, "/")]
	name := fmt.Sprintf("%s/_c_%08x-%s%010d", dir, 0xffffffff-f.seq, path[len(dir)+1:], f.seq)
	f.nodes[name] = true
	return name, nil
}

func (f *fakeZK) Children(path string) ([]string, *zk.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var children []string
	for node := range f.nodes {
		if strings.HasPrefix(node, path+"/") && !strings.Contains(node[len(path)+1:], "/") {
			children = append(children, node[len(path)+1:])
		}
	}
	return children, nil, nil
}

func (f *fakeZK) Delete(path string, _ int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.nodes[path] {
		return zk.ErrNoNode
	}
	delete(f.nodes, path)
	for _, ch := range f.watchers[path] {
		ch <- zk.Event{Type: zk.EventNodeDeleted, Path: path}
	}
	delete(f.watchers, path)
	return nil
}

func TestZooKeeper_AcquireWaitsForPredecessor(t *testing.T) {
	conn := newFakeZK()
	l := NewZooKeeper(conn, "/booking/slots", 500*time.Millisecond)
	ctx := context.Background()

	first, err := l.Acquire(ctx, "1:2026-01-01:10:00")
	require.NoError(t, err)
	assert.True(t, conn.nodes["/booking/slots"], "base path is created")

	acquired := make(chan Release)
	go func() {
		second, err := l.Acquire(ctx, "1:2026-01-01:10:00")
		if err == nil {
			acquired <- second
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire must wait for the first owner")
	case <-time.After(30 * time.Millisecond):
	}

	require.NoError(t, first(ctx))

	select {
	case second := <-acquired:
		require.NoError(t, second(ctx))
	case <-time.After(time.Second):
		t.Fatal("second acquire was not granted after release")
	}
}

func TestZooKeeper_Timeout(t *testing.T) {
	conn := newFakeZK()
	l := NewZooKeeper(conn, "/locks", 20*time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	defer release(ctx)

	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ErrTimeout)

	children, _, _ := conn.Children("/locks/k")
	assert.Len(t, children, 1, "waiting node is removed on timeout")
}

func TestSortBySequence(t *testing.T) {
	nodes := []string{"_c_bbb-lock-0000000003", "_c_aaa-lock-0000000010", "_c_ccc-lock-0000000001"}
	sortBySequence(nodes)
	assert.Equal(t, []string{"_c_ccc-lock-0000000001", "_c_bbb-lock-0000000003", "_c_aaa-lock-0000000010"}, nodes)
}
