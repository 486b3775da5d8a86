package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

const nodePrefix = "lock-"

// ZKConn подмножество *zk.Conn, используемое блокировкой
type ZKConn interface {
	Exists(path string) (bool, *zk.Stat, error)
	ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error)
	Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
	CreateProtectedEphemeralSequential(path string, data []byte, acl []zk.ACL) (string, error)
	Children(path string) ([]string, *zk.Stat, error)
	Delete(path string, version int32) error
}

// ZooKeeper распределенная блокировка на эфемерных последовательных узлах.
// Владелец - узел с наименьшим номером, остальные следят за предшественником.
// Эфемерные узлы исчезают вместе с сессией упавшего владельца
type ZooKeeper struct {
	conn     ZKConn
	basePath string
	wait     time.Duration
}

func NewZooKeeper(conn ZKConn, basePath string, wait time.Duration) *ZooKeeper {
	return &ZooKeeper{conn: conn, basePath: strings.TrimRight(basePath, "/"), wait: wait}
}

func (z *ZooKeeper) Acquire(ctx context.Context, key string) (Release, error) {
	lockPath := z.basePath + "/" + strings.ReplaceAll(key, "/", "_")
	if err := z.ensurePath(lockPath); err != nil {
		return nil, err
	}

	node, err := z.conn.CreateProtectedEphemeralSequential(lockPath+"/"+nodePrefix, []byte{}, zk.WorldACL(zk.PermAll))
	if err != nil {
		return nil, fmt.Errorf("%w: create sequential node: %v", ErrBackend, err)
	}
	release := func(context.Context) error {
		if err := z.conn.Delete(node, -1); err != nil && !errors.Is(err, zk.ErrNoNode) {
			return fmt.Errorf("%w: delete %s: %v", ErrBackend, node, err)
		}
		return nil
	}

	timer := time.NewTimer(z.wait)
	defer timer.Stop()

	myName := node[strings.LastIndex(node, "/")+1:]
	for {
		children, _, err := z.conn.Children(lockPath)
		if err != nil {
			_ = release(ctx)
			return nil, fmt.Errorf("%w: children of %s: %v", ErrBackend, lockPath, err)
		}
		sortBySequence(children)

		idx := indexOf(children, myName)
		if idx < 0 {
			return nil, fmt.Errorf("%w: own node %s disappeared", ErrBackend, node)
		}
		if idx == 0 {
			return release, nil
		}

		exists, _, events, err := z.conn.ExistsW(lockPath + "/" + children[idx-1])
		if err != nil {
			_ = release(ctx)
			return nil, fmt.Errorf("%w: watch predecessor: %v", ErrBackend, err)
		}
		if !exists {
			continue
		}

		select {
		case <-events:
		case <-timer.C:
			_ = release(ctx)
			return nil, fmt.Errorf("%w: key=%s after %s", ErrTimeout, key, z.wait)
		case <-ctx.Done():
			_ = release(ctx)
			return nil, ctx.Err()
		}
	}
}

// ensurePath создает недостающие постоянные узлы пути
func (z *ZooKeeper) ensurePath(path string) error {
	current := ""
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		current += "/" + part
		exists, _, err := z.conn.Exists(current)
		if err != nil {
			return fmt.Errorf("%w: exists %s: %v", ErrBackend, current, err)
		}
		if exists {
			continue
		}
		if _, err := z.conn.Create(current, []byte{}, 0, zk.WorldACL(zk.PermAll)); err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return fmt.Errorf("%w: create %s: %v", ErrBackend, current, err)
		}
	}
	return nil
}

// sortBySequence сортирует узлы по порядковому номеру. У защищенных узлов
// перед префиксом стоит GUID, поэтому лексикографическая сортировка имен не годится
func sortBySequence(nodes []string) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return sequenceOf(nodes[i]) < sequenceOf(nodes[j])
	})
}

func sequenceOf(node string) string {
	idx := strings.LastIndex(node, nodePrefix)
	if idx < 0 {
		return node
	}
	return node[idx+len(nodePrefix):]
}

func indexOf(nodes []string, name string) int {
	for i, n := range nodes {
		if n == name {
			return i
		}
	}
	return -1
}
