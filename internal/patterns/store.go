package patterns

import (
	"hash/fnv"
	"sync"

	"github.com/stitts-dev/edge-engine/internal/types"
)

// signalStore collects PatternSignals from concurrently running layers.
// Appends are sharded by game id so one busy shard never serializes the
// whole extraction.
type signalStore struct {
	shards []signalShard
}

type signalShard struct {
	mu      sync.Mutex
	signals map[string][]types.PatternSignal
}

func newSignalStore(shardCount int) *signalStore {
	if shardCount < 1 {
		shardCount = 1
	}
	store := &signalStore{shards: make([]signalShard, shardCount)}
	for i := range store.shards {
		store.shards[i].signals = make(map[string][]types.PatternSignal)
	}
	return store
}

func (s *signalStore) shardFor(gameID string) *signalShard {
	h := fnv.New32a()
	h.Write([]byte(gameID))
	return &s.shards[int(h.Sum32())%len(s.shards)]
}

// Append attaches a signal to its game. Safe for concurrent use.
func (s *signalStore) Append(signal types.PatternSignal) {
	shard := s.shardFor(signal.GameID)
	shard.mu.Lock()
	shard.signals[signal.GameID] = append(shard.signals[signal.GameID], signal)
	shard.mu.Unlock()
}

// Snapshot merges all shards into one gameID -> signals map. Called after
// every layer has finished.
func (s *signalStore) Snapshot() map[string][]types.PatternSignal {
	merged := make(map[string][]types.PatternSignal)
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		for gameID, signals := range shard.signals {
			merged[gameID] = append(merged[gameID], signals...)
		}
		shard.mu.Unlock()
	}
	return merged
}

// Count returns the total number of stored signals.
func (s *signalStore) Count() int {
	total := 0
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		for _, signals := range shard.signals {
			total += len(signals)
		}
		shard.mu.Unlock()
	}
	return total
}
