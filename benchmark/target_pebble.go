package benchmark

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/rs/zerolog/log"
)

const (
	pebbleOpGet = iota
	pebbleOpSet
	pebbleOpDelete
)

const (
	defaultPebbleValueSize = 32
	pebbleMemDir           = "csb-pebble"
	pebblePreloadBatch     = 1000
)

var pebbleOpNames = []string{"op0_get", "op1_set", "op2_delete"}

// PebbleTarget benchmarks point operations on a Pebble store. The store is
// preloaded with init size keys; every operation draws its key uniformly
// from that range.
type PebbleTarget struct{}

type pebbleHandle struct {
	db    *pebble.DB
	cache *pebble.Cache

	keys      *Keyspace
	keyRange  uint64
	valueSize int
	store     string
	seed      uint64
}

type pebbleThread struct {
	tid   int
	rng   *Rand
	value []byte
}

func (PebbleTarget) Name() string { return "bm_pebble" }

func (PebbleTarget) OperationCount() int { return len(pebbleOpNames) }

func (PebbleTarget) OperationName(op int) string { return pebbleOpNames[op] }

// Init opens the store and preloads it. An empty directory keeps the store in
// memory.
func (PebbleTarget) Init(cfg TargetConfig) (Handle, error) {
	pc := cfg.Pebble
	if pc.ValueSize <= 0 {
		pc.ValueSize = defaultPebbleValueSize
	}

	opts := &pebble.Options{}
	dir, store := pc.Dir, pc.Dir
	if dir == "" {
		opts.FS = vfs.NewMem()
		dir, store = pebbleMemDir, "mem"
	}

	var cache *pebble.Cache
	if pc.BlockCacheSize >= 0 {
		cache = pebble.NewCache(pc.BlockCacheSize)
		opts.Cache = cache
		log.Info().Int64("block_cache_size", pc.BlockCacheSize).Msg("Created Pebble with block cache")
	} else {
		log.Info().Msg("Created Pebble with block cache disabled")
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		if cache != nil {
			cache.Unref()
		}
		return nil, fmt.Errorf("open pebble at %s: %w", store, err)
	}

	keys := NewKeyspace(NewRand(cfg.Seed, 0), defaultPrefixGroups)
	if pc.KeysFile != "" {
		fixed, err := LoadKeys(pc.KeysFile)
		if err == nil && len(fixed) == 0 {
			err = fmt.Errorf("no keys in %s", pc.KeysFile)
		}
		if err != nil {
			db.Close()
			if cache != nil {
				cache.Unref()
			}
			return nil, err
		}
		keys = NewFixedKeyspace(fixed)
		log.Info().Int("keys", len(fixed)).Str("file", pc.KeysFile).Msg("Loaded keys file")
	}

	h := &pebbleHandle{
		db:        db,
		cache:     cache,
		keys:      keys,
		keyRange:  max(uint64(cfg.Workload.InitSize), 1),
		valueSize: pc.ValueSize,
		store:     store,
		seed:      cfg.Seed,
	}
	if err := h.preload(uint64(cfg.Workload.InitSize)); err != nil {
		h.Destroy()
		return nil, err
	}
	return h, nil
}

func (h *pebbleHandle) preload(n uint64) error {
	rng := NewRand(h.seed, 1)
	value := make([]byte, h.valueSize)

	batch := h.db.NewBatch()
	for i := uint64(0); i < n; i++ {
		rng.Fill(value)
		if err := batch.Set(h.keys.Key(i), value, nil); err != nil {
			batch.Close()
			return fmt.Errorf("preload key %d: %w", i, err)
		}
		if batch.Count() >= pebblePreloadBatch {
			if err := commitBatch(batch); err != nil {
				return err
			}
			batch = h.db.NewBatch()
		}
	}
	if err := commitBatch(batch); err != nil {
		return err
	}
	if err := h.db.Flush(); err != nil {
		return fmt.Errorf("preload flush: %w", err)
	}
	log.Info().Uint64("keys", n).Str("store", h.store).Msg("Preloaded Pebble")
	return nil
}

func commitBatch(b *pebble.Batch) error {
	defer b.Close()
	if err := b.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("preload commit: %w", err)
	}
	return nil
}

func (h *pebbleHandle) RegisterThread(tid int) (ThreadContext, error) {
	return &pebbleThread{
		tid:   tid,
		rng:   NewRand(h.seed, uint64(tid)+2),
		value: make([]byte, h.valueSize),
	}, nil
}

func (h *pebbleHandle) Dispatch(tc ThreadContext, op int) OpResult {
	t := tc.(*pebbleThread)
	key := h.keys.Key(t.rng.Between(0, h.keyRange-1))
	res := OpResult{Attempted: 1}

	var err error
	switch op {
	case pebbleOpGet:
		var closer io.Closer
		_, closer, err = h.db.Get(key)
		if err == nil {
			err = closer.Close()
		}
	case pebbleOpSet:
		t.rng.Fill(t.value)
		err = h.db.Set(key, t.value, pebble.NoSync)
	case pebbleOpDelete:
		err = h.db.Delete(key, pebble.NoSync)
	default:
		panic(fmt.Sprintf("benchmark: pebble operation %d out of range", op))
	}

	if err == nil {
		res.Succeeded = 1
	} else if !errors.Is(err, pebble.ErrNotFound) {
		log.Debug().Err(err).Int("tid", t.tid).Str("op", pebbleOpNames[op]).Msg("Pebble operation failed")
	}
	return res
}

func (h *pebbleHandle) DeregisterThread(ThreadContext, int) {}

func (h *pebbleHandle) ExtraInfo() string {
	return "pebble_store=" + h.store + ",pebble_value_size=" + strconv.Itoa(h.valueSize)
}

func (h *pebbleHandle) logMetrics() {
	m := h.db.Metrics()
	ev := log.Info().
		Str("store", h.store).
		Int64("compactions", m.Compact.Count).
		Int64("flushes", m.Flush.Count).
		Uint64("memtable_size", m.MemTable.Size)
	if h.cache != nil {
		cm := h.cache.Metrics()
		ev = ev.Int64("cache_size", cm.Size).Int64("cache_hits", cm.Hits).Int64("cache_misses", cm.Misses)
	}
	ev.Msg("Pebble metrics")
}

func (h *pebbleHandle) Destroy() error {
	var err error
	if h.db != nil {
		h.logMetrics()
		err = h.db.Close()
		h.db = nil
	}
	if h.cache != nil {
		h.cache.Unref()
		h.cache = nil
	}
	return err
}
