package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDB persists run output to an embedded on-disk key-value store: the
// Go analogue of the original simulator's direct Redis calls
// (original_source/block.py Block.store, original_source/miner.py
// Miner.store/allocate_id). Keys are flat strings; there is no schema
// beyond the "counter:<domain>", "<path>:<field>", and "idx:<set>" prefixes
// below, which is adequate for a tool whose only reader is offline
// inspection after a run finishes.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (creating if absent) a LevelDB store rooted at dir. It
// returns *ErrUnreachable, never a bare leveldb error, so callers can treat
// "persistence unreachable" as the single fail-soft case spec.md §7 names.
func OpenLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, &ErrUnreachable{Cause: err}
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Clear() error {
	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()
	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("store: clear: %w", err)
	}
	return l.db.Write(batch, nil)
}

func (l *LevelDB) AllocateID(domain string) (int64, error) {
	key := []byte("counter:" + domain)
	var next int64
	v, err := l.db.Get(key, nil)
	switch {
	case err == leveldb.ErrNotFound:
		next = 0
	case err != nil:
		return 0, fmt.Errorf("store: allocate_id(%s): %w", domain, err)
	default:
		cur, perr := strconv.ParseInt(string(v), 10, 64)
		if perr != nil {
			return 0, fmt.Errorf("store: allocate_id(%s): corrupt counter: %w", domain, perr)
		}
		next = cur + 1
	}
	if err := l.db.Put(key, []byte(strconv.FormatInt(next, 10)), nil); err != nil {
		return 0, fmt.Errorf("store: allocate_id(%s): %w", domain, err)
	}
	return next, nil
}

func (l *LevelDB) Record(path string, fields map[string]interface{}) error {
	batch := new(leveldb.Batch)
	for field, v := range fields {
		key := []byte(path + ":" + field)
		batch.Put(key, []byte(fmt.Sprintf("%v", v)))
	}
	if err := l.db.Write(batch, nil); err != nil {
		return fmt.Errorf("store: record(%s): %w", path, err)
	}
	return nil
}

// RecordIndex maintains an ordered set by encoding score as a fixed-width,
// sign-flipped big-endian key prefix so LevelDB's natural byte-order
// iteration yields ascending score order; members sharing a score are
// ordered by the bytes of their key, which is the key suffix.
func (l *LevelDB) RecordIndex(set string, score float64, key string) error {
	bits := math.Float64bits(score)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	var scoreBytes [8]byte
	binary.BigEndian.PutUint64(scoreBytes[:], bits)
	idxKey := []byte("idx:" + set + ":" + string(scoreBytes[:]) + ":" + key)
	if err := l.db.Put(idxKey, []byte(key), nil); err != nil {
		return fmt.Errorf("store: record_index(%s): %w", set, err)
	}
	return nil
}

// Members returns every key recorded under set via RecordIndex, in
// ascending score order. Used by tests for offline inspection.
func (l *LevelDB) Members(set string) ([]string, error) {
	prefix := []byte("idx:" + set + ":")
	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()
	var out []string
	for iter.Next() {
		if !strings.HasPrefix(string(iter.Key()), string(prefix)) {
			continue
		}
		out = append(out, string(iter.Value()))
	}
	return out, iter.Error()
}

func (l *LevelDB) Close() error { return l.db.Close() }
