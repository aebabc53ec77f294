// Package exit is the trade outbox: every executed trade is stored here
// durably until the broadcaster has delivered it downstream.
package exit

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// -------------------- State --------------------

type ExitState uint8

const (
	StateNew ExitState = iota
	StateSent
	StateAcked
	StateFailed
)

func (s ExitState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Record --------------------

type ExitRecord struct {
	Seq         uint64
	State       ExitState
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

const recordHeader = 1 + 4 + 8

// binary encoding: [state:1][retries:4][lastAttempt:8][payload...]
func encodeRecord(r ExitRecord) []byte {
	buf := make([]byte, recordHeader+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[recordHeader:], r.Payload)
	return buf
}

func decodeRecord(seq uint64, b []byte) (ExitRecord, error) {
	if len(b) < recordHeader {
		return ExitRecord{}, errors.New("invalid exit record length")
	}
	return ExitRecord{
		Seq:         seq,
		State:       ExitState(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     append([]byte(nil), b[recordHeader:]...),
	}, nil
}

// -------------------- WAL --------------------

type ExitWAL struct {
	db *pebble.DB
}

func Open(dir string) (*ExitWAL, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open outbox: %w", err)
	}
	return &ExitWAL{db: db}, nil
}

func (w *ExitWAL) Close() error {
	return w.db.Close()
}

// -------------------- API --------------------

// PutNew stores a trade event awaiting delivery. Re-putting an existing
// seq is a no-op so replays cannot resurrect delivered events.
func (w *ExitWAL) PutNew(seq uint64, payload []byte) error {
	_, closer, err := w.db.Get(keyFor(seq))
	if err == nil {
		return closer.Close()
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return err
	}
	rec := ExitRecord{State: StateNew, Payload: payload}
	return w.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// UpdateState moves a record to state, keeping its payload.
func (w *ExitWAL) UpdateState(seq uint64, state ExitState, retries uint32) error {
	rec, err := w.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries = retries
	rec.LastAttempt = time.Now().UnixNano()
	return w.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

func (w *ExitWAL) MarkSent(seq uint64) error {
	rec, err := w.Get(seq)
	if err != nil {
		return err
	}
	return w.UpdateState(seq, StateSent, rec.Retries)
}

func (w *ExitWAL) MarkAcked(seq uint64) error {
	rec, err := w.Get(seq)
	if err != nil {
		return err
	}
	return w.UpdateState(seq, StateAcked, rec.Retries)
}

func (w *ExitWAL) MarkFailed(seq uint64) error {
	rec, err := w.Get(seq)
	if err != nil {
		return err
	}
	return w.UpdateState(seq, StateFailed, rec.Retries+1)
}

func (w *ExitWAL) Get(seq uint64) (ExitRecord, error) {
	val, closer, err := w.db.Get(keyFor(seq))
	if err != nil {
		return ExitRecord{}, err
	}
	defer closer.Close()

	return decodeRecord(seq, val)
}

// -------------------- Scan --------------------

// ScanByState iterates records in any of states, in seq order.
func (w *ExitWAL) ScanByState(fn func(rec ExitRecord) error, states ...ExitState) error {
	want := make(map[ExitState]bool, len(states))
	for _, s := range states {
		want[s] = true
	}

	iter, err := w.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeRecord(seq, iter.Value())
		if err != nil {
			return err
		}
		if !want[rec.State] {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// DeleteAckedUpTo garbage-collects delivered records with seq <= upTo.
func (w *ExitWAL) DeleteAckedUpTo(upTo uint64) (int, error) {
	var keys [][]byte
	err := w.ScanByState(func(rec ExitRecord) error {
		if rec.Seq <= upTo {
			keys = append(keys, keyFor(rec.Seq))
		}
		return nil
	}, StateAcked)
	if err != nil || len(keys) == 0 {
		return 0, err
	}

	b := w.db.NewBatch()
	defer b.Close()
	for _, k := range keys {
		if err := b.Delete(k, nil); err != nil {
			return 0, err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// -------------------- Helpers --------------------

const keyPrefix = "trade/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte(keyPrefix))), "%d", &seq)
	return seq, err
}
