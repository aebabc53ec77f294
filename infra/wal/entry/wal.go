package entry

import (
	"encoding/binary"
	"os"
	"sync"
	"time"
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration // 0 disables time-based rotation
	// SyncEveryWrite fsyncs after each append.
	SyncEveryWrite bool
}

type WAL struct {
	mu sync.Mutex

	dir        string
	segSize    int64
	segDur     time.Duration
	syncWrites bool

	current    *segment
	lastRotate time.Time
}

// Open starts a fresh segment after the newest existing one, so a torn
// frame left by a crash is never followed by new records.
func Open(cfg Config) (*WAL, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	index := 0
	files, err := segments(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if n := len(files); n > 0 {
		if idx, ok := segmentIndex(files[n-1]); ok {
			index = idx + 1
		}
	}

	seg, err := openSegment(cfg.Dir, index)
	if err != nil {
		return nil, err
	}

	return &WAL{
		dir:        cfg.Dir,
		segSize:    cfg.SegmentSize,
		segDur:     cfg.SegmentDuration,
		syncWrites: cfg.SyncEveryWrite,
		current:    seg,
		lastRotate: time.Now(),
	}, nil
}

func (w *WAL) Append(r *Record) error {
	payloadLen := uint32(len(r.Data))

	buf := make([]byte, headerSize+payloadLen+4)
	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[headerSize:], r.Data)

	crc := checksum(buf[:headerSize+payloadLen])
	binary.BigEndian.PutUint32(buf[headerSize+payloadLen:], crc)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.current.append(buf); err != nil {
		return err
	}
	if w.syncWrites {
		if err := w.current.sync(); err != nil {
			return err
		}
	}

	if w.shouldRotate() {
		return w.rotate()
	}
	return nil
}

func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current.sync()
}

func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.current.sync(); err != nil {
		_ = w.current.close()
		return err
	}
	return w.current.close()
}

func (w *WAL) shouldRotate() bool {
	if w.segSize > 0 && w.current.offset >= w.segSize {
		return true
	}
	return w.segDur > 0 && time.Since(w.lastRotate) >= w.segDur
}

func (w *WAL) rotate() error {
	if err := w.current.sync(); err != nil {
		return err
	}
	_ = w.current.close()

	seg, err := openSegment(w.dir, w.current.index+1)
	if err != nil {
		return err
	}
	w.current = seg
	w.lastRotate = time.Now()
	return nil
}

// TruncateBefore removes closed segments whose records all have
// seq <= seq. The active segment is never removed.
func (w *WAL) TruncateBefore(seq uint64) error {
	w.mu.Lock()
	active := segmentPath(w.dir, w.current.index)
	w.mu.Unlock()

	files, err := segments(w.dir)
	if err != nil {
		return err
	}

	for _, path := range files {
		if path == active {
			continue
		}
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq <= seq {
			if err := os.Remove(path); err != nil {
				return err
			}
		}
	}
	return nil
}
