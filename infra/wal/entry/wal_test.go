package entry

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

func appendN(t *testing.T, w *WAL, from, n uint64) {
	t.Helper()
	for seq := from; seq < from+n; seq++ {
		rec := NewRecord(RecordOffer, seq, time.Now().UnixNano(), []byte(fmt.Sprintf("cmd-%d", seq)))
		if err := w.Append(rec); err != nil {
			t.Fatalf("append %d: %v", seq, err)
		}
	}
}

func collect(t *testing.T, dir string, after uint64) ([]*Record, uint64) {
	t.Helper()
	var out []*Record
	last, err := Replay(dir, after, func(r *Record) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	return out, last
}

func TestWAL_AppendAndReplay(t *testing.T) {
	dir := t.TempDir()

	// --- write phase ---
	w, err := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	appendN(t, w, 1, 100)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// --- replay phase ---
	recs, last := collect(t, dir, 0)
	if len(recs) != 100 || last != 100 {
		t.Fatalf("replayed %d records, last %d", len(recs), last)
	}
	if string(recs[41].Data) != "cmd-42" || recs[41].Type != RecordOffer {
		t.Fatalf("unexpected record %+v", recs[41])
	}

	recs, last = collect(t, dir, 90)
	if len(recs) != 10 || recs[0].Seq != 91 || last != 100 {
		t.Fatalf("after filter: %d records, first %d, last %d", len(recs), recs[0].Seq, last)
	}
}

func TestWAL_ReopenStartsNewSegment(t *testing.T) {
	dir := t.TempDir()

	w, _ := Open(Config{Dir: dir, SegmentSize: 256})
	appendN(t, w, 1, 30)
	w.Close()

	files, _ := segments(dir)
	if len(files) < 2 {
		t.Fatalf("expected rotation, found %d segments", len(files))
	}

	w, err := Open(Config{Dir: dir, SegmentSize: 256})
	if err != nil {
		t.Fatal(err)
	}
	appendN(t, w, 31, 10)
	w.Close()

	reopened, _ := segments(dir)
	if len(reopened) <= len(files) {
		t.Fatalf("reopen must not append to an old segment: %d -> %d", len(files), len(reopened))
	}

	recs, last := collect(t, dir, 0)
	if len(recs) != 40 || last != 40 {
		t.Fatalf("replayed %d, last %d", len(recs), last)
	}
}

func TestWAL_TruncateBefore(t *testing.T) {
	dir := t.TempDir()

	w, _ := Open(Config{Dir: dir, SegmentSize: 256})
	defer w.Close()
	appendN(t, w, 1, 50)

	before, _ := segments(dir)
	if err := w.TruncateBefore(25); err != nil {
		t.Fatal(err)
	}
	after, _ := segments(dir)
	if len(after) >= len(before) {
		t.Fatalf("nothing truncated: %d -> %d segments", len(before), len(after))
	}

	recs, last := collect(t, dir, 25)
	if len(recs) != 25 || last != 50 {
		t.Fatalf("records after 25 must survive truncation: got %d, last %d", len(recs), last)
	}
}

func TestWAL_TornTailIsIgnored(t *testing.T) {
	dir := t.TempDir()

	w, _ := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	appendN(t, w, 1, 5)
	w.Close()

	f, err := os.OpenFile(segmentPath(dir, 0), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte{byte(RecordOffer), 0, 0, 0}) // half a header
	f.Close()

	recs, last := collect(t, dir, 0)
	if len(recs) != 5 || last != 5 {
		t.Fatalf("replayed %d, last %d", len(recs), last)
	}

	// Records written after restart land in a new segment and still replay.
	w, _ = Open(Config{Dir: dir, SegmentSize: 1 << 20})
	appendN(t, w, 6, 2)
	w.Close()

	recs, last = collect(t, dir, 0)
	if len(recs) != 7 || last != 7 {
		t.Fatalf("after restart: replayed %d, last %d", len(recs), last)
	}
}

func TestWAL_CorruptPayload(t *testing.T) {
	dir := t.TempDir()

	w, _ := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	appendN(t, w, 1, 3)
	w.Close()

	raw, _ := os.ReadFile(segmentPath(dir, 0))
	raw[headerSize] ^= 0xff // flip a payload byte of the first record
	os.WriteFile(segmentPath(dir, 0), raw, 0o644)

	_, err := Replay(dir, 0, func(*Record) error { return nil })
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
