package entry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

type ReplayHandler func(*Record) error

var ErrCorrupt = errors.New("entry wal: corrupt record")

/*
Replay feeds every record with Seq > after to fn, in log order, and returns
the last sequence seen (or after, if there was nothing newer).

A torn frame at the end of a segment is a crash mid-append; the rest of
that segment is skipped and replay continues with the next one. Anything
else that fails to decode is ErrCorrupt.
*/
func Replay(dir string, after uint64, fn ReplayHandler) (lastSeq uint64, err error) {
	files, err := segments(dir)
	if err != nil {
		return after, err
	}

	lastSeq = after
	var prev uint64
	for _, path := range files {
		err := replaySegment(path, func(rec *Record) error {
			if rec.Seq <= prev {
				return fmt.Errorf("%w: non-monotonic seq %d after %d in %s", ErrCorrupt, rec.Seq, prev, path)
			}
			prev = rec.Seq
			if rec.Seq <= after {
				return nil
			}
			lastSeq = rec.Seq
			return fn(rec)
		})
		if errors.Is(err, io.ErrUnexpectedEOF) {
			continue
		}
		if err != nil {
			return lastSeq, err
		}
	}
	return lastSeq, nil
}

func replaySegment(path string, fn ReplayHandler) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for {
		rec, err := readRecord(f)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	t := RecordType(header[0])
	seq := binary.BigEndian.Uint64(header[1:9])
	ts := binary.BigEndian.Uint64(header[9:17])
	l := binary.BigEndian.Uint32(header[17:21])

	data := make([]byte, l+4)
	if _, err := io.ReadFull(r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	payload := data[:l]
	crc := binary.BigEndian.Uint32(data[l:])

	if checksum(append(header, payload...)) != crc {
		return nil, fmt.Errorf("%w: crc mismatch at seq %d", ErrCorrupt, seq)
	}

	return &Record{
		Type: t,
		Seq:  seq,
		Time: int64(ts),
		Data: payload,
	}, nil
}
