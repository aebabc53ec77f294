package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Writer struct {
	Dir string
}

// Write replaces the snapshot in Dir. A crash mid-write leaves the
// previous snapshot intact.
func (w *Writer) Write(s *Snapshot) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(w.Dir, FileName)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := encode(f, s); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func encode(f *os.File, s *Snapshot) error {
	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(zw).Encode(s); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}
