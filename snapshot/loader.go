package snapshot

import (
	"encoding/gob"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Load reads the snapshot in dir. A missing snapshot is not an error:
// it returns nil and the caller starts from an empty exchange.
func Load(dir string) (*Snapshot, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var s Snapshot
	if err := gob.NewDecoder(zr).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
