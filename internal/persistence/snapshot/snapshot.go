// Package snapshot persists full engine state as a zstd-compressed gob
// stream preceded by a JSON header line.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"foundry.ai/internal/foundry/model"
)

const (
	Version = 1
	ext     = ".snap.zst"
)

type Header struct {
	Version   int    `json:"version"`
	Seq       uint64 `json:"seq"`
	CreatedAt int64  `json:"created_at"`
	// RecipesDigest ties the snapshot to the recipe catalog it was taken under.
	RecipesDigest string `json:"recipes_digest,omitempty"`
}

type Counters struct {
	NextItemID uint64 `json:"next_item_id"`
}

type SnapshotV1 struct {
	Header   Header          `json:"header"`
	Stations []model.Station `json:"stations"`
	Items    []model.Item    `json:"items"`
	Counters Counters        `json:"counters"`
}

// FileName is the canonical name of the seq-th snapshot.
func FileName(seq uint64) string { return fmt.Sprintf("%020d%s", seq, ext) }

// WriteSnapshot writes snap to path through a temporary file so a crash
// never leaves a truncated snapshot behind.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if snap.Header.Version == 0 {
		snap.Header.Version = Version
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := encode(f, &snap); err != nil {
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

func encode(f *os.File, snap *SnapshotV1) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		_ = enc.Close()
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return snap, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// LatestSnapshot returns the path and seq of the highest-numbered snapshot
// in dir. ok is false when dir holds none.
func LatestSnapshot(dir string) (path string, seq uint64, ok bool, err error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	var seqs []uint64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		n, perr := strconv.ParseUint(strings.TrimSuffix(name, ext), 10, 64)
		if perr != nil {
			continue
		}
		seqs = append(seqs, n)
	}
	if len(seqs) == 0 {
		return "", 0, false, nil
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	seq = seqs[len(seqs)-1]
	return filepath.Join(dir, FileName(seq)), seq, true, nil
}
