package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

type fileStamp struct {
	rel   string
	size  int64
	mtime int64
}

// Fingerprint computes a stable content fingerprint for the tree rooted
// at root. The digest covers each regular file's slash-separated
// relative path, byte size, and modification time in whole seconds,
// processed in sorted path order. A single-file root is fingerprinted
// by its base name.
func Fingerprint(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("cache: stat root: %w", err)
	}

	var stamps []fileStamp
	if !info.IsDir() {
		stamps = append(stamps, fileStamp{
			rel:   filepath.Base(root),
			size:  info.Size(),
			mtime: info.ModTime().Unix(),
		})
	} else {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			stamps = append(stamps, fileStamp{
				rel:   filepath.ToSlash(rel),
				size:  fi.Size(),
				mtime: fi.ModTime().Unix(),
			})
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("cache: walk root: %w", err)
		}
	}

	sort.Slice(stamps, func(i, j int) bool { return stamps[i].rel < stamps[j].rel })

	h := sha256.New()
	var buf [8]byte
	for _, s := range stamps {
		h.Write([]byte(s.rel))
		binary.LittleEndian.PutUint64(buf[:], uint64(s.size))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(s.mtime))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
