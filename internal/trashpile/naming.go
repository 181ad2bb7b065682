package trashpile

import (
	"encoding/hex"
	"path/filepath"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// DigestSize is the size of the entry digest in bytes
const DigestSize = 16

// Digest hashes the decimal text of nanos with a 16-byte BLAKE2b and
// returns it hex-encoded.
func Digest(nanos int64) string {
	h, err := blake2b.New(DigestSize, nil)
	if err != nil {
		// Only fails for invalid sizes or oversized keys
		panic(err)
	}
	h.Write([]byte(strconv.FormatInt(nanos, 10)))
	return hex.EncodeToString(h.Sum(nil))
}

// EntryName returns the entry directory name for path:
//
//	<timestamp>-<digest>
//	<basename>-<timestamp>-<digest>   (EntryPerFile)
//
// The result depends only on its arguments.
func EntryName(path string, cfg Config, nanos int64) string {
	name := cfg.Timestamp + "-" + Digest(nanos)
	if cfg.EntryPerFile {
		name = filepath.Base(filepath.Clean(path)) + "-" + name
	}
	return name
}
