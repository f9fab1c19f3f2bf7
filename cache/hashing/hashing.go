package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
)

const prefix = "sha256:"

// HashFiles fingerprints a set of files independent of argument order.
// Missing files are skipped so that an optional file can come and go.
func HashFiles(paths ...string) (string, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	h := sha256.New()
	for _, path := range sorted {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		fileHash, err := HashFile(path)
		if err != nil {
			return "", err
		}
		h.Write([]byte(path))
		h.Write([]byte(fileHash))
	}

	return prefix + hex.EncodeToString(h.Sum(nil)), nil
}

func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err = io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return prefix + hex.EncodeToString(sum[:])
}
