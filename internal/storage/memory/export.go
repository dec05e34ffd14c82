// internal/storage/memory/export.go
package memory

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// slotPath builds the mirror file name for key
func (b *Backend) slotPath(key string) string {
	name := strings.ReplaceAll(key, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")

	if b.cfg.CompressOutput {
		return filepath.Join(b.cfg.OutputDir, name+".json.gz")
	}
	return filepath.Join(b.cfg.OutputDir, name+".json")
}

// writeSlot writes value to the mirror file via a temp file and rename
func (b *Backend) writeSlot(key string, value []byte) error {
	path := b.slotPath(key)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	var w io.Writer = f
	var gz *gzip.Writer
	if b.cfg.CompressOutput {
		gz = gzip.NewWriter(f)
		w = gz
	}

	if _, err := w.Write(value); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write slot: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to flush gzip: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close file: %w", err)
	}
	return os.Rename(tmp, path)
}

// readSlot reads the mirror file for key
func (b *Backend) readSlot(key string) ([]byte, error) {
	data, err := os.ReadFile(b.slotPath(key))
	if err != nil {
		return nil, err
	}
	if !b.cfg.CompressOutput {
		return data, nil
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip: %w", err)
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
