package persistence

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talgya/civica/internal/nation"
)

// Distinct load failures surfaced to callers.
var (
	ErrNotFound  = errors.New("save not found")
	ErrMalformed = errors.New("malformed save")
)

// CompressedSuffix marks save files written as zstd streams.
const CompressedSuffix = ".zst"

//go:embed country.schema.json
var countrySchemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func countrySchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("country.schema.json", countrySchemaJSON)
	})
	return schema, schemaErr
}

// EncodeDocument renders a snapshot as an indented JSON save document.
func EncodeDocument(s nation.Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// DecodeDocument validates raw JSON against the save schema and decodes it.
// Any failure wraps ErrMalformed.
func DecodeDocument(raw []byte) (nation.Snapshot, error) {
	var snap nation.Snapshot

	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	sch, err := countrySchema()
	if err != nil {
		return snap, fmt.Errorf("compile schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return snap, nil
}

// WriteDocument saves a snapshot to path, zstd-compressed when the path ends
// in CompressedSuffix. The file is written to a temp name and renamed so a
// failed save never truncates the previous one.
func WriteDocument(path string, s nation.Snapshot) error {
	data, err := EncodeDocument(s)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if err := writePayload(f, path, data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writePayload(w io.Writer, path string, data []byte) error {
	if !strings.HasSuffix(path, CompressedSuffix) {
		_, err := w.Write(data)
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(enc)
	if _, err := bw.Write(data); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadDocument loads and validates a save file. A missing file wraps
// ErrNotFound; unreadable or invalid content wraps ErrMalformed.
func ReadDocument(path string) (nation.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nation.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nation.Snapshot{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedSuffix) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nation.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		defer dec.Close()
		r = dec
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nation.Snapshot{}, fmt.Errorf("%w: read %s: %v", ErrMalformed, path, err)
	}
	return DecodeDocument(raw)
}
