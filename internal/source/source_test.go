package source

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"

	serrors "github.com/FocuswithJustin/staffline/core/errors"
	"github.com/FocuswithJustin/staffline/internal/validation"
)

const score = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="4.0"><part-list/></score-partwise>`

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("xz.NewWriter: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("xz write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("xz close: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadPlain(t *testing.T) {
	path := writeFile(t, "a.musicxml", []byte(score))
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(s.Data) != score {
		t.Errorf("Data = %q, want the file contents", s.Data)
	}
	if s.Compressed() || s.Type != validation.FileTypeMusicXML {
		t.Errorf("type = %s, compressed = %v", s.Type, s.Compressed())
	}
	if s.Name != path || s.StoredSize != int64(len(score)) {
		t.Errorf("Name/StoredSize = %s/%d", s.Name, s.StoredSize)
	}
}

func TestLoadXZ(t *testing.T) {
	packed := compress(t, []byte(score))
	path := writeFile(t, "a.musicxml.xz", packed)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(s.Data) != score {
		t.Errorf("Data = %q, want decompressed score", s.Data)
	}
	if !s.Compressed() || s.StoredSize != int64(len(packed)) {
		t.Errorf("compressed = %v, StoredSize = %d, want true, %d", s.Compressed(), s.StoredSize, len(packed))
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		path   string
		data   []byte
		target error
	}{
		{"missing", filepath.Join(dir, "missing.musicxml"), nil, serrors.ErrNotFound},
		{"bad path", "a\x00b.xml", nil, serrors.ErrInvalidInput},
		{"mxl", "a.mxl", []byte{0x50, 0x4b, 0x03, 0x04, 0, 0}, serrors.ErrUnsupported},
		{"gzip", "a.musicxml.gz", []byte{0x1f, 0x8b, 8, 0}, serrors.ErrUnsupported},
		{"yaml", "opts.yaml", []byte("layout:\n  width: 1\n"), serrors.ErrInvalidInput},
		{"mismatch", "a.xz", []byte(score), serrors.ErrInvalidInput},
		{"corrupt xz", "b.xz", []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 1, 2, 3}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if tt.data != nil {
				path = writeFile(t, tt.path, tt.data)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load succeeded, want an error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("Load error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestReadFromStream(t *testing.T) {
	s, err := Read(bytes.NewReader([]byte(score)), "-")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if s.Type != validation.FileTypeMusicXML {
		t.Errorf("stdin type = %s, want musicxml", s.Type)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestReadIOError(t *testing.T) {
	_, err := Read(failingReader{}, "-")
	var ioErr *serrors.IOError
	if !errors.As(err, &ioErr) || ioErr.Operation != "read" {
		t.Fatalf("Read error = %v, want an IOError for read", err)
	}
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("error does not wrap the reader's error")
	}
}

func TestReadLimited(t *testing.T) {
	data, err := readLimited(bytes.NewReader([]byte("abcd")), 4)
	if err != nil || string(data) != "abcd" {
		t.Errorf("readLimited at the limit = %q, %v", data, err)
	}
	data, err = readLimited(bytes.NewReader([]byte("abcde")), 4)
	if err != nil || data != nil {
		t.Errorf("readLimited past the limit = %q, %v; want nil, nil", data, err)
	}
	data, err = readLimited(bytes.NewReader(nil), 4)
	if err != nil || data == nil || len(data) != 0 {
		t.Errorf("readLimited of empty input = %v, %v; want empty non-nil", data, err)
	}
}

func TestXZReaderError(t *testing.T) {
	old := xzNewReader
	defer func() { xzNewReader = old }()
	xzNewReader = func(io.Reader) (*xz.Reader, error) { return nil, io.ErrUnexpectedEOF }

	_, err := Read(bytes.NewReader(compress(t, []byte(score))), "a.xz")
	var ioErr *serrors.IOError
	if !errors.As(err, &ioErr) || ioErr.Operation != "decompress" {
		t.Fatalf("error = %v, want an IOError for decompress", err)
	}
}
