// Package source loads MusicXML scores from files and streams,
// decompressing .xz scores transparently.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/staffline/core/errors"
	"github.com/FocuswithJustin/staffline/internal/validation"
)

// Injectable functions for testing.
var (
	osOpen      = os.Open
	xzNewReader = xz.NewReader
)

// Score is a loaded score document.
type Score struct {
	// Name is the path or stream name the score came from.
	Name string

	// Data is the uncompressed MusicXML.
	Data []byte

	// StoredSize is the size of the input before decompression.
	StoredSize int64

	Type validation.FileType
}

// Compressed reports whether the input was decompressed.
func (s *Score) Compressed() bool {
	return s.Type == validation.FileTypeXZ
}

// Load reads the score at path.
func Load(path string) (*Score, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, &errors.ValidationError{Field: "path", Value: path, Message: err.Error()}
	}

	f, err := osOpen(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("score", path)
		}
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	return Read(f, path)
}

// Read reads a score from r. name is used for type detection and errors.
func Read(r io.Reader, name string) (*Score, error) {
	raw, err := readLimited(r, validation.MaxFileSize)
	if err != nil {
		return nil, errors.NewIO("read", name, err)
	}
	if raw == nil {
		return nil, errors.NewValidation("size", fmt.Sprintf("%s is larger than %d bytes", name, validation.MaxFileSize))
	}

	typ, err := validation.DetectFileType(bytes.NewReader(raw), name)
	if err != nil {
		return nil, &errors.ValidationError{Field: "type", Value: name, Message: err.Error()}
	}

	s := &Score{Name: name, StoredSize: int64(len(raw)), Type: typ}
	switch typ {
	case validation.FileTypeMusicXML, validation.FileTypeUnknown:
		s.Data = raw
	case validation.FileTypeXZ:
		if s.Data, err = decompress(raw, name); err != nil {
			return nil, err
		}
	case validation.FileTypeMXL, validation.FileTypeGzip:
		return nil, errors.NewUnsupported(string(typ)+" score", "only uncompressed and .xz MusicXML are supported")
	default:
		return nil, errors.NewValidation("type", fmt.Sprintf("%s is a %s file, not a score", name, typ))
	}
	return s, nil
}

func decompress(raw []byte, name string) ([]byte, error) {
	zr, err := xzNewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.NewIO("decompress", name, fmt.Errorf("failed to create xz reader: %w", err))
	}
	data, err := readLimited(zr, validation.MaxDecompressedSize)
	if err != nil {
		return nil, errors.NewIO("decompress", name, err)
	}
	if data == nil {
		return nil, errors.NewValidation("size", fmt.Sprintf("%s decompresses to more than %d bytes", name, validation.MaxDecompressedSize))
	}
	return data, nil
}

// readLimited reads all of r. It returns nil data and no error when r holds
// more than limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, nil
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}
