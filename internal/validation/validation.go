// Package validation checks user-supplied paths and score files before they
// are read.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
)

// Limits on user input (CWE-400).
const (
	// MaxFileSize is the maximum size of a score file as stored (64 MB).
	MaxFileSize = 64 << 20
	// MaxDecompressedSize bounds a decompressed score (256 MB).
	MaxDecompressedSize = 256 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrTypeMismatch     = errors.New("file type mismatch")
)

// ValidateFilename checks a single path element.
func ValidateFilename(filename string) error {
	if filename == "" || filename == "." || filename == ".." {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("%w: path separator in filename", ErrInvalidFilename)
	}
	for _, r := range filename {
		if r == 0 || unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidatePath checks length limits and rejects null bytes and control
// characters anywhere in path.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	if base := filepath.Base(path); base != string(filepath.Separator) && base != "." {
		if len(base) > MaxFilenameLength {
			return ErrFilenameTooLong
		}
	}
	return nil
}

// FileType is the detected type of an input file.
type FileType string

const (
	FileTypeMusicXML FileType = "musicxml"
	FileTypeXZ       FileType = "xz"
	FileTypeMXL      FileType = "mxl"
	FileTypeGzip     FileType = "gzip"
	FileTypeYAML     FileType = "yaml"
	FileTypeConf     FileType = "conf"
	FileTypeUnknown  FileType = "unknown"
)

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{FileTypeGzip, []byte{0x1f, 0x8b}},
	{FileTypeMXL, []byte{0x50, 0x4b, 0x03, 0x04}}, // zip container
}

// DetectFileType reads the head of a file and checks it against the type
// its name suggests. Compressed MusicXML is reported by its compression.
func DetectFileType(reader io.Reader, filename string) (FileType, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	detected := detectFileTypeFromMagic(buf)
	expected := detectFileTypeFromExtension(filename)

	switch {
	case detected == expected:
		return detected, nil
	case detected == FileTypeUnknown && isLikelyText(buf):
		switch expected {
		case FileTypeMusicXML, FileTypeYAML, FileTypeConf:
			return expected, nil
		case FileTypeUnknown:
			if looksLikeXML(buf) {
				return FileTypeMusicXML, nil
			}
		}
	case detected != FileTypeUnknown && expected == FileTypeUnknown:
		return detected, nil
	}

	if detected != FileTypeUnknown || expected != FileTypeUnknown {
		return FileTypeUnknown, fmt.Errorf("%w: extension suggests %s but content is %s", ErrTypeMismatch, expected, detected)
	}
	return FileTypeUnknown, nil
}

func detectFileTypeFromMagic(buf []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType
		}
	}
	return FileTypeUnknown
}

func detectFileTypeFromExtension(filename string) FileType {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".xz"):
		return FileTypeXZ
	case strings.HasSuffix(lower, ".gz"):
		return FileTypeGzip
	}

	switch filepath.Ext(lower) {
	case ".musicxml", ".xml":
		return FileTypeMusicXML
	case ".mxl":
		return FileTypeMXL
	case ".yaml", ".yml":
		return FileTypeYAML
	case ".conf":
		return FileTypeConf
	default:
		return FileTypeUnknown
	}
}

func looksLikeXML(buf []byte) bool {
	trimmed := bytes.TrimLeft(buf, "\xef\xbb\xbf \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("<"))
}

// isLikelyText reports whether buf looks like UTF-8 or ASCII text.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
		// UTF-8 lead and continuation bytes count for neither.
	}
	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
