// Package cache stores converted collections as a single binary blob so a
// later run can skip parsing and conversion.
//
// A blob is a fixed header followed by the payload:
//
//	magic    [4]byte  "LGC1"
//	version  uint16   little endian
//	kind     uint8
//	flags    uint8    bit 0: payload is zstd compressed
//	length   uint64   stored payload length
//	checksum uint64   xxhash64 of the uncompressed payload
//
// Any mismatch is reported as ErrDecode, which callers treat as a stale cache.
package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

// Version changes whenever the payload layout of any kind changes.
const Version uint16 = 1

const headerSize = 4 + 2 + 1 + 1 + 8 + 8

var magicBytes = []byte("LGC1")

// ErrDecode marks a blob that does not match the expected layout.
var ErrDecode = errors.New("cache: decode")

type Kind uint8

const (
	KindAddresses Kind = iota + 1
	KindAddressPoints
	KindParcels
)

func (k Kind) String() string {
	switch k {
	case KindAddresses:
		return "addresses"
	case KindAddressPoints:
		return "address points"
	case KindParcels:
		return "parcels"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

const flagZstd = 1 << 0

// Options control how a blob is written. Reading needs none.
type Options struct {
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Header is the decoded fixed-size prefix of a blob.
type Header struct {
	Version    uint16
	Kind       Kind
	Compressed bool
	Length     uint64
	Checksum   uint64
}

// Seal wraps payload in a header.
func Seal(kind Kind, payload []byte, opts Options) ([]byte, error) {
	stored := payload
	var flags uint8
	if opts.Compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("cache: zstd writer: %w", err)
		}
		stored = enc.EncodeAll(payload, nil)
		enc.Close()
		flags |= flagZstd
	}

	buf := make([]byte, headerSize, headerSize+len(stored))
	copy(buf[0:4], magicBytes)
	binary.LittleEndian.PutUint16(buf[4:6], Version)
	buf[6] = uint8(kind)
	buf[7] = flags
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(stored)))
	binary.LittleEndian.PutUint64(buf[16:24], xxhash.Sum64(payload))
	return append(buf, stored...), nil
}

// ReadHeader decodes the fixed prefix without touching the payload.
func ReadHeader(blob []byte) (Header, error) {
	var h Header
	if len(blob) < headerSize {
		return h, fmt.Errorf("%w: %d bytes is shorter than the header", ErrDecode, len(blob))
	}
	if !bytes.Equal(blob[0:4], magicBytes) {
		return h, fmt.Errorf("%w: bad magic %q", ErrDecode, blob[0:4])
	}
	h.Version = binary.LittleEndian.Uint16(blob[4:6])
	h.Kind = Kind(blob[6])
	h.Compressed = blob[7]&flagZstd != 0
	h.Length = binary.LittleEndian.Uint64(blob[8:16])
	h.Checksum = binary.LittleEndian.Uint64(blob[16:24])
	return h, nil
}

// ReadFileHeader decodes the header of the blob at path, reading nothing
// past it.
func ReadFileHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("cache: read %s: %w", path, err)
	}
	defer f.Close()
	buf := make([]byte, headerSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Header{}, fmt.Errorf("cache: read %s: %w", path, err)
	}
	h, err := ReadHeader(buf[:n])
	if err != nil {
		return h, fmt.Errorf("cache: %s: %w", path, err)
	}
	return h, nil
}

// Open checks the header of blob against kind and returns the payload.
func Open(kind Kind, blob []byte) ([]byte, error) {
	h, err := ReadHeader(blob)
	if err != nil {
		return nil, err
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrDecode, h.Version, Version)
	}
	if h.Kind != kind {
		return nil, fmt.Errorf("%w: holds %s, want %s", ErrDecode, h.Kind, kind)
	}
	if uint64(len(blob)-headerSize) != h.Length {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrDecode, len(blob)-headerSize, h.Length)
	}
	payload := blob[headerSize:]
	if h.Compressed {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("cache: zstd reader: %w", err)
		}
		defer dec.Close()
		if payload, err = dec.DecodeAll(payload, nil); err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrDecode, err)
		}
	}
	if xxhash.Sum64(payload) != h.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrDecode)
	}
	return payload, nil
}

// WriteFile seals payload and replaces path with it. The blob goes to a
// temporary file in the same directory first and is renamed into place.
func WriteFile(path string, kind Kind, payload []byte, opts Options) error {
	blob, err := Seal(kind, payload, opts)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	temp, err := os.CreateTemp(dir, ".landgrid-cache-")
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	tempName := temp.Name()
	if err := temp.Chmod(0o644); err != nil {
		temp.Close()
		os.Remove(tempName)
		return fmt.Errorf("cache: %w", err)
	}
	if _, err := temp.Write(blob); err != nil {
		temp.Close()
		os.Remove(tempName)
		return fmt.Errorf("cache: write %s: %w", path, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("cache: write %s: %w", path, err)
	}
	if err := os.Rename(tempName, path); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("cache: write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads the whole blob at path and returns its payload.
func ReadFile(path string, kind Kind) ([]byte, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", path, err)
	}
	payload, err := Open(kind, blob)
	if err != nil {
		return nil, fmt.Errorf("cache: %s: %w", path, err)
	}
	return payload, nil
}
