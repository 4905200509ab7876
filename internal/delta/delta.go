// Package delta implements the bdelta1 binary patch codec consumed by the
// apply engine. A patch reconstructs a target from a base via copy and insert
// operations and carries a BLAKE3 digest of the target, verified during
// application.
package delta

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// Algorithm is the patch algorithm identifier carried in package metadata.
const Algorithm = "bdelta1"

var magic = []byte("BD1\n")

const (
	opEnd    = 0x00
	opCopy   = 0x01
	opInsert = 0x02
)

const digestSize = 32

// copyBufSize is the chunk size for streaming copy and insert operations.
const copyBufSize = 64 * 1024

// Sentinel errors for patch failure kinds.
var (
	// ErrCorrupt reports a structurally malformed patch stream.
	ErrCorrupt = errors.New("corrupt delta")
	// ErrIntegrity reports that the reconstructed target failed its digest check.
	ErrIntegrity = errors.New("delta integrity check failed")
)

// ProgressFunc receives the reconstructed position out of the known total as
// application proceeds. Positions are monotonically increasing. Consumed for
// user-facing progress only. An alias so callers can pass plain functions and
// interfaces can share the signature.
type ProgressFunc = func(done int64, total int64)

// Codec applies and builds bdelta1 patches.
type Codec struct{}

// NewCodec returns the bdelta1 codec.
func NewCodec() Codec {
	return Codec{}
}

// Name returns the algorithm identifier.
func (Codec) Name() string {
	return Algorithm
}

// Apply reconstructs the target from base and patch, writing it to target.
// The base must be the unmodified original (the engine reads it from the
// backup snapshot). Any structural error or digest mismatch fails the apply;
// the caller discards the partial output.
func (Codec) Apply(base io.ReaderAt, baseSize int64, patch io.Reader, target io.Writer, progress ProgressFunc) error {
	reader := bufio.NewReader(patch)

	header := make([]byte, len(magic))
	if _, err := io.ReadFull(reader, header); err != nil {
		return fmt.Errorf("read delta header: %w", ErrCorrupt)
	}
	if !bytes.Equal(header, magic) {
		return fmt.Errorf("bad delta magic: %w", ErrCorrupt)
	}
	declaredBase, err := binary.ReadUvarint(reader)
	if err != nil {
		return fmt.Errorf("read base length: %w", ErrCorrupt)
	}
	if int64(declaredBase) != baseSize {
		return fmt.Errorf("delta expects base of %d bytes, have %d: %w", declaredBase, baseSize, ErrIntegrity)
	}
	targetLen, err := binary.ReadUvarint(reader)
	if err != nil {
		return fmt.Errorf("read target length: %w", ErrCorrupt)
	}
	total := int64(targetLen)
	if progress != nil {
		progress(0, total)
	}

	hasher := blake3.New()
	out := io.MultiWriter(target, hasher)
	buf := make([]byte, copyBufSize)
	var written int64

	for {
		opcode, err := reader.ReadByte()
		if err != nil {
			return fmt.Errorf("read opcode: %w", ErrCorrupt)
		}
		if opcode == opEnd {
			break
		}
		switch opcode {
		case opCopy:
			offset, err := binary.ReadUvarint(reader)
			if err != nil {
				return fmt.Errorf("read copy offset: %w", ErrCorrupt)
			}
			length, err := binary.ReadUvarint(reader)
			if err != nil {
				return fmt.Errorf("read copy length: %w", ErrCorrupt)
			}
			if int64(offset)+int64(length) > baseSize {
				return fmt.Errorf("copy range beyond base: %w", ErrCorrupt)
			}
			section := io.NewSectionReader(base, int64(offset), int64(length))
			n, err := io.CopyBuffer(out, section, buf)
			written += n
			if err != nil {
				return fmt.Errorf("copy from base: %w", err)
			}
		case opInsert:
			length, err := binary.ReadUvarint(reader)
			if err != nil {
				return fmt.Errorf("read insert length: %w", ErrCorrupt)
			}
			n, err := io.CopyBuffer(out, io.LimitReader(reader, int64(length)), buf)
			written += n
			if err != nil || n != int64(length) {
				return fmt.Errorf("read insert literal: %w", ErrCorrupt)
			}
		default:
			return fmt.Errorf("unknown opcode %#x: %w", opcode, ErrCorrupt)
		}
		if written > total {
			return fmt.Errorf("delta output exceeds declared length: %w", ErrCorrupt)
		}
		if progress != nil {
			progress(written, total)
		}
	}

	if written != total {
		return fmt.Errorf("delta produced %d bytes, declared %d: %w", written, total, ErrIntegrity)
	}
	want := make([]byte, digestSize)
	if _, err := io.ReadFull(reader, want); err != nil {
		return fmt.Errorf("read delta digest: %w", ErrCorrupt)
	}
	if !bytes.Equal(hasher.Sum(nil), want) {
		return ErrIntegrity
	}
	return nil
}

// Build produces a bdelta1 patch transforming base into target. It is the
// reference encoder used by the packaging toolchain; the updater itself only
// applies patches. The encoder keeps the common prefix and suffix of base and
// target as copy operations and carries the differing middle as a literal.
func Build(base []byte, target []byte) []byte {
	prefix := commonPrefix(base, target)
	suffix := commonSuffix(base[prefix:], target[prefix:])

	var buf bytes.Buffer
	buf.Write(magic)
	writeUvarint(&buf, uint64(len(base)))
	writeUvarint(&buf, uint64(len(target)))
	if prefix > 0 {
		buf.WriteByte(opCopy)
		writeUvarint(&buf, 0)
		writeUvarint(&buf, uint64(prefix))
	}
	if middle := target[prefix : len(target)-suffix]; len(middle) > 0 {
		buf.WriteByte(opInsert)
		writeUvarint(&buf, uint64(len(middle)))
		buf.Write(middle)
	}
	if suffix > 0 {
		buf.WriteByte(opCopy)
		writeUvarint(&buf, uint64(len(base)-suffix))
		writeUvarint(&buf, uint64(suffix))
	}
	buf.WriteByte(opEnd)
	digest := blake3.Sum256(target)
	buf.Write(digest[:])
	return buf.Bytes()
}

func commonPrefix(a []byte, b []byte) int {
	limit := min(len(a), len(b))
	i := 0
	for i < limit && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffix(a []byte, b []byte) int {
	limit := min(len(a), len(b))
	i := 0
	for i < limit && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}
