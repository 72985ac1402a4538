package pth

import (
	"fmt"

	"github.com/zcc-tools/pthc/internal/bitio"
	"github.com/zcc-tools/pthc/internal/odht"
	"github.com/zcc-tools/pthc/internal/strhash"
)

// FileEntryKind discriminates the three shapes a FileEntryKey can take.
// The numeric values are the on-disk tag byte, not just an enum ordinal.
type FileEntryKind uint8

const (
	FileEntryNonExistent FileEntryKind = 0x0
	FileEntryFile        FileEntryKind = 0x1
	FileEntryDirectory   FileEntryKind = 0x2
)

// FileEntryKey identifies one path the source manager knows about. Only
// the FileEntryFile shape carries stat metadata and, later, token data;
// the other two shapes exist so a reader can tell "looked up and found a
// directory" from "looked up and found nothing" without re-touching disk.
type FileEntryKey struct {
	Kind   FileEntryKind
	Path   string
	Inode  uint32
	Device uint32
	Mode   uint16
	Mtime  uint64
	Size   uint64
}

// FileEntryValue is the file-keyed hash table's value half: where the
// file's token region and PP-conditional table landed, plus the stat
// tail a FileEntryFile key carries.
type FileEntryValue struct {
	TokenRegionOffset uint32
	PPCondTableOffset uint32
	Inode             uint32
	Device            uint32
	Mode              uint16
	Mtime             uint64
	Size              uint64
}

// NewFileHashTable creates the file-keyed on-disk hash table builder the
// assembler inserts every contributing file's entry into.
func NewFileHashTable(initialBuckets int) *odht.Builder[FileEntryKey, FileEntryValue] {
	return odht.New[FileEntryKey, FileEntryValue](fileEntryCodec{}, initialBuckets)
}

// fileEntryCodec implements odht.Codec[FileEntryKey, FileEntryValue].
type fileEntryCodec struct{}

func (fileEntryCodec) Hash(key FileEntryKey) uint32 {
	return strhash.Hash([]byte(key.Path))
}

// EncodedLengths reproduces a quirk of the format being modeled: the
// recorded key length counts a NUL terminator that EmitKey never actually
// writes. A reader that sizes its read by the length header takes in one
// byte past the key, the first byte of whatever follows it (this entry's
// value, or the next entry's header when the value is empty).
func (fileEntryCodec) EncodedLengths(key FileEntryKey, value FileEntryValue) (uint16, uint8) {
	keyLen := uint16(1 + len(key.Path) + 1)

	var valueLen uint8
	if key.Kind == FileEntryFile {
		valueLen = 34 // token_offset + ppcond_offset + inode + device + mode + mtime + size
	}

	return keyLen, valueLen
}

func (fileEntryCodec) EmitKey(w *bitio.Writer, key FileEntryKey, _ uint16) error {
	w.EmitU8(uint8(key.Kind))
	w.EmitBytes([]byte(key.Path))

	return nil
}

func (fileEntryCodec) EmitValue(w *bitio.Writer, key FileEntryKey, value FileEntryValue, _ uint8) error {
	if key.Kind != FileEntryFile {
		return nil
	}

	w.EmitU32(value.TokenRegionOffset)
	w.EmitU32(value.PPCondTableOffset)
	w.EmitU32(value.Inode)
	w.EmitU32(value.Device)

	if err := w.EmitU16(uint32(value.Mode)); err != nil {
		return fmt.Errorf("pth: file entry mode: %w", err)
	}

	w.EmitU64(value.Mtime)
	w.EmitU64(value.Size)

	return nil
}
