package fatfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/vfskit/fatfs/checkpoint"
	"github.com/vfskit/fatfs/vfs"
)

// ErrMissingEndMarker is returned if directory data runs out before an
// end-of-directory marker is found.
var ErrMissingEndMarker = errors.New("directory data ends without an end marker")

// entryKind classifies one raw 32-byte directory record.
type entryKind byte

const (
	entryEndOfDirectory entryKind = iota
	entryDeleted
	entryLongFilename
	entryNormal
)

// rawDirEntry is the tagged result of decoding one record. Exactly one of
// header and longFilename is meaningful, depending on kind.
type rawDirEntry struct {
	kind         entryKind
	header       EntryHeader
	longFilename LongFilenameEntry
}

// decodeDirEntry classifies and decodes a single 32-byte record. All later
// stages work on the returned tagged value instead of re-inspecting the
// raw bytes.
func decodeDirEntry(record []byte) (rawDirEntry, error) {
	if len(record) < directoryEntrySize {
		return rawDirEntry{}, checkpoint.From(vfs.ErrInvalidData)
	}

	switch {
	case record[0] == endEntryByte:
		return rawDirEntry{kind: entryEndOfDirectory}, nil
	case record[0] == deletedEntryByte:
		return rawDirEntry{kind: entryDeleted}, nil
	case record[11] == AttrLongFileName:
		entry := rawDirEntry{kind: entryLongFilename}
		if err := binary.Read(bytes.NewReader(record), binary.LittleEndian, &entry.longFilename); err != nil {
			return rawDirEntry{}, checkpoint.Wrap(err, vfs.ErrInvalidData)
		}
		return entry, nil
	default:
		entry := rawDirEntry{kind: entryNormal}
		if err := binary.Read(bytes.NewReader(record), binary.LittleEndian, &entry.header); err != nil {
			return rawDirEntry{}, checkpoint.Wrap(err, vfs.ErrInvalidData)
		}
		return entry, nil
	}
}

// dirScanner walks the raw byte content of a directory record by record,
// collecting long-filename fragments until the 8.3 entry owning them is
// reached.
type dirScanner struct {
	data    []byte
	offset  int
	pending []LongFilenameEntry
}

func newDirScanner(data []byte) *dirScanner {
	return &dirScanner{data: data}
}

// next returns the next 8.3 entry together with its assembled long
// filename. It returns io.EOF once the end-of-directory marker is seen and
// vfs.ErrInvalidData if the data runs out without one.
func (s *dirScanner) next() (ExtendedEntryHeader, error) {
	for s.offset+directoryEntrySize <= len(s.data) {
		entry, err := decodeDirEntry(s.data[s.offset : s.offset+directoryEntrySize])
		if err != nil {
			return ExtendedEntryHeader{}, err
		}
		s.offset += directoryEntrySize

		switch entry.kind {
		case entryEndOfDirectory:
			return ExtendedEntryHeader{}, io.EOF
		case entryDeleted:
			// Any fragments collected so far belonged to the deleted entry.
			s.pending = s.pending[:0]
		case entryLongFilename:
			s.pending = append(s.pending, entry.longFilename)
		case entryNormal:
			// Fragments are stored in reverse writing order, the last part
			// of the name first.
			reverseLongFilenameEntries(s.pending)
			extended := ExtendedEntryHeader{
				EntryHeader:  entry.header,
				ExtendedName: longFilename(s.pending),
			}
			s.pending = s.pending[:0]
			return extended, nil
		}
	}

	return ExtendedEntryHeader{}, checkpoint.Wrap(vfs.ErrInvalidData, ErrMissingEndMarker)
}

func reverseLongFilenameEntries(entries []LongFilenameEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}

// shortFilename synthesizes the display name from the space-padded 8.3
// fields. The dot is only added if an extension is present.
func shortFilename(e EntryHeader) string {
	name := strings.TrimRight(string(e.Name[:8]), " ")
	ext := strings.TrimRight(string(e.Name[8:11]), " ")

	if ext == "" {
		return name
	}
	return name + "." + ext
}

// longFilename concatenates the UTF-16 code units of the fragments, given
// in writing order, and truncates at the terminator. A name filling the
// last fragment completely has neither terminator nor padding.
func longFilename(entries []LongFilenameEntry) string {
	if len(entries) == 0 {
		return ""
	}

	units := make([]uint16, 0, len(entries)*13)
	for _, entry := range entries {
		units = append(units, entry.First[:]...)
		units = append(units, entry.Second[:]...)
		units = append(units, entry.Third[:]...)
	}

	// The name ends at the 0x0000 terminator, the rest of the last
	// fragment is 0xFFFF padding.
	for i, unit := range units {
		if unit == 0x0000 || unit == 0xFFFF {
			units = units[:i]
			break
		}
	}

	return string(utf16.Decode(units))
}

// DisplayName returns the filename of the entry, preferring the long
// filename over the synthesized 8.3 one.
func (h ExtendedEntryHeader) DisplayName() string {
	if h.ExtendedName != "" {
		return h.ExtendedName
	}
	return shortFilename(h.EntryHeader)
}
