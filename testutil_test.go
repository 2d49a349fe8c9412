package fatfs

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"
	"unicode/utf16"
)

// The test volumes use the smallest geometry which still classifies as
// FAT32: the variant is derived from the cluster count, and everything
// below 65525 clusters would be FAT16. The volume is assembled sparsely so
// the unused data region costs nothing.
const (
	testSectorSize        = 512
	testSectorsPerCluster = 1
	testReservedSectors   = 32
	testFATSectors        = 512
	testTotalClusters     = 65526
	testRootCluster       = 2

	testFirstDataSector = testReservedSectors + testFATSectors
	testTotalSectors    = testFirstDataSector + testTotalClusters
)

// sparseVolume is an io.ReadSeeker over a mostly empty disk image. Only
// sectors that were explicitly written are stored; everything else reads
// as zeros.
type sparseVolume struct {
	sectors map[uint32][]byte
	size    int64
	offset  int64
}

func (v *sparseVolume) Read(p []byte) (int, error) {
	if v.offset >= v.size {
		return 0, io.EOF
	}

	n := 0
	for n < len(p) && v.offset < v.size {
		sector := uint32(v.offset / testSectorSize)
		inSector := int(v.offset % testSectorSize)

		if content, ok := v.sectors[sector]; ok {
			p[n] = content[inSector]
		} else {
			p[n] = 0
		}

		n++
		v.offset++
	}

	return n, nil
}

func (v *sparseVolume) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		v.offset = offset
	case io.SeekCurrent:
		v.offset += offset
	case io.SeekEnd:
		v.offset = v.size + offset
	}
	return v.offset, nil
}

func (v *sparseVolume) writeAt(offset int64, data []byte) {
	for i, b := range data {
		pos := offset + int64(i)
		sector := uint32(pos / testSectorSize)
		content, ok := v.sectors[sector]
		if !ok {
			content = make([]byte, testSectorSize)
			v.sectors[sector] = content
		}
		content[pos%testSectorSize] = b
	}
}

// volumeBuilder assembles a synthetic FAT32 volume for tests: boot record,
// FAT and data region with directories, files and long filenames.
type volumeBuilder struct {
	t        *testing.T
	fat      []uint32
	clusters map[uint32][]byte
	dirs     map[uint32][]byte
	nextFree uint32
	label    string
}

func newVolumeBuilder(t *testing.T) *volumeBuilder {
	b := &volumeBuilder{
		t:        t,
		fat:      make([]uint32, testTotalClusters+2),
		clusters: map[uint32][]byte{},
		dirs:     map[uint32][]byte{},
		nextFree: testRootCluster + 1,
		label:    "TESTVOLUME ",
	}

	// Entry 0 holds the media descriptor, entry 1 is the end-of-chain
	// sentinel. The root directory occupies one cluster.
	b.fat[0] = 0x0FFFFFF8
	b.fat[1] = 0x0FFFFFFF
	b.fat[testRootCluster] = 0x0FFFFFFF
	b.dirs[testRootCluster] = nil

	return b
}

func (b *volumeBuilder) allocCluster() uint32 {
	cluster := b.nextFree
	b.nextFree++
	b.fat[cluster] = 0x0FFFFFFF
	return cluster
}

// allocChain stores content in as many chained clusters as needed and
// returns the first cluster. Empty content gets no cluster at all, like a
// freshly created empty file.
func (b *volumeBuilder) allocChain(content []byte) uint32 {
	if len(content) == 0 {
		return 0
	}

	const clusterSize = testSectorSize * testSectorsPerCluster

	first := uint32(0)
	previous := uint32(0)
	for len(content) > 0 {
		chunk := content
		if len(chunk) > clusterSize {
			chunk = chunk[:clusterSize]
		}
		content = content[len(chunk):]

		cluster := b.allocCluster()
		b.clusters[cluster] = chunk

		if first == 0 {
			first = cluster
		} else {
			b.fat[previous] = cluster
		}
		previous = cluster
	}

	return first
}

func packTimestamp(t time.Time) (date, tod uint16) {
	date = uint16(t.Day()) | uint16(t.Month())<<5 | uint16(t.Year()-1980)<<9
	tod = uint16(t.Second()/2) | uint16(t.Minute())<<5 | uint16(t.Hour())<<11
	return date, tod
}

// rawEntry encodes one 8.3 directory entry. name has to be exactly 8 and
// ext exactly 3 bytes, space padded.
func (b *volumeBuilder) rawEntry(name, ext string, attr byte, cluster uint32, size uint32, modTime time.Time) []byte {
	if len(name) != 8 || len(ext) != 3 {
		b.t.Fatalf("rawEntry: invalid name %q ext %q", name, ext)
	}

	header := EntryHeader{
		Attribute:      attr,
		FirstClusterHI: uint16(cluster >> 16),
		FirstClusterLO: uint16(cluster),
		FileSize:       size,
	}
	copy(header.Name[:8], name)
	copy(header.Name[8:], ext)
	header.WriteDate, header.WriteTime = packTimestamp(modTime)
	header.CreateDate, header.CreateTime = header.WriteDate, header.WriteTime
	header.LastAccessDate = header.WriteDate

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		b.t.Fatal(err)
	}
	return buf.Bytes()
}

func shortNameChecksum(name, ext string) byte {
	sum := byte(0)
	for _, c := range []byte(name + ext) {
		sum = (sum>>1 | sum<<7) + c
	}
	return sum
}

// rawLongFilename encodes the long-filename records for longName in
// on-disk order, the last fragment of the name first.
func (b *volumeBuilder) rawLongFilename(longName, name, ext string) []byte {
	units := utf16.Encode([]rune(longName))
	units = append(units, 0x0000)
	for len(units)%13 != 0 {
		units = append(units, 0xFFFF)
	}

	checksum := shortNameChecksum(name, ext)
	count := len(units) / 13

	var buf bytes.Buffer
	for i := count - 1; i >= 0; i-- {
		fragment := units[i*13 : (i+1)*13]

		entry := LongFilenameEntry{
			Sequence:  byte(i + 1),
			Attribute: AttrLongFileName,
			Checksum:  checksum,
		}
		if i == count-1 {
			entry.Sequence |= 0x40
		}
		copy(entry.First[:], fragment[:5])
		copy(entry.Second[:], fragment[5:11])
		copy(entry.Third[:], fragment[11:13])

		if err := binary.Write(&buf, binary.LittleEndian, entry); err != nil {
			b.t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func (b *volumeBuilder) appendDirEntries(dir uint32, raw []byte) {
	b.dirs[dir] = append(b.dirs[dir], raw...)
}

// addFile creates a file inside dir and returns its first cluster.
func (b *volumeBuilder) addFile(dir uint32, name, ext string, content []byte, modTime time.Time) uint32 {
	first := b.allocChain(content)
	b.appendDirEntries(dir, b.rawEntry(name, ext, AttrArchive, first, uint32(len(content)), modTime))
	return first
}

// addLongNameFile creates a file like addFile but with a preceding
// long-filename run.
func (b *volumeBuilder) addLongNameFile(dir uint32, longName, name, ext string, content []byte, modTime time.Time) uint32 {
	first := b.allocChain(content)
	b.appendDirEntries(dir, b.rawLongFilename(longName, name, ext))
	b.appendDirEntries(dir, b.rawEntry(name, ext, AttrArchive, first, uint32(len(content)), modTime))
	return first
}

// addDir creates a subdirectory inside dir, including its self and parent
// pseudo entries, and returns its cluster.
func (b *volumeBuilder) addDir(dir uint32, name, ext string, modTime time.Time) uint32 {
	cluster := b.allocCluster()
	b.dirs[cluster] = nil

	b.appendDirEntries(dir, b.rawEntry(name, ext, AttrDirectory, cluster, 0, modTime))
	b.appendDirEntries(cluster, b.rawEntry(".       ", "   ", AttrDirectory, cluster, 0, modTime))
	b.appendDirEntries(cluster, b.rawEntry("..      ", "   ", AttrDirectory, dir, 0, modTime))

	return cluster
}

func (b *volumeBuilder) bootSector() []byte {
	fat32 := FAT32SpecificData{
		FATSize:         testFATSectors,
		RootCluster:     testRootCluster,
		BSBootSignature: 0x29,
	}
	copy(fat32.BSVolumeLabel[:], b.label)
	copy(fat32.BSFileSystemType[:], "FAT32   ")

	bpb := BPB{
		BSJumpBoot:          [3]byte{0xEB, 0x3C, 0x90},
		BytesPerSector:      testSectorSize,
		SectorsPerCluster:   testSectorsPerCluster,
		ReservedSectorCount: testReservedSectors,
		NumFATs:             1,
		Media:               0xF8,
		TotalSectors32:      testTotalSectors,
	}
	copy(bpb.BSOEMName[:], "fatfs   ")

	var tail bytes.Buffer
	if err := binary.Write(&tail, binary.LittleEndian, fat32); err != nil {
		b.t.Fatal(err)
	}
	copy(bpb.FATSpecificData[:], tail.Bytes())

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, bpb); err != nil {
		b.t.Fatal(err)
	}

	sector := make([]byte, testSectorSize)
	copy(sector, buf.Bytes())
	sector[510] = 0x55
	sector[511] = 0xAA
	return sector
}

// build lays everything out as a sparse disk image.
func (b *volumeBuilder) build() *sparseVolume {
	volume := &sparseVolume{
		sectors: map[uint32][]byte{},
		size:    int64(testTotalSectors) * testSectorSize,
	}

	volume.writeAt(0, b.bootSector())

	for entry, value := range b.fat {
		if value == 0 {
			continue
		}
		var raw [4]byte
		binary.LittleEndian.PutUint32(raw[:], value)
		volume.writeAt(int64(testReservedSectors)*testSectorSize+int64(entry)*4, raw[:])
	}

	for cluster, content := range b.clusters {
		volume.writeAt(int64(testFirstDataSector+(cluster-2)*testSectorsPerCluster)*testSectorSize, content)
	}

	for cluster, content := range b.dirs {
		if len(content) > testSectorSize*testSectorsPerCluster {
			b.t.Fatalf("directory in cluster %d does not fit into one cluster", cluster)
		}
		volume.writeAt(int64(testFirstDataSector+(cluster-2)*testSectorsPerCluster)*testSectorSize, content)
	}

	return volume
}

// testingNew opens the filesystem and fails the test on error.
func testingNew(t *testing.T, reader io.ReadSeeker) *Fs {
	t.Helper()

	fs, err := New(reader)
	if err != nil {
		t.Fatalf("could not open the filesystem: %v", err)
	}
	return fs
}

var testModTime = time.Date(2023, time.April, 7, 11, 38, 42, 0, time.UTC)
