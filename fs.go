package fatfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math/bits"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"github.com/vfskit/fatfs/checkpoint"
	"github.com/vfskit/fatfs/vfs"
)

// FATType is a simple enum of the FAT filesystem variants.
type FATType uint8

const (
	FAT12 FATType = iota
	FAT16
	FAT32
)

func (t FATType) String() string {
	switch t {
	case FAT12:
		return "FAT12"
	case FAT16:
		return "FAT16"
	case FAT32:
		return "FAT32"
	}
	return "unknown"
}

// These errors may occur while mounting a volume.
var (
	ErrReadFilesystem           = errors.New("could not read the filesystem")
	ErrInvalidJumpInstructions  = errors.New("no valid jump instructions at the beginning")
	ErrInvalidSectorSize        = errors.New("invalid sector size")
	ErrInvalidSectorsPerCluster = errors.New("invalid sectors per cluster")
	ErrInvalidReservedSectors   = errors.New("invalid reserved sector count")
	ErrInvalidMedia             = errors.New("invalid media value")
	ErrInvalidTotalSectors      = errors.New("invalid total sector count")
	ErrUnsupportedFATType       = errors.New("only FAT32 volumes are supported")
)

// Info contains all information about the whole filesystem.
type Info struct {
	FSType            FATType
	SectorsPerCluster uint8
	FirstDataSector   uint32
	TotalSectors      uint32
	TotalClusters     uint32
	ReservedSectors   uint16
	SectorSize        uint16
	FATSize           uint32
	RootCluster       fatEntry
	Label             string
}

// Sector is the single-sector read cache used while mounting.
type Sector struct {
	current uint32
	buffer  []uint8
}

// Fs is a read-only FAT32 filesystem on top of an io.ReadSeeker. It
// implements afero.Fs and hands out inodes satisfying the vfs.Inode
// contract.
type Fs struct {
	// lock serializes access to the reader and the sector cache. Inodes
	// issue raw sector reads through it from multiple goroutines.
	lock        sync.Mutex
	reader      io.ReadSeeker
	info        Info
	sectorCache Sector
	logger      *slog.Logger

	id vfs.FilesystemID

	// inodes caches the inodes handed out so far, keyed by their first
	// cluster number. Entries without a data cluster get no cache slot
	// because cluster 0 is not a usable identity.
	inodesLock sync.Mutex
	inodes     map[uint32]*Inode
}

var nextFilesystemID uint64

// New opens a FAT32 filesystem from the given reader.
func New(reader io.ReadSeeker) (*Fs, error) {
	fs := &Fs{
		reader: reader,
		logger: slog.Default(),
		id:     vfs.FilesystemID(atomic.AddUint64(&nextFilesystemID, 1)),
		inodes: map[uint32]*Inode{},
	}

	if err := fs.initialize(false); err != nil {
		return nil, checkpoint.Wrap(err, ErrReadFilesystem)
	}

	return fs, nil
}

// NewSkipChecks opens a FAT32 filesystem just like New but skips the strict
// boot record validations. This may allow opening not perfectly standard
// FAT filesystems. Use with caution!
func NewSkipChecks(reader io.ReadSeeker) (*Fs, error) {
	fs := &Fs{
		reader: reader,
		logger: slog.Default(),
		id:     vfs.FilesystemID(atomic.AddUint64(&nextFilesystemID, 1)),
		inodes: map[uint32]*Inode{},
	}

	if err := fs.initialize(true); err != nil {
		return nil, checkpoint.Wrap(err, ErrReadFilesystem)
	}

	return fs, nil
}

func (fs *Fs) initialize(skipChecks bool) error {
	// The data for the first sector is always in the first 512 bytes so
	// use that until the real sector size is known. Almost all FAT
	// filesystems use 512; 1024, 2048 and 4096 exist but are rare.
	fs.info.SectorSize = 512
	fs.sectorCache.buffer = make([]uint8, 512)

	// Set to a sector unequal 0 to avoid using the empty buffer in fetch.
	fs.sectorCache.current = 0xFFFFFFFF
	if err := fs.fetch(0); err != nil {
		return checkpoint.From(err)
	}

	var bpb BPB
	if err := binary.Read(bytes.NewReader(fs.sectorCache.buffer), binary.LittleEndian, &bpb); err != nil {
		return checkpoint.From(err)
	}

	if !skipChecks {
		// Check for valid jump instructions to make sure it is really a
		// FAT filesystem.
		if !(bpb.BSJumpBoot[0] == 0xEB && bpb.BSJumpBoot[2] == 0x90) && bpb.BSJumpBoot[0] != 0xE9 {
			return checkpoint.From(ErrInvalidJumpInstructions)
		}

		// FAT only supports 512, 1024, 2048 and 4096.
		if bpb.BytesPerSector != 512 && bpb.BytesPerSector != 1024 && bpb.BytesPerSector != 2048 && bpb.BytesPerSector != 4096 {
			return checkpoint.From(ErrInvalidSectorSize)
		}

		// Sectors per cluster has to be a power of two and greater than 0.
		// Also the whole cluster size should not be more than 32K.
		if bits.OnesCount8(bpb.SectorsPerCluster) != 1 || uint32(bpb.BytesPerSector)*uint32(bpb.SectorsPerCluster) > 32*1024 {
			return checkpoint.From(ErrInvalidSectorsPerCluster)
		}

		// The reserved sector count should not be 0.
		// For FAT32 it is typically 32.
		if bpb.ReservedSectorCount == 0 {
			return checkpoint.From(ErrInvalidReservedSectors)
		}

		if bpb.Media != 0xF0 && bpb.Media < 0xF8 {
			return checkpoint.From(ErrInvalidMedia)
		}
	}

	// Load the sector size and use it for all following sector reads. The
	// decoding scratch buffers are sized for one sector, so the sector
	// size may not grow past the supported maximum.
	fs.info.SectorSize = bpb.BytesPerSector
	fs.sectorCache.buffer = make([]uint8, fs.info.SectorSize)
	fs.sectorCache.current = 0xFFFFFFFF

	fs.info.SectorsPerCluster = bpb.SectorsPerCluster
	fs.info.ReservedSectors = bpb.ReservedSectorCount

	if bpb.TotalSectors16 != 0 {
		fs.info.TotalSectors = uint32(bpb.TotalSectors16)
	} else {
		fs.info.TotalSectors = bpb.TotalSectors32
	}
	if fs.info.TotalSectors == 0 && !skipChecks {
		return checkpoint.From(ErrInvalidTotalSectors)
	}

	var fat32 FAT32SpecificData
	if err := binary.Read(bytes.NewReader(bpb.FATSpecificData[:]), binary.LittleEndian, &fat32); err != nil {
		return checkpoint.From(err)
	}

	if bpb.FATSize16 != 0 {
		fs.info.FATSize = uint32(bpb.FATSize16)
	} else {
		fs.info.FATSize = fat32.FATSize
	}

	// Determine the FAT variant from the cluster count, like the FAT
	// specification prescribes. The root directory region only exists on
	// FAT12/16 where RootEntryCount is non-zero.
	rootDirSectors := (uint32(bpb.RootEntryCount)*directoryEntrySize + uint32(fs.info.SectorSize) - 1) / uint32(fs.info.SectorSize)
	fs.info.FirstDataSector = uint32(fs.info.ReservedSectors) + uint32(bpb.NumFATs)*fs.info.FATSize + rootDirSectors
	dataSectors := fs.info.TotalSectors - fs.info.FirstDataSector
	fs.info.TotalClusters = dataSectors / uint32(fs.info.SectorsPerCluster)

	switch {
	case fs.info.TotalClusters < 4085:
		fs.info.FSType = FAT12
	case fs.info.TotalClusters < 65525:
		fs.info.FSType = FAT16
	default:
		fs.info.FSType = FAT32
	}

	if fs.info.FSType != FAT32 {
		return checkpoint.From(ErrUnsupportedFATType)
	}

	fs.info.RootCluster = fatEntry(fat32.RootCluster)
	fs.info.Label = strings.TrimRight(string(fat32.BSVolumeLabel[:]), " ")

	fs.logger.Debug("mounted FAT volume",
		"label", fs.info.Label,
		"type", fs.info.FSType.String(),
		"sectorSize", fs.info.SectorSize,
		"sectorsPerCluster", fs.info.SectorsPerCluster,
		"totalClusters", fs.info.TotalClusters)

	return nil
}

// fetch loads a specific single sector of the filesystem into the sector
// cache. The caller has to hold fs.lock, except during initialize.
func (fs *Fs) fetch(sector uint32) error {
	// Only load it once.
	if sector == fs.sectorCache.current {
		return nil
	}

	if _, err := fs.reader.Seek(int64(sector)*int64(fs.info.SectorSize), io.SeekStart); err != nil {
		return checkpoint.From(err)
	}

	if _, err := io.ReadFull(fs.reader, fs.sectorCache.buffer); err != nil {
		return checkpoint.From(err)
	}

	fs.sectorCache.current = sector

	return nil
}

// readSectorInto is the raw sector read primitive. It reads the physical
// block with the given index into dst, which has to hold one sector.
// Access to the underlying reader is serialized internally, so inodes may
// call it from multiple goroutines. The read is not cached; callers doing
// repeated reads of the same sector keep their own scratch buffer.
func (fs *Fs) readSectorInto(block uint32, dst []byte) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if _, err := fs.reader.Seek(int64(block)*int64(fs.info.SectorSize), io.SeekStart); err != nil {
		return checkpoint.From(err)
	}

	if _, err := io.ReadFull(fs.reader, dst[:fs.info.SectorSize]); err != nil {
		return checkpoint.From(err)
	}

	return nil
}

// firstBlockOfCluster maps a cluster number to its first physical block.
func (fs *Fs) firstBlockOfCluster(cluster uint32) uint32 {
	return fs.info.FirstDataSector + (cluster-2)*uint32(fs.info.SectorsPerCluster)
}

// Label returns the volume label.
func (fs *Fs) Label() string {
	return fs.info.Label
}

// FSType returns the detected FAT variant.
func (fs *Fs) FSType() FATType {
	return fs.info.FSType
}

// ID returns the identity of this mounted filesystem instance.
func (fs *Fs) ID() vfs.FilesystemID {
	return fs.id
}

// inodeFor returns the inode for a decoded directory entry, reusing the
// cached one if the entry's first cluster has been seen before. Entries
// without a data cluster are not cached since cluster 0 is no usable
// identity.
func (fs *Fs) inodeFor(entry ExtendedEntryHeader) *Inode {
	index := entry.FirstCluster().Value()
	if index == 0 {
		return newInode(fs, entry)
	}

	fs.inodesLock.Lock()
	defer fs.inodesLock.Unlock()

	if node, ok := fs.inodes[index]; ok {
		return node
	}

	node := newInode(fs, entry)
	fs.inodes[index] = node
	return node
}

// RootInode returns the inode of the root directory.
func (fs *Fs) RootInode() *Inode {
	root := ExtendedEntryHeader{
		EntryHeader: EntryHeader{
			Attribute:      AttrDirectory,
			FirstClusterHI: uint16(fs.info.RootCluster.Value() >> 16),
			FirstClusterLO: uint16(fs.info.RootCluster.Value()),
		},
	}
	// The root directory has no entry of its own, so its synthesized name
	// decodes as empty.
	copy(root.Name[:], "           ")
	return fs.inodeFor(root)
}

// lookupPath walks the given slash-separated path from the root inode.
func (fs *Fs) lookupPath(name string) (*Inode, error) {
	node := fs.RootInode()

	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." {
			continue
		}

		child, err := node.Lookup(part)
		if err != nil {
			return nil, err
		}
		node = child.(*Inode)
	}

	return node, nil
}

func (fs *Fs) Open(name string) (afero.File, error) {
	node, err := fs.lookupPath(name)
	if err != nil {
		return nil, wrapLookupError(err)
	}

	return newFile(node, name), nil
}

// wrapLookupError additionally marks failed lookups with
// afero.ErrFileNotFound so callers of the afero surface can match the
// error they expect from any afero backend.
func wrapLookupError(err error) error {
	if errors.Is(err, vfs.ErrNotFound) {
		return checkpoint.Wrap(err, afero.ErrFileNotFound)
	}
	return checkpoint.From(err)
}

// OpenFile opens a file like Open. Any flag requesting write access is
// rejected with vfs.ErrReadOnlyFilesystem.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, checkpoint.From(vfs.ErrReadOnlyFilesystem)
	}

	return fs.Open(name)
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	node, err := fs.lookupPath(name)
	if err != nil {
		return nil, wrapLookupError(err)
	}

	return node.FileInfo(), nil
}

// Name returns the name of this filesystem implementation.
func (fs *Fs) Name() string {
	return "fatfs"
}

// All mutating operations below fail uniformly with
// vfs.ErrReadOnlyFilesystem, no matter which mutation was attempted.

func (fs *Fs) Create(name string) (afero.File, error) {
	return nil, checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (fs *Fs) Remove(name string) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (fs *Fs) RemoveAll(path string) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (fs *Fs) Rename(oldname, newname string) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}
