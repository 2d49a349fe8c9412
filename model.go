// File model contains the structs which match the on-disk structures of the
// FAT filesystem.

package fatfs

// BPB is the BIOS Parameter Block at the start of the volume. The layout is
// shared by all FAT variants up to FATSpecificData, which holds either the
// FAT12/16 or the FAT32 tail.
type BPB struct {
	BSJumpBoot          [3]byte
	BSOEMName           [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   byte
	ReservedSectorCount uint16
	NumFATs             byte
	RootEntryCount      uint16
	TotalSectors16      uint16
	Media               byte
	FATSize16           uint16
	SectorsPerTrack     uint16
	NumberOfHeads       uint16
	HiddenSectors       uint32
	TotalSectors32      uint32
	FATSpecificData     [54]byte
}

type FAT32SpecificData struct {
	FATSize          uint32
	ExtFlags         uint16
	FSVersion        uint16
	RootCluster      uint32
	FSInfo           uint16
	BkBootSector     uint16
	Reserved         [12]byte
	BSDriveNumber    byte
	BSReserved1      byte
	BSBootSignature  byte
	BSVolumeID       uint32
	BSVolumeLabel    [11]byte
	BSFileSystemType [8]byte
}

// EntryHeader is one raw 32-byte directory entry. The first 8 bytes of Name
// are the space-padded filename, the last 3 the space-padded extension.
type EntryHeader struct {
	Name            [11]byte
	Attribute       byte
	NTReserved      byte
	CreateTimeTenth byte
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHI  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLO  uint16
	FileSize        uint32
}

// FirstCluster returns the entry's starting cluster assembled from the
// high and low half.
func (e EntryHeader) FirstCluster() fatEntry {
	return fatEntry(uint32(e.FirstClusterHI)<<16 | uint32(e.FirstClusterLO))
}

// IsDir reports whether the directory attribute bit is set.
func (e EntryHeader) IsDir() bool {
	return e.Attribute&AttrDirectory == AttrDirectory
}

// LongFilenameEntry is one raw 32-byte long-filename record. It carries up
// to 13 UTF-16 code units spread over First, Second and Third.
type LongFilenameEntry struct {
	Sequence  byte
	First     [5]uint16
	Attribute byte
	EntryType byte
	Checksum  byte
	Second    [6]uint16
	Zero      [2]byte
	Third     [2]uint16
}

// ExtendedEntryHeader is a directory entry together with the long filename
// assembled from the preceding long-filename records. ExtendedName is empty
// if the entry had none.
type ExtendedEntryHeader struct {
	EntryHeader
	ExtendedName string
}

// Attribute byte values. AttrLongFileName is the reserved combination of
// the first four bits which marks a long-filename record.
const (
	AttrReadOnly     = 0x01
	AttrHidden       = 0x02
	AttrSystem       = 0x04
	AttrVolumeID     = 0x08
	AttrDirectory    = 0x10
	AttrArchive      = 0x20
	AttrLongFileName = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

// Sentinel values of the first filename byte.
const (
	// endEntryByte marks the end of a directory. No entry after it is valid.
	endEntryByte = 0x00
	// deletedEntryByte marks a deleted or never used entry.
	deletedEntryByte = 0xE5
)

// directoryEntrySize is the fixed on-disk size of both EntryHeader and
// LongFilenameEntry.
const directoryEntrySize = 32
