package fatfs

import (
	"encoding/binary"
	"errors"

	"github.com/vfskit/fatfs/checkpoint"
	"github.com/vfskit/fatfs/vfs"
)

// These errors may occur while resolving a cluster chain.
var (
	ErrReadFAT            = errors.New("could not read the file allocation table")
	ErrCyclicClusterChain = errors.New("cluster chain does not terminate")
	ErrBrokenClusterChain = errors.New("cluster chain points to a free cluster")
)

// resolveClusterChain walks the File Allocation Table starting at the
// given cluster and returns the physical block index of every block
// belonging to the chain, in chain order. That order defines how file byte
// offsets map to blocks.
//
// Each step reads the FAT sector holding the current cluster's 32-bit
// entry into a scratch buffer local to this call and classifies the value
// through the fatEntry methods: ReadAsEOF terminates the walk, a chain
// entry which is neither followable nor terminal means the FAT is corrupt.
//
// A chain longer than the FAT itself cannot be valid, so the walk reports
// vfs.ErrInvalidData instead of looping forever on a corrupt,
// self-referencing FAT.
func (fs *Fs) resolveClusterChain(start fatEntry) ([]uint32, error) {
	// Entries without an allocated data cluster have an empty chain.
	if start.Value() < 2 {
		return nil, nil
	}

	var blockList []uint32
	fatSector := make([]byte, fs.info.SectorSize)

	maxChainLength := fs.info.TotalClusters + 2

	entry := start
	for steps := uint32(0); !entry.ReadAsEOF(); steps++ {
		if steps >= maxChainLength {
			return nil, checkpoint.Wrap(vfs.ErrInvalidData, ErrCyclicClusterChain)
		}
		if !entry.ReadAsNextCluster() {
			return nil, checkpoint.Wrap(vfs.ErrInvalidData, ErrBrokenClusterChain)
		}

		cluster := entry.Value()
		fs.logger.Debug("appending cluster to chain", "cluster", cluster, "start", start.Value())

		firstBlock := fs.firstBlockOfCluster(cluster)
		for i := uint8(0); i < fs.info.SectorsPerCluster; i++ {
			blockList = append(blockList, firstBlock+uint32(i))
		}

		fatOffset := cluster * 4
		fatSectorIndex := uint32(fs.info.ReservedSectors) + fatOffset/uint32(fs.info.SectorSize)
		entryOffset := fatOffset % uint32(fs.info.SectorSize)

		if err := fs.readSectorInto(fatSectorIndex, fatSector); err != nil {
			return nil, checkpoint.Wrap(err, ErrReadFAT)
		}

		entry = fatEntry(binary.LittleEndian.Uint32(fatSector[entryOffset:]))
	}

	return blockList, nil
}
