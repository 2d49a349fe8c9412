package fatfs

// fatEntry is one 32-bit entry of the File Allocation Table. Only the low
// 28 bits carry the cluster number; the top 4 bits are reserved and must be
// ignored when reading.
type fatEntry uint32

const (
	// fatEntryMask keeps the significant 28 bits of a FAT32 entry.
	fatEntryMask = 0x0FFFFFFF

	// endOfChain is the start of the value range which terminates a
	// cluster chain.
	endOfChain = 0x0FFFFFF8

	badCluster = 0x0FFFFFF7
)

// Value returns the entry masked to its significant 28 bits.
func (e fatEntry) Value() uint32 {
	return uint32(e) & fatEntryMask
}

// IsFree reports whether the cluster is unallocated.
func (e fatEntry) IsFree() bool {
	return e.Value() == 0
}

// IsReservedTemp reports the reserved temporary value 1 which should never
// occur inside a chain.
func (e fatEntry) IsReservedTemp() bool {
	return e.Value() == 1
}

// IsNextCluster reports whether the entry points at another data cluster.
func (e fatEntry) IsNextCluster() bool {
	v := e.Value()
	return v >= 2 && v <= 0x0FFFFFEF
}

// IsReservedSometimes reports the value range 0x0FFFFFF0-0x0FFFFFF5 which
// is reserved in some contexts and must not be used.
func (e fatEntry) IsReservedSometimes() bool {
	v := e.Value()
	return v >= 0x0FFFFFF0 && v <= 0x0FFFFFF5
}

// IsReserved reports the reserved value 0x0FFFFFF6.
func (e fatEntry) IsReserved() bool {
	return e.Value() == 0x0FFFFFF6
}

// IsBad reports whether the cluster is marked defective.
func (e fatEntry) IsBad() bool {
	return e.Value() == badCluster
}

// IsEOF reports whether the entry terminates a cluster chain.
func (e fatEntry) IsEOF() bool {
	return e.Value() >= endOfChain
}

// ReadAsNextCluster reports whether a chain walk should follow the entry.
// Reserved values are followed like the FAT specification suggests for
// reading nonstandard volumes; free and bad clusters are not.
func (e fatEntry) ReadAsNextCluster() bool {
	return e.IsNextCluster() || e.IsReservedSometimes() || e.IsReserved()
}

// ReadAsEOF reports whether a chain walk should stop at the entry.
func (e fatEntry) ReadAsEOF() bool {
	return e.IsEOF() || e.IsBad()
}
