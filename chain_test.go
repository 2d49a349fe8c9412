package fatfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vfskit/fatfs/vfs"
)

// chainTestFs builds a tiny filesystem whose FAT is filled from the given
// entries. The geometry is small on purpose; the resolver only depends on
// the info fields and the FAT sectors.
func chainTestFs(t *testing.T, fat []uint32) *Fs {
	t.Helper()

	const (
		sectorSize        = 512
		sectorsPerCluster = 2
		reservedSectors   = 1
		totalClusters     = 16
	)

	image := make([]byte, (reservedSectors+1+totalClusters*sectorsPerCluster)*sectorSize)
	for entry, value := range fat {
		binary.LittleEndian.PutUint32(image[reservedSectors*sectorSize+entry*4:], value)
	}

	return &Fs{
		reader: bytes.NewReader(image),
		logger: slog.Default(),
		inodes: map[uint32]*Inode{},
		info: Info{
			FSType:            FAT32,
			SectorSize:        sectorSize,
			SectorsPerCluster: sectorsPerCluster,
			ReservedSectors:   reservedSectors,
			FirstDataSector:   reservedSectors + 1,
			TotalClusters:     totalClusters,
		},
	}
}

func TestFs_resolveClusterChain(t *testing.T) {
	tests := []struct {
		name    string
		fat     []uint32
		start   fatEntry
		want    []uint32
		wantErr error
	}{
		{
			name:  "single cluster",
			fat:   []uint32{0x0FFFFFF8, 0x0FFFFFFF, 0x0FFFFFFF},
			start: 2,
			want:  []uint32{2, 3},
		},
		{
			name:  "chain of three clusters",
			fat:   []uint32{0x0FFFFFF8, 0x0FFFFFFF, 3, 4, 0x0FFFFFFF},
			start: 2,
			want:  []uint32{2, 3, 4, 5, 6, 7},
		},
		{
			name:  "chain order follows the FAT, not the disk layout",
			fat:   []uint32{0x0FFFFFF8, 0x0FFFFFFF, 0x0FFFFFFF, 0, 0, 2},
			start: 5,
			want:  []uint32{8, 9, 2, 3},
		},
		{
			name:  "reserved top bits of an entry are ignored",
			fat:   []uint32{0x0FFFFFF8, 0x0FFFFFFF, 0xF0000003, 0xFFFFFFFF},
			start: 2,
			want:  []uint32{2, 3, 4, 5},
		},
		{
			name:  "a start cluster below the data area has no chain",
			fat:   []uint32{0x0FFFFFF8, 0x0FFFFFFF},
			start: 0,
			want:  nil,
		},
		{
			name:    "a self referencing chain is reported instead of looping",
			fat:     []uint32{0x0FFFFFF8, 0x0FFFFFFF, 3, 2},
			start:   2,
			wantErr: ErrCyclicClusterChain,
		},
		{
			name:  "a bad cluster marker terminates the chain",
			fat:   []uint32{0x0FFFFFF8, 0x0FFFFFFF, 3, 0x0FFFFFF7},
			start: 2,
			want:  []uint32{2, 3, 4, 5},
		},
		{
			name:    "a chain pointing to a free cluster is corrupt",
			fat:     []uint32{0x0FFFFFF8, 0x0FFFFFFF, 0},
			start:   2,
			wantErr: ErrBrokenClusterChain,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := chainTestFs(t, tt.fat)

			got, err := fs.resolveClusterChain(tt.start)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("resolveClusterChain() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr != nil {
				if !errors.Is(err, vfs.ErrInvalidData) {
					t.Errorf("resolveClusterChain() error = %v, want it to match vfs.ErrInvalidData", err)
				}
				return
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("resolveClusterChain() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// brokenReader fails every read to simulate a device level I/O error.
type brokenReader struct {
	err error
}

func (r *brokenReader) Read(p []byte) (int, error) {
	return 0, r.err
}

func (r *brokenReader) Seek(offset int64, whence int) (int64, error) {
	return offset, nil
}

func TestFs_resolveClusterChain_ioError(t *testing.T) {
	deviceErr := errors.New("the device is gone")

	fs := chainTestFs(t, nil)
	fs.reader = &brokenReader{err: deviceErr}

	_, err := fs.resolveClusterChain(2)
	if !errors.Is(err, ErrReadFAT) {
		t.Errorf("resolveClusterChain() error = %v, want %v", err, ErrReadFAT)
	}
	if !errors.Is(err, deviceErr) {
		t.Errorf("resolveClusterChain() error = %v, want the device error to be preserved", err)
	}
}

func TestFs_resolveClusterChain_blockCount(t *testing.T) {
	// A valid chain of length N always yields N*sectorsPerCluster blocks.
	fat := []uint32{0x0FFFFFF8, 0x0FFFFFFF, 3, 4, 5, 6, 0x0FFFFFFF}

	fs := chainTestFs(t, fat)
	blocks, err := fs.resolveClusterChain(2)
	if err != nil {
		t.Fatalf("resolveClusterChain() error = %v", err)
	}

	const chainLength = 5
	if want := chainLength * int(fs.info.SectorsPerCluster); len(blocks) != want {
		t.Errorf("resolveClusterChain() returned %d blocks, want %d", len(blocks), want)
	}
}

var _ io.ReadSeeker = (*brokenReader)(nil)
