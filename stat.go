package fatfs

import (
	"os"
	"time"

	"github.com/vfskit/fatfs/vfs"
)

// inodeFileInfo adapts an inode's name and metadata record to os.FileInfo.
type inodeFileInfo struct {
	name string
	meta vfs.InodeMetadata
}

func (i inodeFileInfo) Name() string {
	return i.name
}

func (i inodeFileInfo) Size() int64 {
	return i.meta.Size
}

func (i inodeFileInfo) Mode() os.FileMode {
	return i.meta.Mode
}

func (i inodeFileInfo) ModTime() time.Time {
	return i.meta.MTime
}

func (i inodeFileInfo) IsDir() bool {
	return i.meta.IsDirectory()
}

// Sys returns the full metadata record.
func (i inodeFileInfo) Sys() interface{} {
	return i.meta
}
