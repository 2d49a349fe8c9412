// Package vfs defines the inode contract shared by all filesystem
// implementations. A filesystem hands out Inodes; the caller drives them
// through this interface without knowing the on-disk format behind them.
package vfs

import (
	"errors"
	"io/fs"
	"time"
)

// These errors form the common failure vocabulary of every Inode
// implementation. They are sentinels so callers can match them with
// errors.Is even when an implementation wraps them with extra context.
var (
	// ErrReadOnlyFilesystem is returned by every mutating operation of a
	// filesystem mounted read-only, regardless of which mutation was
	// attempted.
	ErrReadOnlyFilesystem = errors.New("read-only filesystem")

	// ErrNotFound is returned by Lookup if the directory contains no child
	// with the requested name.
	ErrNotFound = errors.New("no such file or directory")

	// ErrNotDirectory is returned by directory-only operations invoked on
	// an inode that is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrInvalidData is returned when an on-disk structure is inconsistent
	// with the filesystem geometry and cannot be interpreted.
	ErrInvalidData = errors.New("invalid filesystem data")
)

// FilesystemID identifies a mounted filesystem instance.
type FilesystemID uint64

// InodeIndex is the per-filesystem index of an inode. Filesystems choose
// their own indexing scheme; a FAT filesystem uses the first cluster number.
type InodeIndex uint64

// InodeIdentifier is the global identity of an inode: which filesystem it
// belongs to and its index within that filesystem.
type InodeIdentifier struct {
	FilesystemID FilesystemID
	Index        InodeIndex
}

// InodeMetadata is the fully decoded metadata record of an inode. It is a
// plain value; retrieving it performs no I/O.
type InodeMetadata struct {
	Inode      InodeIdentifier
	Size       int64
	Mode       fs.FileMode
	UID        uint32
	GID        uint32
	LinkCount  uint32
	ATime      time.Time
	CTime      time.Time
	MTime      time.Time
	BlockCount int64
	BlockSize  int64
}

// IsDirectory reports whether the metadata describes a directory.
func (m InodeMetadata) IsDirectory() bool {
	return m.Mode.IsDir()
}

// DirectoryEntryView is the read-only view of one directory child passed to
// a TraverseAsDirectory visitor. Attributes carries the implementation's
// raw attribute byte.
type DirectoryEntryView struct {
	Name       string
	Inode      InodeIdentifier
	Attributes uint8
}

// Inode is the contract every filesystem node implements. Multiple
// goroutines may hold the same Inode and call into it concurrently;
// implementations synchronize internally.
//
// Read-only filesystems implement the mutating half by returning
// ErrReadOnlyFilesystem from every mutating method.
type Inode interface {
	// Identifier returns the inode's identity. It never performs I/O.
	Identifier() InodeIdentifier

	// Metadata returns the decoded metadata record. It never performs I/O
	// and never fails.
	Metadata() InodeMetadata

	// ReadBytes reads up to len(p) bytes starting at offset and returns
	// the number of bytes copied. Reads past the end of the file return
	// fewer bytes than requested.
	ReadBytes(offset int64, p []byte) (int, error)

	// Lookup resolves one child name inside a directory inode.
	Lookup(name string) (Inode, error)

	// TraverseAsDirectory invokes visit for every real child of a
	// directory inode. An error returned by visit aborts the traversal
	// and is propagated.
	TraverseAsDirectory(visit func(DirectoryEntryView) error) error

	// Mutating operations.
	WriteBytes(offset int64, p []byte) (int, error)
	CreateChild(name string, mode fs.FileMode) (Inode, error)
	AddChild(child Inode, name string, mode fs.FileMode) error
	RemoveChild(name string) error
	ReplaceChild(name string, child Inode) error
	Chmod(mode fs.FileMode) error
	Chown(uid, gid uint32) error
	Truncate(size int64) error
	FlushMetadata() error
}
