package fatfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
	"syscall"

	"github.com/vfskit/fatfs/checkpoint"
	"github.com/vfskit/fatfs/vfs"
)

// ErrReadDirectory is returned when directory content cannot be read or
// decoded.
var ErrReadDirectory = errors.New("could not read the directory")

// Inode is one file or directory of a mounted FAT filesystem. It
// implements vfs.Inode.
//
// Name and metadata are decoded once at construction and immutable
// afterwards. The physical block list is computed lazily on the first read
// or directory traversal and cached for the inode's lifetime; there is no
// invalidation because the mount is read-only.
type Inode struct {
	fs    *Fs
	entry EntryHeader
	name  string
	meta  vfs.InodeMetadata

	// lock guards the lazily computed block list. It is held across the
	// whole check-compute-use sequence, so two goroutines triggering the
	// first read of the same file serialize instead of duplicating the
	// FAT walk.
	lock           sync.Mutex
	blockList      []uint32
	blockListValid bool
}

var _ vfs.Inode = (*Inode)(nil)

func newInode(fs *Fs, entry ExtendedEntryHeader) *Inode {
	mode := inodeModeOf(entry.EntryHeader)

	node := &Inode{
		fs:    fs,
		entry: entry.EntryHeader,
		name:  entry.DisplayName(),
		meta: vfs.InodeMetadata{
			Inode: vfs.InodeIdentifier{
				FilesystemID: fs.id,
				Index:        vfs.InodeIndex(entry.FirstCluster().Value()),
			},
			Size:  int64(entry.FileSize),
			Mode:  mode,
			ATime: entryTime(entry.LastAccessDate, 0),
			CTime: entryTime(entry.CreateDate, entry.CreateTime),
			MTime: entryTime(entry.WriteDate, entry.WriteTime),
			// Link count and block accounting are not populated for FAT
			// inodes.
		},
	}

	fs.logger.Debug("creating inode",
		"inode", entry.FirstCluster().Value(),
		"filename", node.name)

	return node
}

// inodeModeOf derives the fixed inode mode from the attribute byte:
// directory or regular file, always permission 0777.
func inodeModeOf(entry EntryHeader) fs.FileMode {
	if entry.IsDir() {
		return fs.ModeDir | 0777
	}
	return 0777
}

// Name returns the display filename decoded at construction.
func (n *Inode) Name() string {
	return n.name
}

// Identifier returns the inode's identity, using the first cluster number
// as the index.
func (n *Inode) Identifier() vfs.InodeIdentifier {
	return n.meta.Inode
}

// Metadata returns the metadata record decoded at construction. It
// performs no I/O.
func (n *Inode) Metadata() vfs.InodeMetadata {
	return n.meta
}

// FileInfo returns an os.FileInfo view of the inode.
func (n *Inode) FileInfo() os.FileInfo {
	return inodeFileInfo{name: n.name, meta: n.meta}
}

// ensureBlockList computes the block list on first use. The caller has to
// hold n.lock.
func (n *Inode) ensureBlockList() error {
	if n.blockListValid {
		return nil
	}

	n.fs.logger.Debug("computing block list", "inode", n.meta.Inode.Index)

	blockList, err := n.fs.resolveClusterChain(n.entry.FirstCluster())
	if err != nil {
		return err
	}

	n.blockList = blockList
	n.blockListValid = true
	return nil
}

// readAllBlocks materializes the inode's whole data content. The caller
// has to hold n.lock.
func (n *Inode) readAllBlocks() ([]byte, error) {
	if err := n.ensureBlockList(); err != nil {
		return nil, err
	}

	sectorSize := int(n.fs.info.SectorSize)
	content := make([]byte, len(n.blockList)*sectorSize)

	for i, block := range n.blockList {
		if err := n.fs.readSectorInto(block, content[i*sectorSize:(i+1)*sectorSize]); err != nil {
			return nil, checkpoint.From(err)
		}
	}

	return content, nil
}

// ReadBytes reads up to len(p) bytes starting at offset and returns the
// number of bytes copied, at most size-offset.
//
// The whole file is materialized even for a small ranged read. This is a
// known inefficiency kept from the original layout of the driver; reading
// only the blocks covering the requested range would be better.
func (n *Inode) ReadBytes(offset int64, p []byte) (int, error) {
	if offset < 0 {
		return 0, checkpoint.From(syscall.EINVAL)
	}

	n.lock.Lock()
	defer n.lock.Unlock()

	content, err := n.readAllBlocks()
	if err != nil {
		return 0, err
	}

	size := n.meta.Size
	if size > int64(len(content)) {
		// The directory entry claims more bytes than the chain covers.
		size = int64(len(content))
	}
	if offset >= size {
		return 0, nil
	}

	return copy(p, content[offset:size]), nil
}

// traverse scans the directory data of the inode and calls match for every
// real child until match accepts one. The caller has to hold n.lock.
//
// The self and parent pseudo entries are skipped on their decoded name,
// before any inode is constructed for them: a "." record carries the
// directory's own first cluster, so resolving it through the cluster-keyed
// inode cache would hand back the directory under its cached name and make
// it appear as its own child.
func (n *Inode) traverse(match func(*Inode) (bool, error)) (*Inode, error) {
	content, err := n.readAllBlocks()
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDirectory)
	}

	scanner := newDirScanner(content)
	for {
		entry, err := scanner.next()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, checkpoint.Wrap(err, ErrReadDirectory)
		}

		name := entry.DisplayName()
		if name == "" || name == "." || name == ".." {
			continue
		}

		child := n.fs.inodeFor(entry)
		accept, err := match(child)
		if err != nil {
			return nil, err
		}
		if accept {
			return child, nil
		}
	}
}

// Lookup resolves one child name. It fails with vfs.ErrNotDirectory on
// non-directories and vfs.ErrNotFound if there is no child with that name.
func (n *Inode) Lookup(name string) (vfs.Inode, error) {
	if !n.entry.IsDir() {
		return nil, checkpoint.From(vfs.ErrNotDirectory)
	}

	n.lock.Lock()
	defer n.lock.Unlock()

	child, err := n.traverse(func(child *Inode) (bool, error) {
		return child.name == name, nil
	})
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, checkpoint.From(vfs.ErrNotFound)
	}

	return child, nil
}

// TraverseAsDirectory invokes visit for every real child of the directory,
// skipping the synthesized self, parent and empty-name pseudo entries. An
// error returned by visit aborts the traversal and is propagated.
func (n *Inode) TraverseAsDirectory(visit func(vfs.DirectoryEntryView) error) error {
	if !n.entry.IsDir() {
		return checkpoint.From(vfs.ErrNotDirectory)
	}

	n.lock.Lock()
	defer n.lock.Unlock()

	_, err := n.traverse(func(child *Inode) (bool, error) {
		if err := visit(vfs.DirectoryEntryView{
			Name:       child.name,
			Inode:      child.Identifier(),
			Attributes: child.entry.Attribute,
		}); err != nil {
			return false, err
		}
		return false, nil
	})

	return err
}

// ReadDirInfos returns an os.FileInfo for every real child of the
// directory, in on-disk order.
func (n *Inode) ReadDirInfos() ([]os.FileInfo, error) {
	if !n.entry.IsDir() {
		return nil, checkpoint.From(vfs.ErrNotDirectory)
	}

	n.lock.Lock()
	defer n.lock.Unlock()

	var infos []os.FileInfo
	_, err := n.traverse(func(child *Inode) (bool, error) {
		infos = append(infos, child.FileInfo())
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return infos, nil
}

// All mutating operations below fail uniformly with
// vfs.ErrReadOnlyFilesystem, no matter which mutation was attempted. This
// includes benign-looking requests like a zero-length truncate.

func (n *Inode) WriteBytes(offset int64, p []byte) (int, error) {
	return 0, checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (n *Inode) CreateChild(name string, mode fs.FileMode) (vfs.Inode, error) {
	return nil, checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (n *Inode) AddChild(child vfs.Inode, name string, mode fs.FileMode) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (n *Inode) RemoveChild(name string) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (n *Inode) ReplaceChild(name string, child vfs.Inode) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (n *Inode) Chmod(mode fs.FileMode) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (n *Inode) Chown(uid, gid uint32) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (n *Inode) Truncate(size int64) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (n *Inode) FlushMetadata() error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}
