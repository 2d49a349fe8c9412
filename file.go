package fatfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/spf13/afero"

	"github.com/vfskit/fatfs/checkpoint"
	"github.com/vfskit/fatfs/vfs"
)

// These errors may occur while processing a file.
var (
	ErrReadFile = errors.New("could not read file completely")
	ErrSeekFile = errors.New("could not seek inside of the file")
	ErrReadDir  = errors.New("could not read the directory")
)

// fatNode provides all methods a File needs from an inode.
// It mainly exists to be able to mock the inode in tests.
// Generated mock using mockgen:
//
//	mockgen -source=file.go -destination=file_mock.go -package fatfs
type fatNode interface {
	Metadata() vfs.InodeMetadata
	FileInfo() os.FileInfo
	ReadBytes(offset int64, p []byte) (int, error)
	ReadDirInfos() ([]os.FileInfo, error)
}

// File implements afero.File on top of an inode.
type File struct {
	node fatNode
	path string

	isDirectory bool
	isReadOnly  bool
	isHidden    bool
	isSystem    bool

	stat   os.FileInfo
	offset int64
}

var _ afero.File = (*File)(nil)

func newFile(node *Inode, path string) *File {
	return &File{
		node:        node,
		path:        path,
		isDirectory: node.entry.IsDir(),
		isReadOnly:  node.entry.Attribute&AttrReadOnly == AttrReadOnly,
		isHidden:    node.entry.Attribute&AttrHidden == AttrHidden,
		isSystem:    node.entry.Attribute&AttrSystem == AttrSystem,
		stat:        node.FileInfo(),
	}
}

func (f *File) Close() error {
	f.node = nil
	f.path = ""
	f.isDirectory = false
	f.isReadOnly = false
	f.isHidden = false
	f.isSystem = false
	f.stat = nil
	f.offset = 0

	return nil
}

func (f *File) Read(p []byte) (n int, err error) {
	if p == nil {
		return 0, nil
	}

	// Reading a file if the size has been already reached, makes no sense.
	if f.stat.Size() <= f.offset {
		return 0, io.EOF
	}

	n, err = f.node.ReadBytes(f.offset, p)

	// Seek even if an error occurred, errors from reading are used even if
	// seek also errors.
	_, seekErr := f.Seek(int64(n), io.SeekCurrent)

	if err != nil {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}

	if seekErr != nil {
		return n, checkpoint.Wrap(seekErr, ErrReadFile)
	}

	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if p == nil {
		return 0, nil
	}

	// Reading over the end makes no sense.
	if f.stat.Size() <= off {
		return 0, io.EOF
	}

	n, err = f.node.ReadBytes(off, p)
	if err != nil {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}

	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// Seek jumps to a specific offset in the file. This affects all Read
// operations except ReadAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.stat.Size() + offset
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 || offset > f.stat.Size() {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Name() string {
	return f.stat.Name()
}

// Readdir reads the contents of the directory in on-disk order.
// May return vfs.ErrNotDirectory if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.isDirectory {
		return nil, checkpoint.Wrap(vfs.ErrNotDirectory, ErrReadDir)
	}

	content, err := f.node.ReadDirInfos()
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	end := len(content)

	if int64(len(content)) < f.offset+int64(count) {
		count = len(content) - int(f.offset)
		err = io.EOF
	}

	if count >= 0 {
		end = int(f.offset) + count
	}

	content = content[f.offset:end]

	if count > 0 {
		f.offset += int64(count)
	} else if count < 0 {
		f.offset = int64(end)
	}

	return content, err
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil && err != io.EOF {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, err
}

func (f *File) Stat() (os.FileInfo, error) {
	return f.stat, nil
}

// All mutating operations below fail uniformly with
// vfs.ErrReadOnlyFilesystem, no matter which mutation was attempted.

func (f *File) Write(p []byte) (n int, err error) {
	return 0, checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	return 0, checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (f *File) WriteString(s string) (ret int, err error) {
	return 0, checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (f *File) Sync() error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}

func (f *File) Truncate(size int64) error {
	return checkpoint.From(vfs.ErrReadOnlyFilesystem)
}
