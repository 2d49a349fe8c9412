package fatfs

import (
	"errors"
	"io"
	"io/fs"
)

// GoDirEntry adapts an os.FileInfo to fs.DirEntry.
type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

// GoFile adapts a File to fs.File and fs.ReadDirFile.
type GoFile struct {
	*File
}

func (g GoFile) Stat() (fs.FileInfo, error) {
	return g.File.Stat()
}

func (g GoFile) Read(bytes []byte) (int, error) {
	return g.File.Read(bytes)
}

func (g GoFile) Close() error {
	return g.File.Close()
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := g.File.Readdir(n)
	if err != nil && err != io.EOF {
		return nil, err
	}

	goEntries := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		goEntries[i] = GoDirEntry{e}
	}

	return goEntries, err
}

// GoFs wraps the afero FAT implementation to be compatible with fs.FS.
// It embeds the mount object by pointer; Fs carries the mutex serializing
// access to the shared reader and may not be copied.
type GoFs struct {
	*Fs
}

// NewGoFS opens a FAT filesystem from the given reader as fs.FS compatible
// filesystem.
func NewGoFS(reader io.ReadSeeker) (*GoFs, error) {
	fs, err := New(reader)
	if err != nil {
		return nil, err
	}

	return &GoFs{fs}, nil
}

// NewGoFSSkipChecks opens a FAT filesystem from the given reader as fs.FS
// compatible filesystem just like NewGoFS but it skips some filesystem
// validations which may allow you to open not perfectly standard FAT
// filesystems. Use with caution!
func NewGoFSSkipChecks(reader io.ReadSeeker) (*GoFs, error) {
	fs, err := NewSkipChecks(reader)
	if err != nil {
		return nil, err
	}

	return &GoFs{fs}, nil
}

func (g GoFs) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	f, ok := file.(*File)
	if !ok {
		return nil, errors.New("invalid File implementation")
	}

	return GoFile{f}, nil
}
