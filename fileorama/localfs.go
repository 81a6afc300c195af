package fileorama

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

// LocalFSDriver is the built-in IoDriver for the "file://" and bare local
// path scheme, grounded on original_source's local_fs.rs.
type LocalFSDriver struct {
	root string
}

// NewLocalFSDriver creates a driver rooted at root (an empty root means
// paths are taken as absolute).
func NewLocalFSDriver(root string) *LocalFSDriver {
	return &LocalFSDriver{root: root}
}

func (d *LocalFSDriver) Name() string    { return "local_fs" }
func (d *LocalFSDriver) IsRemote() bool  { return false }
func (d *LocalFSDriver) CreateInstance() IoDriver {
	return &LocalFSDriver{root: d.root}
}

func (d *LocalFSDriver) SupportsURL(url string) bool {
	return strings.HasPrefix(url, "file://") || !strings.Contains(url, "://")
}

func (d *LocalFSDriver) resolvePath(path string) string {
	p := strings.TrimPrefix(path, "file://")
	if d.root != "" {
		return filepath.Join(d.root, p)
	}
	return p
}

func (d *LocalFSDriver) Load(path string, progress *Progress) (LoadStatus, error) {
	full := d.resolvePath(path)
	info, err := os.Stat(full)
	// A path that runs through a regular file (an archive plus its inner
	// path) is not found here either, so the resolver backs off to a shorter
	// prefix.
	if os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR) {
		return LoadStatus{NotFound: true}, nil
	}
	if err != nil {
		return LoadStatus{}, errGeneric(err.Error())
	}
	if info.IsDir() {
		fd, err := d.GetDirectoryList(path)
		if err != nil {
			return LoadStatus{}, err
		}
		return LoadStatus{Directory: &fd}, nil
	}
	progress.SetStepCount(1)
	data, err := os.ReadFile(full)
	if err != nil {
		return LoadStatus{}, errGeneric(err.Error())
	}
	progress.Step()
	return LoadStatus{Data: data}, nil
}

func (d *LocalFSDriver) GetDirectoryList(path string) (FilesDirs, error) {
	full := d.resolvePath(path)
	entries, err := os.ReadDir(full)
	if err != nil {
		return FilesDirs{}, errGeneric(err.Error())
	}
	var fd FilesDirs
	for _, e := range entries {
		if e.IsDir() {
			fd.Dirs = append(fd.Dirs, e.Name())
		} else {
			fd.Files = append(fd.Files, e.Name())
		}
	}
	sort.Strings(fd.Files)
	sort.Strings(fd.Dirs)
	return fd, nil
}
