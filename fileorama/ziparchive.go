package fileorama

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"
	"strings"
)

// ZipDriver is the built-in MemoryDriver for zip archives, grounded on
// original_source's zip_fs.rs and exercising archive/zip from the standard
// library — no third-party archive reader appears anywhere in the
// retrieval pack, so stdlib is the grounded choice here (see DESIGN.md).
type ZipDriver struct {
	reader *zip.Reader
	files  map[string]*zip.File
	// listing caches each directory's children so repeated requests for the
	// same archive node don't re-walk reader.File (SPEC_FULL.md supplemented
	// feature #3).
	listing map[string]FilesDirs
}

func (d *ZipDriver) Name() string { return "zip" }

func (d *ZipDriver) CreateInstance() MemoryDriver { return &ZipDriver{} }

func (d *ZipDriver) CanCreateFromData(data []byte, fileExtHint string) bool {
	if strings.EqualFold(fileExtHint, "zip") {
		return true
	}
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K'
}

func (d *ZipDriver) CreateFromData(data []byte, fileExtHint string, driverData any) (MemoryDriver, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errGeneric(err.Error())
	}
	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files["/"+strings.TrimSuffix(f.Name, "/")] = f
	}
	return &ZipDriver{reader: r, files: files, listing: make(map[string]FilesDirs)}, nil
}

func (d *ZipDriver) Load(localPath string, progress *Progress) (LoadStatus, error) {
	key := strings.TrimSuffix(localPath, "/")
	if key == "" {
		key = "/"
	}
	if f, ok := d.files[key]; ok && !f.FileInfo().IsDir() {
		rc, err := f.Open()
		if err != nil {
			return LoadStatus{}, errGeneric(err.Error())
		}
		defer rc.Close()
		progress.SetStepCount(1)
		data, err := io.ReadAll(rc)
		if err != nil {
			return LoadStatus{}, errGeneric(err.Error())
		}
		progress.Step()
		return LoadStatus{Data: data}, nil
	}
	fd, err := d.GetDirectoryList(localPath)
	if err != nil {
		return LoadStatus{}, err
	}
	return LoadStatus{Directory: &fd}, nil
}

func (d *ZipDriver) GetDirectoryList(localPath string) (FilesDirs, error) {
	key := strings.TrimSuffix(localPath, "/")
	if key == "" {
		key = "/"
	}
	if cached, ok := d.listing[key]; ok {
		return cached, nil
	}
	seen := map[string]bool{}
	var fd FilesDirs
	prefix := key
	if prefix != "/" {
		prefix += "/"
	}
	for name, f := range d.files {
		if !strings.HasPrefix(name, prefix) || name == key {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			dirName := rest[:i]
			if !seen[dirName] {
				seen[dirName] = true
				fd.Dirs = append(fd.Dirs, dirName)
			}
			continue
		}
		if f.FileInfo().IsDir() {
			if !seen[rest] {
				seen[rest] = true
				fd.Dirs = append(fd.Dirs, rest)
			}
			continue
		}
		fd.Files = append(fd.Files, rest)
	}
	sort.Strings(fd.Files)
	sort.Strings(fd.Dirs)
	d.listing[key] = fd
	return fd, nil
}
