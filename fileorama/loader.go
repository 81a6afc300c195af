package fileorama

import "strings"

// loader drives the resolution state machine described in spec.md §4.3:
//
//	FindNode -> FindDriverUrl | LoadFromNode -> LoadFromIoDriver ->
//	FindDriverData -> LoadFromDriver -> Done | UnsupportedPath
type loader struct {
	url          string
	components   []string
	driverName   string
	driverData   any
	progressFunc func(float32)
}

func newLoader(url, driverName string, driverData any) *loader {
	return &loader{url: url, components: splitPath(url), driverName: driverName, driverData: driverData}
}

func (l *loader) run(v *vfs, drivers driverSet) (LoadStatus, error) {
	nodeIdx, matched := v.findNode(l.components)
	if matched == len(l.components) {
		return l.loadFromNode(v, nodeIdx, drivers)
	}
	return l.findDriverURL(v, nodeIdx, matched, drivers)
}

func (l *loader) loadFromNode(v *vfs, nodeIdx int, drivers driverSet) (LoadStatus, error) {
	n := &v.nodes[nodeIdx]
	switch {
	case n.memDriver != nil:
		return l.loadFromMemDriverPath(v, nodeIdx, n.memDriver, nil, drivers)
	case n.ioDriver != nil:
		full := l.remainderAfter(v, nodeIdx)
		status, err := n.ioDriver.Load(full, newProgress(0, 1, l.progressFunc))
		if err != nil {
			return LoadStatus{}, err
		}
		return l.afterIOLoad(v, nodeIdx, status, nil, drivers)
	default:
		return LoadStatus{}, ErrFileDirNotFound
	}
}

// findDriverURL walks the remaining path backwards, trying each registered
// IoDriver at each shrinking prefix; a driver "claims" a prefix by
// successfully Load()-ing it (not merely by SupportsURL, which only filters
// by scheme) — a NotFound result means the real driver couldn't find
// anything there and the walk backs off to a shorter prefix, which is how a
// path straddling a real directory and a nested archive resolves (spec.md
// §4.3 step 5).
func (l *loader) findDriverURL(v *vfs, startIdx, base int, drivers driverSet) (LoadStatus, error) {
	for end := len(l.components); end > base; end-- {
		candidate := pathPrefix(l.components, end)
		for _, d := range drivers.io {
			if !d.SupportsURL(candidate) {
				continue
			}
			inst := d.CreateInstance()
			status, err := inst.Load(candidate, newProgress(0, 1, l.progressFunc))
			if err != nil {
				return LoadStatus{}, err
			}
			if status.NotFound {
				continue
			}
			mounted := growTo(v, startIdx, l.components[base:end])
			v.nodes[mounted].ioDriver = inst
			if status.Directory != nil {
				v.nodes[mounted].nodeType = NodeDirectory
			} else if v.nodes[mounted].nodeType == NodeUnknown {
				v.nodes[mounted].nodeType = NodeFile
			}
			return l.afterIOLoad(v, mounted, status, l.components[end:], drivers)
		}
	}
	return LoadStatus{}, ErrUnsupportedPath
}

func pathPrefix(components []string, end int) string {
	if end <= 0 {
		return ""
	}
	return "/" + strings.Join(components[:end], "/")
}

// growTo walks/creates Unknown nodes for each name in names starting at
// startIdx, returning the final node index.
func growTo(v *vfs, startIdx int, names []string) int {
	cur := startIdx
	for _, name := range names {
		child := v.findChild(cur, name)
		if child < 0 {
			child = v.addChild(cur, name, NodeUnknown)
		}
		cur = child
	}
	return cur
}

// afterIOLoad dispatches on what the IoDriver produced. remainder is any
// path left over after the prefix the driver claimed (non-empty only when
// the claimed prefix was a nested archive's own file, not a plain
// directory).
func (l *loader) afterIOLoad(v *vfs, nodeIdx int, status LoadStatus, remainder []string, drivers driverSet) (LoadStatus, error) {
	if status.Directory != nil {
		for _, dir := range status.Directory.Dirs {
			if v.findChild(nodeIdx, dir) < 0 {
				v.addChild(nodeIdx, dir, NodeDirectory)
			}
		}
		for _, f := range status.Directory.Files {
			if v.findChild(nodeIdx, f) < 0 {
				v.addChild(nodeIdx, f, NodeFile)
			}
		}
		if len(remainder) != 0 {
			return LoadStatus{}, ErrUnsupportedPath
		}
		return status, nil
	}
	if len(remainder) == 0 {
		return l.findDriverData(v, nodeIdx, status.Data, drivers)
	}
	return l.enterMemoryDriver(v, nodeIdx, status.Data, remainder, drivers)
}

// findDriverData asks each MemoryDriver whether it can interpret data; first
// match mounts a memory driver on the current node (spec.md §4.3 step 4).
func (l *loader) findDriverData(v *vfs, nodeIdx int, data []byte, drivers driverSet) (LoadStatus, error) {
	ext := extHint(l.url)
	for _, d := range drivers.mem {
		if l.driverName != "" && d.Name() != l.driverName {
			continue
		}
		if !d.CanCreateFromData(data, ext) {
			continue
		}
		inst, err := d.CreateFromData(data, ext, l.driverData)
		if err != nil {
			return LoadStatus{}, err
		}
		v.nodes[nodeIdx].memDriver = inst
		return l.loadFromMemDriverPath(v, nodeIdx, inst, nil, drivers)
	}
	if l.driverName != "" {
		return LoadStatus{}, ErrDriverMismatch
	}
	return LoadStatus{Data: data}, nil
}

// enterMemoryDriver mounts the first MemoryDriver that can interpret data
// (the bytes of the archive/container the IoDriver returned), then resolves
// remainder inside it.
func (l *loader) enterMemoryDriver(v *vfs, nodeIdx int, data []byte, remainder []string, drivers driverSet) (LoadStatus, error) {
	ext := extHint(l.components[len(l.components)-len(remainder)-1])
	for _, d := range drivers.mem {
		if !d.CanCreateFromData(data, ext) {
			continue
		}
		inst, err := d.CreateFromData(data, ext, l.driverData)
		if err != nil {
			return LoadStatus{}, err
		}
		v.nodes[nodeIdx].memDriver = inst
		return l.loadFromMemDriverPath(v, nodeIdx, inst, remainder, drivers)
	}
	return LoadStatus{}, ErrUnsupportedPath
}

// loadFromMemDriverPath asks the mounted MemoryDriver for the (possibly
// empty) remainder path, re-entering findDriverData if the result is itself
// interpretable as a nested archive (spec.md §4.3 step 5: "handling nested
// archives by re-entering FindDriverData").
func (l *loader) loadFromMemDriverPath(v *vfs, nodeIdx int, d MemoryDriver, remainder []string, drivers driverSet) (LoadStatus, error) {
	localPath := "/"
	if len(remainder) > 0 {
		localPath += strings.Join(remainder, "/")
	}
	status, err := d.Load(localPath, newProgress(0, 1, l.progressFunc))
	if err != nil {
		return LoadStatus{}, err
	}
	if status.Directory != nil || len(status.Data) == 0 {
		return status, nil
	}
	if nested, err := l.findDriverData(v, nodeIdx, status.Data, drivers); err == nil {
		return nested, nil
	}
	return status, nil
}

func (l *loader) remainderAfter(v *vfs, nodeIdx int) string {
	var parts []string
	for idx := nodeIdx; idx > 0; idx = v.nodes[idx].parent {
		parts = append([]string{v.nodes[idx].name}, parts...)
	}
	return "/" + strings.Join(parts, "/")
}

func extHint(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return ""
}
