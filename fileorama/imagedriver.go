package fileorama

import (
	"strings"

	"github.com/flowi-go/flowi/decode"
)

// ImageDriver is the built-in image MemoryDriver (§6): it decodes PNG,
// JPEG, or SVG bytes and applies the rescale mode given as driverData,
// handing the rasterizer a ready-to-sample decode.Image instead of raw
// bytes.
type ImageDriver struct {
	decoded *decode.Image
}

func (d *ImageDriver) Name() string { return "image" }

func (d *ImageDriver) CreateInstance() MemoryDriver { return &ImageDriver{} }

func (d *ImageDriver) CanCreateFromData(data []byte, fileExtHint string) bool {
	switch {
	case len(data) >= 8 && data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G':
		return true
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return true
	case strings.EqualFold(fileExtHint, "svg"):
		return true
	default:
		return false
	}
}

func (d *ImageDriver) CreateFromData(data []byte, fileExtHint string, driverData any) (MemoryDriver, error) {
	req, _ := driverData.(decode.RescaleRequest)
	img, err := decode.DecodeAndRescale(data, fileExtHint, req)
	if err != nil {
		return nil, errGeneric(err.Error())
	}
	return &ImageDriver{decoded: img}, nil
}

func (d *ImageDriver) Load(localPath string, progress *Progress) (LoadStatus, error) {
	progress.SetStepCount(1)
	progress.Step()
	return LoadStatus{Image: d.decoded}, nil
}

func (d *ImageDriver) GetDirectoryList(localPath string) (FilesDirs, error) {
	return FilesDirs{}, ErrUnsupportedPath
}
