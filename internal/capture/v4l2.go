package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	vidiocQueryCap     = 0x80685600 // _IOR('V', 0, struct v4l2_capability)
	capVideoCapture    = 0x00000001
	capDeviceCaps      = 0x80000000
	defaultVideoDevice = "/dev/video0"
)

// v4l2Capability mirrors struct v4l2_capability from linux/videodev2.h.
type v4l2Capability struct {
	Driver       [16]byte
	Card         [32]byte
	BusInfo      [32]byte
	Version      uint32
	Capabilities uint32
	DeviceCaps   uint32
	Reserved     [3]uint32
}

// VideoDevice describes one V4L2 node.
type VideoDevice struct {
	Path    string
	Card    string
	Driver  string
	Capture bool
}

// V4L2Camera opens a video4linux capture node.
type V4L2Camera struct {
	// Device is a path such as /dev/video0, or "auto" for the first capture-capable node.
	Device string
}

// Open verifies the device supports video capture and holds it open.
func (c V4L2Camera) Open(ctx context.Context) (VideoStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimSpace(c.Device)
	if path == "" {
		path = defaultVideoDevice
	}
	if path == "auto" {
		devices, err := ListVideoDevices()
		if err != nil {
			return nil, err
		}
		path = ""
		for _, dev := range devices {
			if dev.Capture {
				path = dev.Path
				break
			}
		}
		if path == "" {
			return nil, errors.New("no video capture device found")
		}
	}

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := queryCapabilities(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("query %s: %w", path, err)
	}
	if !info.Capture {
		_ = file.Close()
		return nil, fmt.Errorf("%s (%s) does not support video capture", path, info.Card)
	}
	info.Path = path

	return &v4l2Stream{file: file, info: info}, nil
}

type v4l2Stream struct {
	file *os.File
	info VideoDevice
}

func (s *v4l2Stream) Device() string {
	if s.info.Card == "" {
		return s.info.Path
	}
	return fmt.Sprintf("%s (%s)", s.info.Card, s.info.Path)
}

func (s *v4l2Stream) Path() string { return s.info.Path }

func (s *v4l2Stream) Close() error { return s.file.Close() }

// ListVideoDevices probes every /dev/video* node.
func ListVideoDevices() ([]VideoDevice, error) {
	paths, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	devices := make([]VideoDevice, 0, len(paths))
	for _, path := range paths {
		file, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			continue
		}
		info, err := queryCapabilities(file)
		_ = file.Close()
		if err != nil {
			continue
		}
		info.Path = path
		devices = append(devices, info)
	}
	return devices, nil
}

func queryCapabilities(file *os.File) (VideoDevice, error) {
	var raw v4l2Capability
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), uintptr(vidiocQueryCap), uintptr(unsafe.Pointer(&raw)))
	if errno != 0 {
		return VideoDevice{}, fmt.Errorf("VIDIOC_QUERYCAP: %w", errno)
	}

	caps := raw.Capabilities
	if caps&capDeviceCaps != 0 {
		caps = raw.DeviceCaps
	}
	return VideoDevice{
		Card:    cString(raw.Card[:]),
		Driver:  cString(raw.Driver[:]),
		Capture: caps&capVideoCapture != 0,
	}, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
