// Package granule reads and writes the on-disk containers for RCCM products:
// the mask container holding nine categorical camera planes and the radiance
// sidecar holding the matching float32 planes. Both are flat little-endian
// formats written by the L1 formatter; there is no compression and no
// per-plane framing beyond a camera index byte, so a container's size is fixed
// by the standard grid shape.
package granule

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/stratomet-data/cloudmask.report/internal/radiance"
	"github.com/stratomet-data/cloudmask.report/internal/rccm"
)

// Container layout, shared by both product kinds:
//   bytes  0..3   magic ("RCM1" masks, "RAD1" radiance)
//   bytes  4..5   format version, little-endian
//   bytes  6..9   orbit number
//   bytes 10..11  block number
//   byte  12      camera plane count
//   bytes 13..14  samples per line
//   bytes 15..16  lines per plane
// followed by one plane per camera: a single camera index byte, then the
// plane payload (uint8 cells for masks, float32 values for radiance).
const (
	maskMagic = "RCM1"
	radMagic  = "RAD1"

	// FormatVersion is the container format revision, not the product
	// version embedded in file names.
	FormatVersion = 1

	headerSize = 17
)

// Granule is one orbit/block acquisition: the nine camera mask grids plus
// identity fields from the container header.
type Granule struct {
	Orbit uint32
	Block uint16
	Masks rccm.CameraStack
}

// New allocates an empty granule with a standard all-missing camera stack.
func New(orbit uint32, block uint16) *Granule {
	return &Granule{
		Orbit: orbit,
		Block: block,
		Masks: rccm.NewStandardStack(),
	}
}

// RadianceSet is the radiance sidecar for one orbit/block: one float32 plane
// per camera, aligned with the mask stack by index.
type RadianceSet struct {
	Orbit  uint32
	Block  uint16
	Planes []*radiance.Grid
}

// NewRadianceSet allocates a sidecar with all planes present and filled with
// the radiance fill sentinel.
func NewRadianceSet(orbit uint32, block uint16) *RadianceSet {
	rs := &RadianceSet{
		Orbit:  orbit,
		Block:  block,
		Planes: make([]*radiance.Grid, rccm.NumCameras),
	}
	for i, name := range rccm.CameraNames {
		rs.Planes[i] = radiance.NewGrid(name, rccm.GridSamples, rccm.GridLines)
	}
	return rs
}

func putHeader(buf []byte, magic string, orbit uint32, block uint16) {
	copy(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:6], FormatVersion)
	binary.LittleEndian.PutUint32(buf[6:10], orbit)
	binary.LittleEndian.PutUint16(buf[10:12], block)
	buf[12] = rccm.NumCameras
	binary.LittleEndian.PutUint16(buf[13:15], rccm.GridSamples)
	binary.LittleEndian.PutUint16(buf[15:17], rccm.GridLines)
}

func readHeader(r io.Reader, magic string) (orbit uint32, block uint16, err error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, 0, fmt.Errorf("header: %w", err)
	}
	if got := string(buf[0:4]); got != magic {
		return 0, 0, fmt.Errorf("bad magic %q, want %q", got, magic)
	}
	if v := binary.LittleEndian.Uint16(buf[4:6]); v != FormatVersion {
		return 0, 0, fmt.Errorf("unsupported format version %d", v)
	}
	orbit = binary.LittleEndian.Uint32(buf[6:10])
	block = binary.LittleEndian.Uint16(buf[10:12])
	if n := buf[12]; n != rccm.NumCameras {
		return 0, 0, fmt.Errorf("camera count %d, want %d", n, rccm.NumCameras)
	}
	samples := int(binary.LittleEndian.Uint16(buf[13:15]))
	lines := int(binary.LittleEndian.Uint16(buf[15:17]))
	if samples != rccm.GridSamples || lines != rccm.GridLines {
		return 0, 0, fmt.Errorf("plane shape %dx%d, want %dx%d",
			samples, lines, rccm.GridSamples, rccm.GridLines)
	}
	return orbit, block, nil
}

// Write serializes the granule. The mask stack must be a valid standard
// stack; the container never carries partial or nonstandard planes.
func (g *Granule) Write(w io.Writer) error {
	if err := rccm.ValidateStack(g.Masks); err != nil {
		return fmt.Errorf("write mask container: %w", err)
	}
	var hdr [headerSize]byte
	putHeader(hdr[:], maskMagic, g.Orbit, g.Block)
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write mask container header: %w", err)
	}
	for i, grid := range g.Masks {
		if _, err := w.Write([]byte{byte(i)}); err != nil {
			return fmt.Errorf("write camera %d index: %w", i, err)
		}
		if _, err := w.Write(grid.Cells); err != nil {
			return fmt.Errorf("write camera %d plane: %w", i, err)
		}
	}
	return nil
}

// ReadGranule parses a mask container and validates every plane, including
// the cell vocabulary. A container that parses is safe to hand straight to
// the reconstruction engine.
func ReadGranule(r io.Reader) (*Granule, error) {
	orbit, block, err := readHeader(r, maskMagic)
	if err != nil {
		return nil, fmt.Errorf("read mask container: %w", err)
	}
	g := &Granule{
		Orbit: orbit,
		Block: block,
		Masks: make(rccm.CameraStack, rccm.NumCameras),
	}
	var idx [1]byte
	for i := 0; i < rccm.NumCameras; i++ {
		if _, err := io.ReadFull(r, idx[:]); err != nil {
			return nil, fmt.Errorf("read mask container: camera %d index: %w", i, err)
		}
		if int(idx[0]) != i {
			return nil, fmt.Errorf("read mask container: plane %d labeled camera %d", i, idx[0])
		}
		grid := rccm.NewStandardGrid(rccm.CameraNames[i])
		if _, err := io.ReadFull(r, grid.Cells); err != nil {
			return nil, fmt.Errorf("read mask container: camera %s plane: %w",
				grid.Camera, err)
		}
		g.Masks[i] = grid
	}
	if err := rccm.ValidateStack(g.Masks); err != nil {
		return nil, fmt.Errorf("read mask container: %w", err)
	}
	return g, nil
}

// Write serializes the radiance sidecar. Every plane must be present and
// standard shape.
func (rs *RadianceSet) Write(w io.Writer) error {
	if len(rs.Planes) != rccm.NumCameras {
		return fmt.Errorf("write radiance container: %d planes, want %d",
			len(rs.Planes), rccm.NumCameras)
	}
	var hdr [headerSize]byte
	putHeader(hdr[:], radMagic, rs.Orbit, rs.Block)
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write radiance container header: %w", err)
	}
	plane := make([]byte, rccm.GridSamples*rccm.GridLines*4)
	for i, grid := range rs.Planes {
		if grid == nil {
			return fmt.Errorf("write radiance container: camera %d plane is nil", i)
		}
		if grid.Samples != rccm.GridSamples || grid.Lines != rccm.GridLines {
			return fmt.Errorf("write radiance container: camera %d shape %dx%d, want %dx%d",
				i, grid.Samples, grid.Lines, rccm.GridSamples, rccm.GridLines)
		}
		if _, err := w.Write([]byte{byte(i)}); err != nil {
			return fmt.Errorf("write camera %d index: %w", i, err)
		}
		for j, v := range grid.Values {
			binary.LittleEndian.PutUint32(plane[j*4:], math.Float32bits(v))
		}
		if _, err := w.Write(plane); err != nil {
			return fmt.Errorf("write camera %d radiance plane: %w", i, err)
		}
	}
	return nil
}

// ReadRadianceSet parses a radiance sidecar.
func ReadRadianceSet(r io.Reader) (*RadianceSet, error) {
	orbit, block, err := readHeader(r, radMagic)
	if err != nil {
		return nil, fmt.Errorf("read radiance container: %w", err)
	}
	rs := &RadianceSet{
		Orbit:  orbit,
		Block:  block,
		Planes: make([]*radiance.Grid, rccm.NumCameras),
	}
	var idx [1]byte
	plane := make([]byte, rccm.GridSamples*rccm.GridLines*4)
	for i := 0; i < rccm.NumCameras; i++ {
		if _, err := io.ReadFull(r, idx[:]); err != nil {
			return nil, fmt.Errorf("read radiance container: camera %d index: %w", i, err)
		}
		if int(idx[0]) != i {
			return nil, fmt.Errorf("read radiance container: plane %d labeled camera %d", i, idx[0])
		}
		if _, err := io.ReadFull(r, plane); err != nil {
			return nil, fmt.Errorf("read radiance container: camera %d plane: %w", i, err)
		}
		grid := radiance.NewGrid(rccm.CameraNames[i], rccm.GridSamples, rccm.GridLines)
		for j := range grid.Values {
			grid.Values[j] = math.Float32frombits(binary.LittleEndian.Uint32(plane[j*4:]))
		}
		rs.Planes[i] = grid
	}
	return rs, nil
}
