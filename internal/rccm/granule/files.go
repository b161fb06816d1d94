package granule

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Product file names follow the archive convention
// CLDMSK_O<orbit>_B<block>_v<version>.<ext>, with orbit zero-padded to six
// digits and block to three. Reconstructed output carries a _restored suffix
// before the extension so a directory can hold both generations side by side.
const (
	MaskExt     = ".msk"
	RadianceExt = ".rad"

	restoredSuffix = "_restored"
)

var productNameRe = regexp.MustCompile(
	`^CLDMSK_O(\d{6})_B(\d{3})_v(\d+)(_restored)?\.(msk|rad)$`)

// ProductInfo is the identity parsed out of a product file name.
type ProductInfo struct {
	Orbit    uint32
	Block    uint16
	Version  int
	Restored bool
	Kind     string // "mask" or "radiance"
}

// MaskFileName returns the archive file name for a mask container.
func MaskFileName(orbit uint32, block uint16, version int) string {
	return fmt.Sprintf("CLDMSK_O%06d_B%03d_v%d%s", orbit, block, version, MaskExt)
}

// RadianceFileName returns the archive file name for a radiance sidecar.
func RadianceFileName(orbit uint32, block uint16, version int) string {
	return fmt.Sprintf("CLDMSK_O%06d_B%03d_v%d%s", orbit, block, version, RadianceExt)
}

// RestoredFileName derives the output name for a reconstructed mask from its
// input path, preserving the directory.
func RestoredFileName(maskPath string) string {
	dir := filepath.Dir(maskPath)
	base := filepath.Base(maskPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+restoredSuffix+ext)
}

// SidecarPath returns the expected radiance sidecar path next to a mask file.
func SidecarPath(maskPath string) string {
	return strings.TrimSuffix(maskPath, filepath.Ext(maskPath)) + RadianceExt
}

// ParseProductName extracts identity fields from a product file name (not a
// path). Unknown names return an error; directory scans use this to skip
// foreign files.
func ParseProductName(name string) (ProductInfo, error) {
	m := productNameRe.FindStringSubmatch(name)
	if m == nil {
		return ProductInfo{}, fmt.Errorf("not a product file name: %q", name)
	}
	orbit, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return ProductInfo{}, fmt.Errorf("bad orbit in %q: %w", name, err)
	}
	block, err := strconv.ParseUint(m[2], 10, 16)
	if err != nil {
		return ProductInfo{}, fmt.Errorf("bad block in %q: %w", name, err)
	}
	version, err := strconv.Atoi(m[3])
	if err != nil {
		return ProductInfo{}, fmt.Errorf("bad version in %q: %w", name, err)
	}
	info := ProductInfo{
		Orbit:    uint32(orbit),
		Block:    uint16(block),
		Version:  version,
		Restored: m[4] != "",
		Kind:     "mask",
	}
	if m[5] == "rad" {
		info.Kind = "radiance"
	}
	return info, nil
}

// Load reads a mask container from disk.
func Load(path string) (*Granule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load granule: %w", err)
	}
	defer f.Close()
	g, err := ReadGranule(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("load granule %s: %w", path, err)
	}
	return g, nil
}

// Save writes a mask container to disk, creating or truncating path.
func (g *Granule) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save granule: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := g.Write(w); err != nil {
		f.Close()
		return fmt.Errorf("save granule %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("save granule %s: %w", path, err)
	}
	return f.Close()
}

// LoadRadianceSet reads a radiance sidecar from disk.
func LoadRadianceSet(path string) (*RadianceSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load radiance sidecar: %w", err)
	}
	defer f.Close()
	rs, err := ReadRadianceSet(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("load radiance sidecar %s: %w", path, err)
	}
	return rs, nil
}

// Save writes a radiance sidecar to disk.
func (rs *RadianceSet) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save radiance sidecar: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := rs.Write(w); err != nil {
		f.Close()
		return fmt.Errorf("save radiance sidecar %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("save radiance sidecar %s: %w", path, err)
	}
	return f.Close()
}

// ScanDir lists the mask containers in a directory that do not yet have a
// restored counterpart, in name order. The daemon's batch loop feeds on this.
func ScanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	var pending []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := ParseProductName(e.Name())
		if err != nil || info.Kind != "mask" || info.Restored {
			continue
		}
		full := filepath.Join(dir, e.Name())
		if _, err := os.Stat(RestoredFileName(full)); err == nil {
			continue
		}
		pending = append(pending, full)
	}
	return pending, nil
}
