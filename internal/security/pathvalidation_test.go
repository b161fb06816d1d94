package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	safeDir := filepath.Join(tmpDir, "safe")
	if err := os.MkdirAll(filepath.Join(safeDir, "sub"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cases := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"inside", filepath.Join(safeDir, "plot.png"), false},
		{"nested", filepath.Join(safeDir, "sub", "plot.png"), false},
		{"the directory itself", safeDir, false},
		{"dotdot escape", filepath.Join(safeDir, "..", "outside.png"), true},
		{"sibling", filepath.Join(tmpDir, "outside.png"), true},
		{"absolute elsewhere", "/etc/passwd", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tc.path, safeDir)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantErr %v", tc.path, err, tc.wantErr)
			}
		})
	}
}

func TestValidatePathWithinDirectorySymlinkEscape(t *testing.T) {
	tmpDir := t.TempDir()
	safeDir := filepath.Join(tmpDir, "safe")
	outsideDir := filepath.Join(tmpDir, "outside")
	for _, d := range []string{safeDir, outsideDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	// A symlink inside the safe directory pointing out of it must not grant
	// access to the target, even for files that do not exist yet.
	link := filepath.Join(safeDir, "escape")
	if err := os.Symlink(outsideDir, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := ValidatePathWithinDirectory(filepath.Join(link, "new.png"), safeDir); err == nil {
		t.Error("symlinked path escaping the safe directory was accepted")
	}
}

func TestValidatePathWithinAllowedDirs(t *testing.T) {
	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "a")
	b := filepath.Join(tmpDir, "b")
	for _, d := range []string{a, b} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	if err := ValidatePathWithinAllowedDirs(filepath.Join(b, "x.png"), []string{a, b}); err != nil {
		t.Errorf("path in second allowed dir rejected: %v", err)
	}
	if err := ValidatePathWithinAllowedDirs(filepath.Join(tmpDir, "x.png"), []string{a, b}); err == nil {
		t.Error("path outside both allowed dirs accepted")
	}
	if err := ValidatePathWithinAllowedDirs("x.png", nil); err == nil {
		t.Error("empty allow list accepted")
	}
}

func TestValidateWritePath(t *testing.T) {
	if err := ValidateWritePath(filepath.Join(os.TempDir(), "plots", "out.png")); err != nil {
		t.Errorf("temp-dir path rejected: %v", err)
	}

	extra := t.TempDir()
	if err := ValidateWritePath(filepath.Join(extra, "out.png"), extra); err != nil {
		t.Errorf("path in extra trusted dir rejected: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"CLDMSK_O043122_B057_v2.msk", "CLDMSK_O043122_B057_v2.msk"},
		{"", "unknown"},
		{"../../etc/passwd", "etc_passwd"},
		{"name with spaces", "name_with_spaces"},
		{"weird!!chars##here", "weird_chars_here"},
		{"___...", "unknown"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFilenameLength(t *testing.T) {
	long := strings.Repeat("a", 500)
	if got := SanitizeFilename(long); len(got) > 128 {
		t.Errorf("sanitized name is %d bytes, want <= 128", len(got))
	}
}
