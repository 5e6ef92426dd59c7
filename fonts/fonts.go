// Package fonts discovers the font files installed on the system.
package fonts

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// Font is a font file found on disk. Name is the file name without its
// extension, which is what users pass to --font.
type Font struct {
	Name string
	Path string
	Ext  string
}

var typeNames = map[string]string{
	".ttf":   "TrueType",
	".otf":   "OpenType",
	".woff":  "Web Font",
	".woff2": "Web Font 2",
	".eot":   "Embedded OpenType",
	".pfb":   "PostScript",
	".pfm":   "PostScript",
	".ttc":   "TrueType Collection",
}

// IsFontExt reports whether ext (with dot, any case) is a font file.
func IsFontExt(ext string) bool {
	_, ok := typeNames[strings.ToLower(ext)]
	return ok
}

// Type returns a human-readable font format.
func (f Font) Type() string {
	if t, ok := typeNames[f.Ext]; ok {
		return t
	}
	return "Unknown"
}

// SystemDirs returns the existing font directories for the current OS.
func SystemDirs() []string {
	home, _ := os.UserHomeDir()
	inHome := func(parts ...string) string {
		if home == "" {
			return ""
		}
		return filepath.Join(append([]string{home}, parts...)...)
	}

	var dirs []string
	switch runtime.GOOS {
	case "windows":
		dirs = []string{
			`C:\Windows\Fonts`,
			inHome("AppData", "Local", "Microsoft", "Windows", "Fonts"),
		}
	case "darwin":
		dirs = []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
			inHome("Library", "Fonts"),
		}
	default:
		dirs = []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
			inHome(".fonts"),
			inHome(".local", "share", "fonts"),
			// NixOS
			"/run/current-system/sw/share/fonts",
			"/nix/var/nix/profiles/system/sw/share/fonts",
			// Flatpak
			inHome(".local", "share", "flatpak", "exports", "share", "fonts"),
		}
	}

	existing := dirs[:0]
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			existing = append(existing, d)
		}
	}
	return existing
}

// Discover walks dirs recursively. Unreadable directories are skipped.
// Fonts are de-duplicated by name, the first directory winning, and sorted
// case-insensitively.
func Discover(dirs ...string) []Font {
	var found []Font
	seen := make(map[string]bool)

	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(d.Name()))
			if !IsFontExt(ext) {
				return nil
			}

			name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
			if seen[name] {
				return nil
			}
			seen[name] = true
			found = append(found, Font{Name: name, Path: path, Ext: ext})
			return nil
		})
	}

	slices.SortStableFunc(found, func(a, b Font) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return found
}

// System discovers the fonts in SystemDirs.
func System() []Font {
	return Discover(SystemDirs()...)
}

// FindByName returns the font whose name matches case-insensitively.
func FindByName(fonts []Font, name string) (Font, bool) {
	name = strings.TrimSpace(name)
	for _, f := range fonts {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Font{}, false
}

// Suggestions returns up to limit font names containing partial.
func Suggestions(fonts []Font, partial string, limit int) []string {
	partial = strings.ToLower(strings.TrimSpace(partial))

	var out []string
	for _, f := range fonts {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(f.Name), partial) {
			out = append(out, f.Name)
		}
	}
	return out
}
