// Package discovery finds the media files a slideshow is built from.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"sly/internal/logging"
	"sly/models"
)

// Order selects how discovered items are arranged.
type Order string

const (
	OrderName   Order = "name"
	OrderDate   Order = "date"
	OrderRandom Order = "random"
)

var imageExts = []string{".jpg", ".jpeg", ".jpg_", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

var videoExts = []string{".mp4", ".mov", ".m4v", ".avi", ".mkv", ".webm", ".wmv", ".flv", ".mpg", ".mpeg", ".3gp"}

// IsImageExt reports whether ext (with dot, any case) is a supported image.
func IsImageExt(ext string) bool {
	return slices.Contains(imageExts, strings.ToLower(ext))
}

// IsVideoExt reports whether ext (with dot, any case) is a supported video.
func IsVideoExt(ext string) bool {
	return slices.Contains(videoExts, strings.ToLower(ext))
}

// Options controls a scan.
type Options struct {
	ImagesOnly bool
	Order      Order
	// Seed makes OrderRandom reproducible. Zero reseeds on every run.
	Seed int64
}

// Discover scans dir (not recursively) and returns the matching files in
// the requested order. Subdirectories and unsupported files are skipped
// without comment; symlinks are followed.
//
// Only file metadata is read here. Whether an item can actually be decoded
// is decided later by the composer.
func Discover(dir string, opts Options) ([]*models.MediaItem, error) {
	log := logging.WithComponent("discovery")

	info, err := os.Stat(dir)
	if err != nil {
		reason := "directory is not accessible"
		if errors.Is(err, fs.ErrNotExist) {
			reason = "directory does not exist"
		}
		return nil, &models.DiscoveryError{Path: dir, Reason: reason, Err: err}
	}
	if !info.IsDir() {
		return nil, &models.DiscoveryError{Path: dir, Reason: "not a directory"}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &models.DiscoveryError{Path: dir, Reason: "directory is not readable", Err: err}
	}

	items := make([]*models.MediaItem, 0, len(entries))
	for _, entry := range entries {
		kind, ok := classify(entry.Name(), opts.ImagesOnly)
		if !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		fi, err := statEntry(path, entry)
		if err != nil {
			log.Debug().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable entry")
			continue
		}
		if !fi.Mode().IsRegular() {
			continue
		}

		item, err := models.NewMediaItem(path, kind, fi.ModTime())
		if err != nil {
			return nil, &models.DiscoveryError{Path: dir, Reason: "cannot resolve path", Err: err}
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, &models.DiscoveryError{Path: dir, Reason: "no matching media files"}
	}

	if err := Sort(items, opts.Order, opts.Seed); err != nil {
		return nil, err
	}

	log.Debug().
		Int("items", len(items)).
		Str("order", string(opts.Order)).
		Bool("images_only", opts.ImagesOnly).
		Msg("Discovered media")

	return items, nil
}

func classify(name string, imagesOnly bool) (models.MediaKind, bool) {
	ext := filepath.Ext(name)
	switch {
	case IsImageExt(ext):
		return models.KindImage, true
	case !imagesOnly && IsVideoExt(ext):
		return models.KindVideo, true
	default:
		return "", false
	}
}

// statEntry resolves symlinks; other entries reuse the directory listing.
func statEntry(path string, entry fs.DirEntry) (fs.FileInfo, error) {
	if entry.Type()&fs.ModeSymlink != 0 {
		return os.Stat(path)
	}
	return entry.Info()
}

// Sort arranges items in place.
func Sort(items []*models.MediaItem, order Order, seed int64) error {
	byName := func(a, b *models.MediaItem) int {
		return strings.Compare(a.Name(), b.Name())
	}

	switch order {
	case OrderName, "":
		slices.SortStableFunc(items, byName)
	case OrderDate:
		slices.SortStableFunc(items, func(a, b *models.MediaItem) int {
			if c := a.ModTime.Compare(b.ModTime); c != 0 {
				return c
			}
			return byName(a, b)
		})
	case OrderRandom:
		// Start from a fixed order so a seed always yields the same permutation.
		slices.SortStableFunc(items, byName)
		rng := newRand(seed)
		rng.Shuffle(len(items), func(i, j int) {
			items[i], items[j] = items[j], items[i]
		})
	default:
		return &models.ConfigError{Err: fmt.Errorf("unknown image order %q", order)}
	}
	return nil
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}
