package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/obb-annotate-mcp/internal/geometry"
)

// ImageCache provides thread-safe caching of loaded images to avoid redundant disk reads.
//
// The cache stores decoded image.Image objects keyed by their file path. Once an image
// is loaded, subsequent Load() calls for the same path return the cached copy without
// disk I/O.
//
// Images are decoded with EXIF orientation applied, so the pixel grid matches what an
// operator sees and what the label coordinates refer to.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
// The annotation workspace evicts the previous image when it advances, so the cache
// normally holds one or two images.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/data/train/0001.jpg")
//	if err != nil {
//	    return err
//	}
//	frame := imaging.FrameOf(img)
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a decodable image
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// FrameOf returns the pixel size of img as a geometry.Frame.
func FrameOf(img image.Image) geometry.Frame {
	b := img.Bounds()
	return geometry.Frame{Width: b.Dx(), Height: b.Dy()}
}

// ImageInfo describes the image currently under annotation.
type ImageInfo struct {
	// Path is the image file path as given to the cache.
	Path string `json:"path"`

	// Width is the image width in pixels, after EXIF orientation.
	Width int `json:"width"`

	// Height is the image height in pixels, after EXIF orientation.
	Height int `json:"height"`

	// Format is derived from the file extension: "png", "jpeg", "gif", "bmp",
	// "tiff", "webp", or "unknown".
	Format string `json:"format"`
}

// LoadImageInfo loads an image through cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	frame := FrameOf(img)
	return &ImageInfo{
		Path:   path,
		Width:  frame.Width,
		Height: frame.Height,
		Format: formatOf(path),
	}, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	case ".webp":
		return "webp"
	default:
		return "unknown"
	}
}
