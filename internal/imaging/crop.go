package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/obb-annotate-mcp/internal/geometry"
)

// CropResult contains the cropped image data
type CropResult struct {
	Encoded
	// Rotation is the counter-clockwise rotation in degrees applied before cropping.
	Rotation float64 `json:"rotation"`
}

// CropOriented cuts an oriented rectangle out of img, rotated upright, and encodes it.
//
// rect is in pixel coordinates of img. scale resizes the result with Lanczos
// resampling when it is positive and not 1. format is passed to Encode.
func CropOriented(img image.Image, rect geometry.Rectangle, scale float64, format string) (*CropResult, error) {
	region, rotation, err := OrientedRegion(img, rect)
	if err != nil {
		return nil, err
	}

	enc, err := Encode(rescale(region, scale), format, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}
	return &CropResult{Encoded: *enc, Rotation: rotation}, nil
}

// OrientedRegion returns the upright pixels inside rect and the rotation applied.
//
// The image is rotated around the rectangle's center by the smaller of the two
// rotations that make the width edge horizontal, so text inside a box stays upright
// when the box angle is above 90.
//
// # Errors
//
//   - Returns error if rect is smaller than one pixel in either dimension
//   - Returns error if rect does not overlap the image
func OrientedRegion(img image.Image, rect geometry.Rectangle) (image.Image, float64, error) {
	if rect.Width < 1 || rect.Height < 1 {
		return nil, 0, fmt.Errorf("oriented region %.1fx%.1f is too small to crop", rect.Width, rect.Height)
	}

	bounds := img.Bounds()
	cx := rect.Center.X - float64(bounds.Min.X)
	cy := rect.Center.Y - float64(bounds.Min.Y)

	rotation := rect.Angle
	if rotation > 90 {
		rotation -= 180
	}

	var src image.Image = img
	if rotation != 0 {
		pivot := image.Pt(int(math.Round(cx)), int(math.Round(cy)))
		// bild rotates clockwise for positive angles and returns a 0-based image.
		src = transform.Rotate(img, -rotation, &transform.RotationOptions{Pivot: &pivot})
	} else {
		src = imaging.Clone(img)
	}

	r := image.Rect(
		int(math.Round(cx-rect.Width/2)),
		int(math.Round(cy-rect.Height/2)),
		int(math.Round(cx+rect.Width/2)),
		int(math.Round(cy+rect.Height/2)),
	).Intersect(src.Bounds())
	if r.Empty() {
		return nil, 0, fmt.Errorf("oriented region centered at (%.1f,%.1f) lies outside the image", rect.Center.X, rect.Center.Y)
	}

	return imaging.Crop(src, r), rotation, nil
}

func rescale(img image.Image, scale float64) image.Image {
	if scale == 1.0 || scale <= 0 {
		return img
	}
	newWidth := int(float64(img.Bounds().Dx()) * scale)
	newHeight := int(float64(img.Bounds().Dy()) * scale)
	if newWidth < 1 || newHeight < 1 {
		return img
	}
	return imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
}
