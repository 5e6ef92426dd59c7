package imaging

import (
	"image"
	"math"

	"github.com/nfnt/resize"
)

// CropRect returns the centered region of a srcW x srcH image that has the
// aspect ratio of width x height. Scaling that region to width x height
// covers the frame without letterboxing.
func CropRect(srcW, srcH, width, height int) image.Rectangle {
	target := float64(width) / float64(height)
	source := float64(srcW) / float64(srcH)

	cropW, cropH := srcW, srcH
	if source > target {
		cropW = int(math.Round(float64(srcH) * target))
	} else if source < target {
		cropH = int(math.Round(float64(srcW) / target))
	}
	cropW = max(1, min(cropW, srcW))
	cropH = max(1, min(cropH, srcH))

	x0 := (srcW - cropW) / 2
	y0 := (srcH - cropH) / 2
	return image.Rect(x0, y0, x0+cropW, y0+cropH)
}

// Cover scales img to cover width x height and crops the overflow evenly
// from both sides. Resampling uses Lanczos3.
func Cover(img image.Image, width, height int) image.Image {
	src := toRGBA(img)
	crop := CropRect(src.Rect.Dx(), src.Rect.Dy(), width, height)
	region := toRGBA(src.SubImage(crop))

	if crop.Dx() == width && crop.Dy() == height {
		return region
	}
	return resize.Resize(uint(width), uint(height), region, resize.Lanczos3)
}
