package renderer

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
)

// WritePPM writes img as a plain-text (P3) PPM: a "P3" line, "<width> <height>",
// "255", then one "R G B" line per pixel from the top row down, left to right.
func WritePPM(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", bounds.Dx(), bounds.Dy()); err != nil {
		return fmt.Errorf("writing ppm header: %w", err)
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if _, err := fmt.Fprintf(bw, "%d %d %d\n", c.R, c.G, c.B); err != nil {
				return fmt.Errorf("writing ppm pixel (%d,%d): %w", x, y, err)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing ppm: %w", err)
	}
	return nil
}

// WritePNG writes img as PNG
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}
