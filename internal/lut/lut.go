// Package lut parses 3D color lookup tables in the formats community
// presets reference: .cube, .3dl, and square HALD images.
package lut

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// LUT is a parsed 3D lookup table with Size^3 RGB entries.
type LUT struct {
	Size int
	Data []float32
}

// Parse reads a LUT file, dispatching on the file extension.
func Parse(path string) (*LUT, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	switch ext {
	case "cube":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParseCube(f)
	case "3dl":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return Parse3DL(f)
	case "png", "jpg", "jpeg", "tiff":
		img, err := imaging.Open(path)
		if err != nil {
			return nil, err
		}
		return ParseHALD(img)
	default:
		return nil, fmt.Errorf("unsupported LUT file format: %q", ext)
	}
}

// ParseCube parses the Adobe .cube text format. Only LUT_3D_SIZE and the
// data rows are honored; TITLE and comments are skipped.
func ParseCube(r io.Reader) (*LUT, error) {
	var size int
	var data []float32

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		parts := strings.Fields(trimmed)
		switch strings.ToUpper(parts[0]) {
		case "TITLE", "DOMAIN_MIN", "DOMAIN_MAX":
			continue
		case "LUT_3D_SIZE":
			if len(parts) > 1 {
				parsed, err := strconv.Atoi(parts[1])
				if err != nil {
					return nil, fmt.Errorf("invalid LUT_3D_SIZE: %w", err)
				}
				size = parsed
			}
		default:
			if size == 0 {
				continue
			}
			rgb, err := parseTriplet(parts)
			if err != nil {
				return nil, err
			}
			data = append(data, rgb...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if size == 0 {
		return nil, fmt.Errorf("LUT_3D_SIZE not found in .cube file")
	}
	expected := size * size * size * 3
	if len(data) != expected {
		return nil, fmt.Errorf("LUT data size mismatch: expected %d values, found %d", expected, len(data))
	}

	return &LUT{Size: size, Data: data}, nil
}

// Parse3DL parses the .3dl format. The size is inferred from the number of
// data rows, which must be a perfect cube.
func Parse3DL(r io.Reader) (*LUT, error) {
	var data []float32

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		parts := strings.Fields(trimmed)
		if len(parts) != 3 {
			continue
		}
		rgb, err := parseTriplet(parts)
		if err != nil {
			return nil, err
		}
		data = append(data, rgb...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("no data found in 3DL file")
	}

	entries := len(data) / 3
	size := int(math.Round(math.Cbrt(float64(entries))))
	if size*size*size != entries {
		return nil, fmt.Errorf("invalid 3DL LUT data size: %d entries is not a perfect cube", entries)
	}

	return &LUT{Size: size, Data: data}, nil
}

// ParseHALD converts a square HALD identity image into a LUT. The pixel
// count must be a perfect cube.
func ParseHALD(img image.Image) (*LUT, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width != height {
		return nil, fmt.Errorf("HALD image must be square, got %dx%d", width, height)
	}

	totalPixels := width * height
	size := int(math.Round(math.Cbrt(float64(totalPixels))))
	if size*size*size != totalPixels {
		return nil, fmt.Errorf("invalid HALD image dimensions: %d pixels is not a perfect cube", totalPixels)
	}

	nrgba := imaging.Clone(img)
	data := make([]float32, 0, totalPixels*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			base := nrgba.PixOffset(x, y)
			data = append(data,
				float32(nrgba.Pix[base])/255.0,
				float32(nrgba.Pix[base+1])/255.0,
				float32(nrgba.Pix[base+2])/255.0,
			)
		}
	}

	return &LUT{Size: size, Data: data}, nil
}

func parseTriplet(parts []string) ([]float32, error) {
	if len(parts) < 3 {
		return nil, fmt.Errorf("expected 3 values per LUT row, got %d", len(parts))
	}

	rgb := make([]float32, 3)
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return nil, fmt.Errorf("invalid LUT value %q: %w", parts[i], err)
		}
		rgb[i] = float32(v)
	}
	return rgb, nil
}
