package main

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Image formats extract can write.
const (
	formatPNG  = "png"
	formatBMP  = "bmp"
	formatTIFF = "tiff"
	formatJPEG = "jpeg"
)

var imageEncoders = map[string]func(io.Writer, image.Image) error{
	formatPNG:  png.Encode,
	formatBMP:  bmp.Encode,
	formatTIFF: func(w io.Writer, img image.Image) error { return tiff.Encode(w, img, nil) },
	formatJPEG: func(w io.Writer, img image.Image) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	},
}

var formatExtensions = map[string]string{
	formatPNG:  ".png",
	formatBMP:  ".bmp",
	formatTIFF: ".tiff",
	formatJPEG: ".jpg",
}

// readableExtensions lists the inputs encode accepts.
var readableExtensions = []string{".png", ".bmp", ".tif", ".tiff", ".jpg", ".jpeg", ".webp"}

func normalizeImageFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "jpg":
		format = formatJPEG
	case "tif":
		format = formatTIFF
	}
	if _, ok := imageEncoders[format]; !ok {
		return "", fmt.Errorf("unsupported image format %q (want png, bmp, tiff, or jpeg)", format)
	}
	return format, nil
}

func writeImageFile(path string, img image.Image, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(file)
	if err := imageEncoders[format](buf, img); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := buf.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func readImageFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// listImages returns the readable images in dir sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if slices.Contains(readableExtensions, ext) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	slices.Sort(paths)
	return paths, nil
}

// fitImage scales img to width x height when its size differs.
func fitImage(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
