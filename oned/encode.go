package oned

import (
	grayscan "github.com/emarkov/grayscan"
)

// appendPattern writes alternating module groups into target starting
// at pos, beginning with startColor (true = bar). It returns the number
// of modules written.
func appendPattern(target []bool, pos int, pattern []int, startColor bool) int {
	color := startColor
	numAdded := 0
	for _, n := range pattern {
		for j := 0; j < n; j++ {
			target[pos] = color
			pos++
		}
		numAdded += n
		color = !color
	}
	return numAdded
}

// RenderRow rasterizes a module pattern into one row of grayscale
// pixels. Each module becomes unit pixels (bar = 0x00, space = 0xFF)
// with quiet modules of white on both sides.
func RenderRow(modules []bool, unit, quiet int) []byte {
	if unit < 1 {
		unit = 1
	}
	if quiet < 0 {
		quiet = 0
	}
	row := make([]byte, (quiet*2+len(modules))*unit)
	for i := range row {
		row[i] = 0xFF
	}
	x := quiet * unit
	for _, bar := range modules {
		if bar {
			for j := 0; j < unit; j++ {
				row[x+j] = 0x00
			}
		}
		x += unit
	}
	return row
}

// RenderImage stacks height copies of a rendered row into a grayscale
// image, the usual shape of a synthetic test barcode.
func RenderImage(modules []bool, unit, quiet, height int) grayscan.GrayImage {
	row := RenderRow(modules, unit, quiet)
	if height < 1 {
		height = 1
	}
	pix := make([]byte, len(row)*height)
	for y := 0; y < height; y++ {
		copy(pix[y*len(row):], row)
	}
	return grayscan.GrayImage{Pix: pix, Width: len(row), Height: height}
}
