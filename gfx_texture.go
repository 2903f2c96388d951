// gfx_texture.go - texture atlas blit helper for the graphics collaborator

/*
gfx_texture.go - Texture Atlas Blit

The ASIC stays rasteriser-free (gfx_asic.go, section 1/9): it hands a
front-end collaborator raw texture bytes out of the VRAM texture-input
window and a DisplayListPacket's UV coordinates, nothing more. Sampling
those bytes into a fixed-size atlas tile for display is collaborator-
side work the spec explicitly allows (section 9); this file does it
with golang.org/x/image/draw's nearest-neighbour scaler rather than a
hand-rolled resampler, since the retrieved pack already depends on
x/image and texture/palette blits are exactly draw.Scaler's job.
*/

package main

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// TextureFormat selects how raw VRAM texture bytes are unpacked into
// RGBA (section 6's texture-control-word format field covers more
// encodings than are worth modelling here; these are the ones a
// collaborator needs to preview a texture atlas).
type TextureFormat int

const (
	TextureFormatRGB565 TextureFormat = iota
	TextureFormatARGB4444
	TextureFormatARGB1555
)

// DecodeTexel unpacks raw into an *image.NRGBA of width x height texels,
// reading two bytes per texel in the order the texture-accumulator input
// window stores them (little-endian, row-major).
func DecodeTexel(raw []byte, width, height int, format TextureFormat) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	need := width * height * 2
	if len(raw) < need {
		return img
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := (y*width + x) * 2
			word := uint16(raw[off]) | uint16(raw[off+1])<<8
			img.SetNRGBA(x, y, unpackTexel(word, format))
		}
	}
	return img
}

func unpackTexel(word uint16, format TextureFormat) color.NRGBA {
	switch format {
	case TextureFormatRGB565:
		r := uint8((word>>11)&0x1f) << 3
		g := uint8((word>>5)&0x3f) << 2
		b := uint8(word&0x1f) << 3
		return color.NRGBA{R: r, G: g, B: b, A: 0xff}
	case TextureFormatARGB4444:
		a := uint8((word>>12)&0xf) * 0x11
		r := uint8((word>>8)&0xf) * 0x11
		g := uint8((word>>4)&0xf) * 0x11
		b := uint8(word&0xf) * 0x11
		return color.NRGBA{R: r, G: g, B: b, A: a}
	case TextureFormatARGB1555:
		a := uint8(0)
		if word&0x8000 != 0 {
			a = 0xff
		}
		r := uint8((word>>10)&0x1f) << 3
		g := uint8((word>>5)&0x1f) << 3
		b := uint8(word&0x1f) << 3
		return color.NRGBA{R: r, G: g, B: b, A: a}
	default:
		return color.NRGBA{}
	}
}

// ScaleToAtlasTile resizes src into a fixed tileSize x tileSize tile
// using nearest-neighbour scaling, matching the blocky upscale a period-
// accurate texture atlas preview wants rather than a smoothed resample.
func ScaleToAtlasTile(src *image.NRGBA, tileSize int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, tileSize, tileSize))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
