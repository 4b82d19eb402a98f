package services

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"unicode"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	AvatarDefaultSize = 256
	AvatarMaxSize     = 512
	avatarBaseSize    = 32
)

var avatarPalette = []color.RGBA{
	{R: 0x2F, G: 0x6F, B: 0xED, A: 0xFF},
	{R: 0xD9, G: 0x48, B: 0x4A, A: 0xFF},
	{R: 0x2E, G: 0x9E, B: 0x5B, A: 0xFF},
	{R: 0xB4, G: 0x5F, B: 0xC9, A: 0xFF},
	{R: 0xE0, G: 0x8A, B: 0x2E, A: 0xFF},
	{R: 0x1F, G: 0x8A, B: 0x99, A: 0xFF},
}

// RenderAvatarPNG produces a deterministic initials avatar for a seed
// (normally the user's full name). The same seed always yields the same
// image, so responses are safely cacheable forever.
func RenderAvatarPNG(seed string, size int) ([]byte, error) {
	if size <= 0 {
		size = AvatarDefaultSize
	}
	if size > AvatarMaxSize {
		size = AvatarMaxSize
	}

	sum := sha256.Sum256([]byte(seed))
	bg := avatarPalette[int(sum[0])%len(avatarPalette)]

	base := image.NewRGBA(image.Rect(0, 0, avatarBaseSize, avatarBaseSize))
	xdraw.Draw(base, base.Bounds(), image.NewUniform(bg), image.Point{}, xdraw.Src)

	initials := avatarInitials(seed)
	face := basicfont.Face7x13
	width := font.MeasureString(face, initials).Ceil()
	drawer := &font.Drawer{
		Dst:  base,
		Src:  image.White,
		Face: face,
		Dot: fixed.P(
			(avatarBaseSize-width)/2,
			(avatarBaseSize+face.Metrics().Ascent.Ceil()-face.Metrics().Descent.Ceil())/2,
		),
	}
	drawer.DrawString(initials)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), base, base.Bounds(), xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encoding avatar png: %w", err)
	}
	return buf.Bytes(), nil
}

func avatarInitials(seed string) string {
	var initials []rune
	for _, word := range strings.Fields(seed) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsNumber(r) {
				initials = append(initials, unicode.ToUpper(r))
			}
			break
		}
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "?"
	}
	return string(initials)
}
