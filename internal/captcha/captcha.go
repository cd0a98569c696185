// Package captcha issues the human-verification challenge shown on the login
// form: a short code rendered as a PNG, identified by an opaque id.
package captcha

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/big"
	"strings"

	"github.com/mr-tron/base58"
)

// Charset deliberately omits the ambiguous 0/O, 1/I pairs.
const Charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the number of characters in a challenge code.
const CodeLength = 5

// DemoID is the sentinel challenge id used in offline/demo mode.
const DemoID = "demo"

// DemoCode is the fixed challenge text served in offline/demo mode.
const DemoCode = "AB3D9"

// Challenge is an issued captcha: the opaque id handed to the client and the
// code the client is expected to read off the image.
type Challenge struct {
	ID   string
	Code string
}

// New generates a fresh challenge with a random code and opaque id.
func New() (*Challenge, error) {
	code, err := randomCode()
	if err != nil {
		return nil, err
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, fmt.Errorf("failed to generate captcha id: %w", err)
	}

	return &Challenge{
		ID:   base58.Encode(idBytes),
		Code: code,
	}, nil
}

func randomCode() (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(Charset)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate captcha code: %w", err)
		}
		sb.WriteByte(Charset[n.Int64()])
	}
	return sb.String(), nil
}

// Match reports whether the submitted text answers the challenge. Matching is
// case-insensitive so lowercase entry of an uppercase code is accepted.
func Match(expected, submitted string) bool {
	return strings.EqualFold(expected, strings.TrimSpace(submitted))
}

// Render draws the code as a PNG. The glyphs come from a built-in 5x7 bitmap
// font, scaled up with per-glyph vertical jitter derived from the code itself
// so the image is stable for a given challenge.
func Render(code string) ([]byte, error) {
	const (
		scale   = 4
		padding = 8
		advance = 6 // glyph cell width including spacing
	)

	w := padding*2 + len(code)*advance*scale
	h := padding*2 + (glyphRows+2)*scale

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := color.RGBA{R: 0xf4, G: 0xf4, B: 0xf0, A: 0xff}
	fg := color.RGBA{R: 0x2b, G: 0x2b, B: 0x3a, A: 0xff}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, bg)
		}
	}

	for i := 0; i < len(code); i++ {
		glyph, ok := font[code[i]]
		if !ok {
			return nil, fmt.Errorf("unsupported captcha character %q", code[i])
		}

		// deterministic jitter: -1, 0 or +1 rows
		jitter := int(code[i]+byte(i))%3 - 1

		ox := padding + i*advance*scale
		oy := padding + (1+jitter)*scale

		for row := 0; row < glyphRows; row++ {
			for col := 0; col < glyphCols; col++ {
				if glyph[row]&(1<<(glyphCols-1-col)) == 0 {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						img.SetRGBA(ox+col*scale+dx, oy+row*scale+dy, fg)
					}
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode captcha image: %w", err)
	}

	return buf.Bytes(), nil
}
