package tft

import "github.com/gogpu/tft/internal/framebuf"

// RGB565 is a 16-bit color: 5 bits red, 6 bits green, 5 bits blue.
// It implements color.Color.
type RGB565 = framebuf.RGB565

// Common colors.
const (
	Black   = framebuf.Black
	White   = framebuf.White
	Red     = framebuf.Red
	Green   = framebuf.Green
	Blue    = framebuf.Blue
	Yellow  = framebuf.Yellow
	Magenta = framebuf.Magenta
	Cyan    = framebuf.Cyan
)

// RGB565Model converts any color to RGB565.
var RGB565Model = framebuf.RGB565Model

// Color565 packs 8-bit channels into an RGB565 color, dropping the low bits.
func Color565(r, g, b uint8) RGB565 {
	return framebuf.Color565(r, g, b)
}
