// Command tftdemo animates a few frames through the tft pipeline.
//
// By default frames are rendered offline and the last one is written as a BMP
// file. With -spi the frames go to an ST7735 panel through periph.io.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/gogpu/tft"
	"github.com/gogpu/tft/sink"
	"github.com/gogpu/tft/sink/capture"
	"github.com/gogpu/tft/sink/st7735"
)

func main() {
	var (
		width    = flag.Int("width", 128, "panel width")
		height   = flag.Int("height", 160, "panel height")
		frames   = flag.Int("frames", 60, "number of frames to render")
		output   = flag.String("output", "tftdemo.bmp", "output file when rendering offline")
		spiName  = flag.String("spi", "", "SPI port name (e.g. SPI0.0); empty renders offline")
		dcName   = flag.String("dc", "GPIO25", "D/C pin")
		rstName  = flag.String("rst", "GPIO24", "reset pin, empty if not wired")
		blName   = flag.String("bl", "", "backlight pin, empty if not wired")
		mhz      = flag.Int("mhz", 15, "SPI clock in MHz")
		band     = flag.Int("band", 0, "rows per band (0 derives it from the staging size)")
		fontSize = flag.Float64("font", 0, "Go Mono size in points (0 uses the built-in 7x13 face)")
		full     = flag.Bool("full", false, "disable dirty tracking")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		tft.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	var (
		out sink.Sink
		rec *capture.Recorder
	)
	if *spiName == "" {
		rec = capture.New(*width, *height)
		out = rec
	} else {
		dev, closePort, err := openPanel(*spiName, *dcName, *rstName, *blName, *mhz, *width, *height)
		if err != nil {
			log.Fatalf("Failed to open panel: %v", err)
		}
		defer closePort()
		out = dev
	}

	opts := []tft.Option{tft.WithDirtyTracking(!*full)}
	if *band > 0 {
		opts = append(opts, tft.WithBandHeight(*band))
	}
	if *fontSize > 0 {
		face, err := loadMono(*fontSize)
		if err != nil {
			log.Fatalf("Failed to load font: %v", err)
		}
		opts = append(opts, tft.WithFace(face))
	}

	p, err := tft.New(*width, *height, out, opts...)
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	drawBackground(p)
	p.ForceFullRedraw()
	p.Flush()
	p.WaitComplete()

	animate(p, *frames)

	if err := p.Close(); err != nil {
		log.Fatalf("Failed to close pipeline: %v", err)
	}

	st := p.Stats()
	log.Printf("%d flushes (%d busy, %d clean), %d bands, %d bytes sent",
		st.FlushesCompleted, st.FlushesBusy, st.FlushesClean, st.BandsSent, st.BytesSent)

	if rec != nil {
		if err := writeBMP(rec, *output); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
		log.Printf("Last frame saved to %s (%dx%d)\n", *output, *width, *height)
	}
}

func openPanel(port, dc, rst, bl string, mhz, w, h int) (*st7735.Dev, func(), error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("host init: %w", err)
	}

	pc, err := spireg.Open(port)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", port, err)
	}

	dcPin := gpioreg.ByName(dc)
	if dcPin == nil {
		pc.Close()
		return nil, nil, fmt.Errorf("unknown D/C pin %q", dc)
	}

	var rstPin gpio.PinOut
	if rst != "" {
		if rstPin = gpioreg.ByName(rst); rstPin == nil {
			pc.Close()
			return nil, nil, fmt.Errorf("unknown reset pin %q", rst)
		}
	}

	opts := st7735.DefaultOpts
	opts.W, opts.H = w, h
	opts.Freq = physic.Frequency(mhz) * physic.MegaHertz
	if bl != "" {
		if opts.Backlight = gpioreg.ByName(bl); opts.Backlight == nil {
			pc.Close()
			return nil, nil, fmt.Errorf("unknown backlight pin %q", bl)
		}
	}

	dev, err := st7735.NewSPI(pc, dcPin, rstPin, &opts)
	if err != nil {
		pc.Close()
		return nil, nil, err
	}
	return dev, func() { _ = pc.Close() }, nil
}

func loadMono(size float64) (font.Face, error) {
	f, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func drawBackground(p *tft.Pipeline) {
	w, h := p.Width(), p.Height()
	for y := range h {
		p.DrawHLine(0, y, w, backdrop(y, h))
	}
}

// backdrop is the vertical gradient color of row y.
func backdrop(y, h int) tft.RGB565 {
	t := y * 255 / max(h-1, 1)
	return tft.Color565(20, uint8(40+t/4), uint8(80+t/2))
}

// animate bounces a ball and updates a frame counter. With dirty tracking on,
// each flush sends only the bands the ball and counter touched.
func animate(p *tft.Pipeline, frames int) {
	w, h := p.Width(), p.Height()
	const r = 6
	x, y, dx, dy := w/3, h/2, 3, 2
	_, textH := p.MeasureText("0")

	for i := range frames {
		// Erase the previous ball by redrawing the backdrop behind it.
		for yy := y - r; yy <= y+r; yy++ {
			p.DrawHLine(x-r, yy, 2*r+1, backdrop(yy, h))
		}

		x, y = x+dx, y+dy
		if x-r <= 0 || x+r >= w-1 {
			dx = -dx
		}
		if y-r <= textH+2 || y+r >= h-1 {
			dy = -dy
		}
		p.FillCircle(x, y, r, tft.Yellow)
		p.DrawCircle(x, y, r, tft.Red)

		p.DrawTextBG(3, 2, fmt.Sprintf("frame %03d", i), tft.White, tft.Black)

		p.Flush()
		p.WaitComplete()
	}
}

func writeBMP(rec *capture.Recorder, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rec.WriteBMP(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
