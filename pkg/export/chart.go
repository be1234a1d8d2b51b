// Package export renders the dirty/clean comparison as a static chart
// (SVG or PNG) for sharing outside the terminal.
package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/neurodeck/pkg/pipeline"
)

// ChartOptions controls comparison chart export behaviour.
type ChartOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title  string // Optional title rendered in the header block
	Dirty  pipeline.Summary
	Clean  pipeline.Summary
}

// SaveChart renders the dirty/clean comparison chart. The layout keeps the
// visual language minimal: one grouped bar pair per metric, summary header.
func SaveChart(opts ChartOptions) error {
	if opts.Dirty.Episodes == 0 && opts.Clean.Episodes == 0 {
		return fmt.Errorf("no simulation results to export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg" // safe default
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildLayout(opts)

	switch format {
	case "svg":
		return renderSVG(opts.Path, layout)
	case "png":
		return renderPNG(opts.Path, layout)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// --- layout computation ----------------------------------------------------

type metricBar struct {
	Label string
	Dirty float64
	Clean float64
	// Normalized bar heights in [0,1].
	DirtyH float64
	CleanH float64
}

type chartLayout struct {
	Title   string
	Width   int
	Height  int
	Header  float64
	Bars    []metricBar
	BarW    float64
	GroupW  float64
	PlotTop float64
	PlotH   float64
	Footer  string
}

const (
	chartWidth   = 760
	chartHeight  = 480
	headerHeight = 96.0
	barWidth     = 48.0
	groupGap     = 70.0
	padding      = 36.0
)

func buildLayout(opts ChartOptions) chartLayout {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Dirty vs Clean"
	}

	bars := []metricBar{
		{Label: "avg alive", Dirty: opts.Dirty.AvgAlive, Clean: opts.Clean.AvgAlive},
		{Label: "avg reward", Dirty: opts.Dirty.AvgReward, Clean: opts.Clean.AvgReward},
		{Label: "avg route", Dirty: opts.Dirty.AvgRoute, Clean: opts.Clean.AvgRoute},
		{Label: "crashes", Dirty: float64(opts.Dirty.Crashes), Clean: float64(opts.Clean.Crashes)},
	}

	// Normalize each metric pair against its own maximum; the metrics are
	// on wildly different scales.
	for i := range bars {
		peak := math.Max(math.Abs(bars[i].Dirty), math.Abs(bars[i].Clean))
		if peak == 0 {
			continue
		}
		bars[i].DirtyH = math.Abs(bars[i].Dirty) / peak
		bars[i].CleanH = math.Abs(bars[i].Clean) / peak
	}

	return chartLayout{
		Title:   title,
		Width:   chartWidth,
		Height:  chartHeight,
		Header:  headerHeight,
		Bars:    bars,
		BarW:    barWidth,
		GroupW:  2*barWidth + 10,
		PlotTop: padding + headerHeight,
		PlotH:   chartHeight - padding*2 - headerHeight - 40,
		Footer: fmt.Sprintf("episodes: dirty %d  clean %d",
			opts.Dirty.Episodes, opts.Clean.Episodes),
	}
}

// groupX returns the left edge of metric group i.
func (l chartLayout) groupX(i int) float64 {
	total := float64(len(l.Bars))*l.GroupW + (float64(len(l.Bars))-1)*groupGap
	left := (float64(l.Width) - total) / 2
	return left + float64(i)*(l.GroupW+groupGap)
}

// --- rendering -------------------------------------------------------------

var (
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorDirty    = color.RGBA{0xff, 0xcd, 0xd2, 0xff}
	colorClean    = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBaseline = color.RGBA{0x9c, 0xa3, 0xaf, 0xff}
)

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func renderPNG(path string, layout chartLayout) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, layout.Header-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Title, 32, 40, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(layout.Footer, 32, 60, 0, 0.5)

	baseline := layout.PlotTop + layout.PlotH
	dc.SetColor(colorBaseline)
	dc.SetLineWidth(1)
	dc.DrawLine(padding, baseline, float64(layout.Width)-padding, baseline)
	dc.Stroke()

	for i, bar := range layout.Bars {
		x := layout.groupX(i)

		drawBarPNG(dc, x, baseline, layout.BarW, bar.DirtyH*layout.PlotH, colorDirty)
		drawBarPNG(dc, x+layout.BarW+10, baseline, layout.BarW, bar.CleanH*layout.PlotH, colorClean)

		dc.SetColor(colorText)
		dc.DrawStringAnchored(bar.Label, x+layout.GroupW/2, baseline+16, 0.5, 0.5)
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(formatValue(bar.Dirty), x+layout.BarW/2, baseline-bar.DirtyH*layout.PlotH-10, 0.5, 0.5)
		dc.DrawStringAnchored(formatValue(bar.Clean), x+layout.BarW+10+layout.BarW/2, baseline-bar.CleanH*layout.PlotH-10, 0.5, 0.5)
	}

	drawLegendPNG(dc, layout)

	return dc.SavePNG(path)
}

func drawBarPNG(dc *gg.Context, x, baseline, w, h float64, fill color.RGBA) {
	if h < 1 {
		h = 1
	}
	dc.SetColor(fill)
	dc.DrawRectangle(x, baseline-h, w, h)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, baseline-h, w, h)
	dc.Stroke()
}

func drawLegendPNG(dc *gg.Context, layout chartLayout) {
	x := float64(layout.Width) - 180
	y := 32.0
	for _, entry := range []struct {
		c     color.RGBA
		label string
	}{
		{colorDirty, "dirty model"},
		{colorClean, "clean model"},
	} {
		dc.SetColor(entry.c)
		dc.DrawRectangle(x, y-6, 12, 12)
		dc.Fill()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(entry.label, x+18, y, 0, 0.5)
		y += 18
	}
}

func renderSVG(path string, layout chartLayout) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return renderSVGToWriter(file, layout)
}

func renderSVGToWriter(w io.Writer, layout chartLayout) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, "fill:"+css(colorBackdrop))
	canvas.Roundrect(16, 16, layout.Width-32, int(layout.Header-24), 10, 10, "fill:"+css(colorHeaderBG))

	canvas.Text(32, 44, layout.Title,
		fmt.Sprintf("fill:%s;font-size:15px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(32, 64, layout.Footer,
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	baseline := int(layout.PlotTop + layout.PlotH)
	canvas.Line(int(padding), baseline, layout.Width-int(padding), baseline,
		fmt.Sprintf("stroke:%s;stroke-width:1", css(colorBaseline)))

	for i, bar := range layout.Bars {
		x := int(layout.groupX(i))
		dirtyH := int(bar.DirtyH * layout.PlotH)
		cleanH := int(bar.CleanH * layout.PlotH)

		drawBarSVG(canvas, x, baseline, int(layout.BarW), dirtyH, colorDirty)
		drawBarSVG(canvas, x+int(layout.BarW)+10, baseline, int(layout.BarW), cleanH, colorClean)

		canvas.Text(x+int(layout.GroupW)/2, baseline+18, bar.Label,
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;text-anchor:middle", css(colorText)))
		canvas.Text(x+int(layout.BarW)/2, baseline-dirtyH-6, formatValue(bar.Dirty),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
		canvas.Text(x+int(layout.BarW)+10+int(layout.BarW)/2, baseline-cleanH-6, formatValue(bar.Clean),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
	}

	// legend
	lx := layout.Width - 180
	ly := 28
	for _, entry := range []struct {
		c     color.RGBA
		label string
	}{
		{colorDirty, "dirty model"},
		{colorClean, "clean model"},
	} {
		canvas.Rect(lx, ly, 12, 12, "fill:"+css(entry.c))
		canvas.Text(lx+18, ly+10, entry.label,
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorText)))
		ly += 18
	}

	canvas.End()
	return nil
}

func drawBarSVG(canvas *svg.SVG, x, baseline, w, h int, fill color.RGBA) {
	if h < 1 {
		h = 1
	}
	canvas.Rect(x, baseline-h, w, h,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(fill), css(colorStroke)))
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e6 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
