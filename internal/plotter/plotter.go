// Package plotter writes PNG diagnostics comparing recorded samples with
// their resampled trajectories, and snapshots of composed scenes.
package plotter

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"sort"

	"gonum.org/v1/plot"
	gplotter "gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/pitch.replay/internal/scene"
	"github.com/banshee-data/pitch.replay/internal/security"
	"github.com/banshee-data/pitch.replay/internal/tracking"
	"github.com/banshee-data/pitch.replay/internal/tracking/resample"
	"github.com/banshee-data/pitch.replay/internal/units"
)

// ErrEmptyTrack is returned when there is nothing to plot.
var ErrEmptyTrack = errors.New("nothing to plot")

var (
	rawColor       = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	resampledColor = color.RGBA{R: 30, G: 90, B: 200, A: 255}
	homeColor      = color.RGBA{R: 220, G: 120, B: 20, A: 255}
	awayColor      = color.RGBA{R: 20, G: 150, B: 90, A: 255}
	ballColor      = color.Black
)

// Plotter saves plots into a single output directory.
type Plotter struct {
	outputDir string
	scale     float64
	width     vg.Length
	height    vg.Length
}

// New returns a Plotter writing into outputDir. scale converts recorded
// units to meters.
func New(outputDir string, scale float64) *Plotter {
	return &Plotter{
		outputDir: outputDir,
		scale:     scale,
		width:     10 * vg.Inch,
		height:    6.5 * vg.Inch,
	}
}

// OutputDir returns the directory plots are written to.
func (p *Plotter) OutputDir() string { return p.outputDir }

func (p *Plotter) ensureDir() error {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	return nil
}

// Trajectory plots the pitch-plane path of raw against rs and returns the
// written file.
func (p *Plotter) Trajectory(name string, raw tracking.Track, rs *resample.Track) (string, error) {
	if raw.Len() == 0 || rs == nil || rs.Len() == 0 {
		return "", fmt.Errorf("trajectory %q: %w", name, ErrEmptyTrack)
	}
	if err := p.ensureDir(); err != nil {
		return "", err
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s - %s x%d (%s)", name, raw.EntityID(), rs.Factor, rs.Method)
	pl.X.Label.Text = "X (m)"
	pl.Y.Label.Text = "Y (m)"

	rawPts := make(gplotter.XYs, raw.Len())
	for i := range rawPts {
		pos := raw.At(i).Position
		rawPts[i] = gplotter.XY{X: p.meters(pos.X), Y: p.meters(pos.Y)}
	}
	rsPts := make(gplotter.XYs, rs.Len())
	for i := range rsPts {
		pos := rs.At(i).Position
		rsPts[i] = gplotter.XY{X: p.meters(pos.X), Y: p.meters(pos.Y)}
	}

	if err := addLine(pl, "resampled", rsPts, resampledColor); err != nil {
		return "", err
	}
	if err := addScatter(pl, "recorded", rawPts, rawColor, vg.Points(3)); err != nil {
		return "", err
	}
	topRightLegend(pl)

	file, err := p.path(name + "_trajectory.png")
	if err != nil {
		return "", err
	}
	if err := pl.Save(p.width, p.height, file); err != nil {
		return "", fmt.Errorf("save trajectory plot: %w", err)
	}
	return file, nil
}

// Components plots X and Y against frame id, one file each, so overshoot
// between recorded samples is visible.
func (p *Plotter) Components(name string, raw tracking.Track, rs *resample.Track) ([]string, error) {
	if raw.Len() == 0 || rs == nil || rs.Len() == 0 {
		return nil, fmt.Errorf("components %q: %w", name, ErrEmptyTrack)
	}
	if err := p.ensureDir(); err != nil {
		return nil, err
	}

	axes := []struct {
		label string
		get   func(tracking.Point) float64
	}{
		{"x", func(pt tracking.Point) float64 { return pt.X }},
		{"y", func(pt tracking.Point) float64 { return pt.Y }},
	}

	var files []string
	for _, ax := range axes {
		pl := plot.New()
		pl.Title.Text = fmt.Sprintf("%s - %s %s by frame", name, raw.EntityID(), ax.label)
		pl.X.Label.Text = "Frame"
		pl.Y.Label.Text = fmt.Sprintf("%s (m)", ax.label)

		rawPts := make(gplotter.XYs, raw.Len())
		for i := range rawPts {
			s := raw.At(i)
			rawPts[i] = gplotter.XY{X: float64(s.FrameID), Y: p.meters(ax.get(s.Position))}
		}
		rsPts := make(gplotter.XYs, rs.Len())
		for i := range rsPts {
			pt := rs.At(i)
			rsPts[i] = gplotter.XY{X: pt.VirtualFrame, Y: p.meters(ax.get(pt.Position))}
		}

		if err := addLine(pl, "resampled", rsPts, resampledColor); err != nil {
			return files, err
		}
		if err := addScatter(pl, "recorded", rawPts, rawColor, vg.Points(3)); err != nil {
			return files, err
		}
		topRightLegend(pl)

		file, err := p.path(fmt.Sprintf("%s_%s.png", name, ax.label))
		if err != nil {
			return files, err
		}
		if err := pl.Save(p.width, p.height, file); err != nil {
			return files, fmt.Errorf("save %s plot: %w", ax.label, err)
		}
		files = append(files, file)
	}
	return files, nil
}

// Scene plots one composed frame. Scene coordinates are already meters.
func (p *Plotter) Scene(name string, s scene.Scene) (string, error) {
	if err := p.ensureDir(); err != nil {
		return "", err
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s - frame %d (virtual %.2f)", name, s.Index, s.VirtualFrame)
	pl.X.Label.Text = "X (m)"
	pl.Y.Label.Text = "Y (m)"

	for _, team := range []struct {
		label string
		pos   map[string]tracking.Point
		c     color.Color
	}{
		{"home", s.Home, homeColor},
		{"away", s.Away, awayColor},
	} {
		if len(team.pos) == 0 {
			continue
		}
		if err := addScatter(pl, team.label, sortedXYs(team.pos), team.c, vg.Points(4)); err != nil {
			return "", err
		}
	}
	ball := gplotter.XYs{{X: s.Ball.X, Y: s.Ball.Y}}
	if err := addScatter(pl, "ball", ball, ballColor, vg.Points(2.5)); err != nil {
		return "", err
	}
	topRightLegend(pl)

	file, err := p.path(fmt.Sprintf("%s_frame_%06d.png", name, s.Index))
	if err != nil {
		return "", err
	}
	if err := pl.Save(p.width, p.height, file); err != nil {
		return "", fmt.Errorf("save scene plot: %w", err)
	}
	return file, nil
}

// path places a plot file in the output directory. The name prefix comes
// from stored identifiers, so it is sanitised first.
func (p *Plotter) path(file string) (string, error) {
	return security.JoinWithin(p.outputDir, security.SanitizeFilename(file))
}

func (p *Plotter) meters(v float64) float64 {
	return units.ToMeters(v, p.scale)
}

func sortedXYs(pos map[string]tracking.Point) gplotter.XYs {
	ids := make([]string, 0, len(pos))
	for id := range pos {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make(gplotter.XYs, len(ids))
	for i, id := range ids {
		out[i] = gplotter.XY{X: pos[id].X, Y: pos[id].Y}
	}
	return out
}

func addLine(pl *plot.Plot, label string, pts gplotter.XYs, c color.Color) error {
	line, err := gplotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1)
	pl.Add(line)
	pl.Legend.Add(label, line)
	return nil
}

func addScatter(pl *plot.Plot, label string, pts gplotter.XYs, c color.Color, r vg.Length) error {
	sc, err := gplotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle = draw.GlyphStyle{Color: c, Radius: r, Shape: draw.CircleGlyph{}}
	pl.Add(sc)
	pl.Legend.Add(label, sc)
	return nil
}

func topRightLegend(pl *plot.Plot) {
	pl.Legend.Top = true
	pl.Legend.Left = false
	pl.Legend.XOffs = -10
	pl.Legend.YOffs = -10
}
