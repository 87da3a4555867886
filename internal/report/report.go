// Package report summarises a finished session's rep log and renders a
// per-rep velocity chart for review.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/barbell-data/velocity.coach/internal/engine/reps"
	"github.com/barbell-data/velocity.coach/internal/units"
)

// Summary aggregates a session's rep log. All velocities are in m/s.
type Summary struct {
	RepCount     int
	MeanVelocity float64 // mean of per-rep mean velocities
	P50Velocity  float64
	StdDev       float64
	PeakVelocity float64 // best single-rep peak
	BestRep      int     // rep number with the highest mean velocity
	FinalDrop    float64 // velocity drop of the last rep, percent
}

// Summarize computes session aggregates from the rep log.
func Summarize(records []reps.Record) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	means := make([]float64, len(records))
	s := Summary{RepCount: len(records)}
	for i, r := range records {
		means[i] = r.MeanVelocity
		if r.PeakVelocity > s.PeakVelocity {
			s.PeakVelocity = r.PeakVelocity
		}
		if s.BestRep == 0 || r.MeanVelocity > records[s.BestRep-1].MeanVelocity {
			s.BestRep = r.RepNumber
		}
	}
	s.FinalDrop = records[len(records)-1].VelocityDropPercent

	s.MeanVelocity = stat.Mean(means, nil)
	if len(means) > 1 {
		s.StdDev = stat.StdDev(means, nil)
	}

	sorted := append([]float64(nil), means...)
	sort.Float64s(sorted)
	s.P50Velocity = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}

// FormatSummary renders the summary as text in the requested display unit.
func FormatSummary(s Summary, unit string) string {
	if s.RepCount == 0 {
		return "no reps recorded\n"
	}
	label := units.Label(unit)
	var b strings.Builder
	fmt.Fprintf(&b, "reps:          %d\n", s.RepCount)
	fmt.Fprintf(&b, "mean velocity: %.2f %s\n", units.ConvertSpeed(s.MeanVelocity, unit), label)
	fmt.Fprintf(&b, "p50 velocity:  %.2f %s\n", units.ConvertSpeed(s.P50Velocity, unit), label)
	fmt.Fprintf(&b, "peak velocity: %.2f %s\n", units.ConvertSpeed(s.PeakVelocity, unit), label)
	fmt.Fprintf(&b, "best rep:      #%d\n", s.BestRep)
	fmt.Fprintf(&b, "final drop:    %.1f%%\n", s.FinalDrop)
	return b.String()
}

// WriteVelocityChart renders an HTML bar chart of per-rep mean and peak
// velocity. Intended for post-session review, not the live path.
func WriteVelocityChart(w io.Writer, exercise string, loadKg float64, records []reps.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("no reps to chart")
	}

	labels := make([]string, len(records))
	meanData := make([]opts.BarData, len(records))
	peakData := make([]opts.BarData, len(records))
	dropData := make([]opts.LineData, len(records))
	for i, r := range records {
		labels[i] = fmt.Sprintf("rep %d", r.RepNumber)
		meanData[i] = opts.BarData{Value: r.MeanVelocity}
		peakData[i] = opts.BarData{Value: r.PeakVelocity}
		dropData[i] = opts.LineData{Value: r.VelocityDropPercent}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Session Velocity", Theme: "dark", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Bar Velocity by Rep",
			Subtitle: fmt.Sprintf("exercise=%s load=%.1fkg reps=%d", exercise, loadKg, len(records)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "m/s", NameLocation: "middle", NameGap: 35}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("mean", meanData)
	bar.AddSeries("peak", peakData)

	drop := charts.NewLine()
	drop.SetXAxis(labels)
	drop.AddSeries("drop %", dropData)
	bar.Overlap(drop)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
