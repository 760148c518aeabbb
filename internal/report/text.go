package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wegman-software/osm-footprints/internal/aggregate"
	"github.com/wegman-software/osm-footprints/internal/classify"
)

const barWidth = 40

// Text renders the metrics overview and accessibility panel as plain text
type Text struct {
	w io.Writer
}

// NewText creates a text report writing to w
func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) ShowMetrics(s aggregate.Snapshot) error {
	var b strings.Builder

	b.WriteString("Metrics Overview\n")
	fmt.Fprintf(&b, "  Green Space:        %d\n", s.Greenspace)
	fmt.Fprintf(&b, "  Parking:            %d\n", s.Parking)
	fmt.Fprintf(&b, "  Buildings:          %d\n", s.Buildings)
	fmt.Fprintf(&b, "  Pedestrian Areas:   %d\n", s.Pedestrian)
	fmt.Fprintf(&b, "  Other Features:     %d\n", s.Others)
	fmt.Fprintf(&b, "  Total Green Space Area:         %.2f m²\n", s.TotalGreenSpaceArea)
	fmt.Fprintf(&b, "  Total Property Footprint Area:  %.2f m²\n", s.TotalFootprintArea)
	fmt.Fprintf(&b, "  Properties with Outlier Area Data: %.2f m² purged\n", s.TotalOutlierAreaPurged)
	fmt.Fprintf(&b, "  Properties Outside Defined Area:   %d purged\n", s.PropertiesOutsideAreaCount)

	if shares := Distribution(s); len(shares) > 0 {
		b.WriteString("\nMetrics Distribution\n")
		for _, sh := range shares {
			fmt.Fprintf(&b, "  %-12s %5.1f%%\n", sh.Label, sh.Percent)
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Text) ShowAccessibility(idx aggregate.Index) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%.0f%% (%s)\n", idx.Value, idx.Label)
	fmt.Fprintf(&b, "[%s]\n", Bar(idx.Value, barWidth))
	b.WriteString("Green Space Accessibility Index\n")
	b.WriteString("The UN recommends a 15-20% metric\n")
	fmt.Fprintf(&b, "Total Green Space Area: %.2f m²\n", idx.TotalGreenSpaceArea)
	fmt.Fprintf(&b, "Total Footprint Area: %.2f m²\n", idx.TotalFootprintArea)
	fmt.Fprintf(&b, "Green Space in Properties: %.2f%%\n\n", idx.Value)

	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Text) ShowDegenerate(err error) error {
	_, werr := fmt.Fprintf(t.w, "Green Space Accessibility Index\nunavailable: %v\n\n", err)
	return werr
}

// Bar draws a progress bar for a percentage, capped at 100
func Bar(percent float64, width int) string {
	if math.IsNaN(percent) || percent < 0 {
		percent = 0
	}
	filled := int(math.Round(math.Min(percent, 100) / 100 * float64(width)))
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}

// Share is one slice of the category distribution
type Share struct {
	Label   string
	Count   int
	Percent float64
}

// Distribution returns the non-zero category counts with their share of the total
func Distribution(s aggregate.Snapshot) []Share {
	total := s.Contained()
	if total == 0 {
		return nil
	}

	var out []Share
	for _, c := range classify.Categories {
		n := s.Count(c)
		if n == 0 {
			continue
		}
		label := string(c)
		out = append(out, Share{
			Label:   strings.ToUpper(label[:1]) + label[1:],
			Count:   n,
			Percent: float64(n) / float64(total) * 100,
		})
	}
	return out
}
