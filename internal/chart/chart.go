// Package chart renders the settlement category chart: one bar per
// (category, person) pair, colored by person, as PNG bytes ready to send
// as a photo.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"

	"racha/internal/core"
)

// ErrEmptyMatrix is returned when there is nothing to draw. The
// settlement engine never calls the renderer with an empty record set,
// so hitting this means a caller bug.
var ErrEmptyMatrix = errors.New("empty category matrix")

// Renderer draws grouped spending bars with go-chart.
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer returns a renderer with the default canvas size.
func NewRenderer() *Renderer {
	return &Renderer{Width: 1024, Height: 512}
}

// Render produces the PNG chart for a category-by-person amount matrix.
// The matrix may be sparse; only present combinations get a bar. Output
// order is category-then-person alphabetical so charts are stable.
func (r *Renderer) Render(matrix core.CategoryMatrix) ([]byte, error) {
	bars := buildBars(matrix)
	if len(bars) == 0 {
		return nil, ErrEmptyMatrix
	}

	graph := chart.BarChart{
		Title:    "Spending by category",
		Width:    r.Width,
		Height:   r.Height,
		BarWidth: 48,
		Background: chart.Style{
			Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}

func buildBars(matrix core.CategoryMatrix) []chart.Value {
	categories := make([]string, 0, len(matrix))
	for category := range matrix {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	// Stable color per person across all categories and runs: colors are
	// assigned in sorted person order, never map iteration order.
	allPersons := map[string]struct{}{}
	for _, byPerson := range matrix {
		for person := range byPerson {
			allPersons[person] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(allPersons))
	for person := range allPersons {
		sorted = append(sorted, person)
	}
	sort.Strings(sorted)
	colorIndex := make(map[string]int, len(sorted))
	for i, person := range sorted {
		colorIndex[person] = i
	}

	var bars []chart.Value
	for _, category := range categories {
		byPerson := matrix[category]
		persons := make([]string, 0, len(byPerson))
		for person := range byPerson {
			persons = append(persons, person)
		}
		sort.Strings(persons)

		for _, person := range persons {
			color := chart.GetDefaultColor(colorIndex[person])
			bars = append(bars, chart.Value{
				Label: category + "\n" + person,
				Value: float64(byPerson[person].Cents) / 100.0,
				Style: chart.Style{
					FillColor:   color,
					StrokeColor: color,
				},
			})
		}
	}
	return bars
}
