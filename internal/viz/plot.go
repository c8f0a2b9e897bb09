// Package viz renders finished trajectories in the terminal: a static
// asciigraph plot of one component, a styled run summary, and an
// interactive playback. It never re-integrates; it only reads recorded
// trajectories.
package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/odelab/odesim/internal/driver"
)

// PlotComponent renders a single component series over the output times.
func PlotComponent(traj *driver.Trajectory, component string, width, height int) (string, error) {
	series, err := traj.Component(component)
	if err != nil {
		return "", err
	}

	graph := asciigraph.Plot(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(fmt.Sprintf("%s over t=[%g, %g]", component, traj.Times[0], traj.Times[traj.Len()-1])),
	)
	return graphStyle.Render(graph), nil
}

// Summary renders a compact styled block describing a finished run.
func Summary(model, scheme string, traj *driver.Trajectory) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%s)", model, scheme)))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	row("rows", fmt.Sprintf("%d", traj.Len()))
	row("span", fmt.Sprintf("[%g, %g]", traj.Times[0], traj.Times[traj.Len()-1]))
	row("components", strings.Join(traj.Components, ", "))

	final := traj.States[traj.Len()-1]
	for i, name := range traj.Components {
		row("  "+name, trimFloat(final[i]))
	}

	return b.String()
}

func trimFloat(v float64) string {
	if v != 0 && math.Abs(v) < 1e-4 {
		return fmt.Sprintf("%.4e", v)
	}
	return fmt.Sprintf("%.6g", v)
}
