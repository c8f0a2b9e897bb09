package tabio

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/odelab/odesim/internal/driver"
)

// WriteTrajectoryCSV writes one row per output time: time first, then the
// state components in layout order.
func WriteTrajectoryCSV(w io.Writer, traj *driver.Trajectory) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time"}, traj.Components...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, t := range traj.Times {
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for j, v := range traj.States[i] {
			row[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTrajectoryCSVFile is WriteTrajectoryCSV against a file path.
func WriteTrajectoryCSVFile(path string, traj *driver.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteTrajectoryCSV(f, traj)
}

// ExportData is the JSON export shape for a finished run.
type ExportData struct {
	Model      string      `json:"model"`
	Scheme     string      `json:"scheme"`
	Components []string    `json:"components"`
	Rows       int         `json:"rows"`
	Times      []float64   `json:"times"`
	States     [][]float64 `json:"states"`
}

func exportData(model, scheme string, traj *driver.Trajectory) ExportData {
	data := ExportData{
		Model:      model,
		Scheme:     scheme,
		Components: traj.Components,
		Rows:       traj.Len(),
		Times:      traj.Times,
		States:     make([][]float64, len(traj.States)),
	}
	for i, s := range traj.States {
		data.States[i] = s
	}
	return data
}

// ExportJSON writes the run as indented JSON.
func ExportJSON(w io.Writer, model, scheme string, traj *driver.Trajectory) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportData(model, scheme, traj))
}

// ExportJSONFile is ExportJSON against a file path.
func ExportJSONFile(path, model, scheme string, traj *driver.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ExportJSON(f, model, scheme, traj)
}
