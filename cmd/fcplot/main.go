// fcplot renders the CSV logs fcsim writes into PNG plots: estimated
// vs true attitude, and the four motor outputs.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func main() {
	in := flag.String("in", "fcsim.csv", "CSV log file from fcsim")
	attOut := flag.String("attitude", "attitude.png", "attitude plot output")
	motorOut := flag.String("motors", "motors.png", "motor plot output")
	flag.Parse()

	cols, err := readLog(*in)
	if err != nil {
		log.Fatalln("fcplot:", err)
	}
	t, ok := cols["t"]
	if !ok {
		log.Fatalln("fcplot: log has no t column")
	}

	if err := savePlot(*attOut, "Attitude", "rad", t, cols,
		"estRoll", "trueRoll", "estPitch", "truePitch"); err != nil {
		log.Fatalln("fcplot:", err)
	}
	if err := savePlot(*motorOut, "Motor throttles", "fraction", t, cols,
		"motorFL", "motorFR", "motorBR", "motorBL"); err != nil {
		log.Fatalln("fcplot:", err)
	}
	log.Printf("fcplot: wrote %s and %s", *attOut, *motorOut)
}

// readLog parses the CSV into one float series per header name.
func readLog(path string) (map[string][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	header := rows[0]
	cols := make(map[string][]float64, len(header))
	for _, name := range header {
		cols[name] = make([]float64, 0, len(rows)-1)
	}
	for _, row := range rows[1:] {
		for i, field := range row {
			if i >= len(header) {
				break
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: bad value %q in column %s", path, field, header[i])
			}
			cols[header[i]] = append(cols[header[i]], v)
		}
	}
	return cols, nil
}

func savePlot(path, title, ylabel string, t []float64, cols map[string][]float64, names ...string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = ylabel
	p.Legend.Top = true

	for i, name := range names {
		ys, ok := cols[name]
		if !ok {
			return fmt.Errorf("log has no %s column", name)
		}
		pts := make(plotter.XYs, len(ys))
		for j := range ys {
			pts[j].X = t[j]
			pts[j].Y = ys[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(name, line)
	}

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
