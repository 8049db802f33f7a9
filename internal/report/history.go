package report

import (
	"errors"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrEmptyHistory = errors.New("适应度历史为空")

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
)

// HistoryPlot 画出每一代最优适应度的折线图，横轴为代数
func HistoryPlot(history []float64, title string) (*plot.Plot, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Best fitness"

	pts := make(plotter.XYs, len(history))
	for i, fitness := range history {
		pts[i].X = float64(i + 1)
		pts[i].Y = fitness
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}

	p.Add(line, plotter.NewGrid())
	p.Legend.Add("best", line)
	p.Legend.Top = true

	return p, nil
}

func WriteHistoryPNG(w io.Writer, history []float64, title string) error {
	p, err := HistoryPlot(history, title)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return err
	}

	_, err = wt.WriteTo(w)
	return err
}

func SaveHistoryPNG(path string, history []float64, title string) error {
	p, err := HistoryPlot(history, title)
	if err != nil {
		return err
	}

	return p.Save(chartWidth, chartHeight, path)
}
