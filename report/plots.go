package report

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// ObservedVsPredicted writes a scatter of predictions against observed
// target values with the identity line, in original target units.
func ObservedVsPredicted(path, targetName string, observed, predicted []float64) error {
	if len(observed) != len(predicted) {
		return errors.NewDimensionError("ObservedVsPredicted", len(observed), len(predicted), 0)
	}

	pts := make(plotter.XYs, len(observed))
	lo, hi := observed[0], observed[0]
	for i := range observed {
		pts[i].X = observed[i]
		pts[i].Y = predicted[i]
		for _, v := range []float64{observed[i], predicted[i]} {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}

	p := plot.New()
	p.Title.Text = "Observed vs predicted " + targetName
	p.X.Label.Text = "observed"
	p.Y.Label.Text = "predicted"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "building scatter")
	}
	identity := plotter.NewFunction(func(x float64) float64 { return x })
	identity.XMin, identity.XMax = lo, hi
	p.Add(scatter, identity, plotter.NewGrid())

	return errors.Wrap(p.Save(6*vg.Inch, 6*vg.Inch, path), "saving plot")
}

// ResidualHistogram writes a histogram of original-unit residuals.
func ResidualHistogram(path string, observed, predicted []float64) error {
	if len(observed) != len(predicted) {
		return errors.NewDimensionError("ResidualHistogram", len(observed), len(predicted), 0)
	}
	res := make(plotter.Values, len(observed))
	for i := range observed {
		res[i] = observed[i] - predicted[i]
	}

	p := plot.New()
	p.Title.Text = "Residuals"
	p.X.Label.Text = "observed - predicted"

	hist, err := plotter.NewHist(res, 16)
	if err != nil {
		return errors.Wrap(err, "building histogram")
	}
	p.Add(hist)

	return errors.Wrap(p.Save(6*vg.Inch, 4*vg.Inch, path), "saving plot")
}
