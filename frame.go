package diversity

import (
	"encoding/csv"
	"io"
	"strconv"
)

// MetacommunityName labels the metacommunity row in reports.
const MetacommunityName = "metacommunity"

// Row holds every measure for one community at one viewpoint.
type Row struct {
	Community string
	Viewpoint float64

	Alpha           float64
	Rho             float64
	Beta            float64
	Gamma           float64
	NormalizedAlpha float64
	NormalizedRho   float64
	NormalizedBeta  float64
}

func (r *Row) set(measure Measure, value float64) {
	switch measure {
	case MeasureAlpha:
		r.Alpha = value
	case MeasureRho:
		r.Rho = value
	case MeasureBeta:
		r.Beta = value
	case MeasureGamma:
		r.Gamma = value
	case MeasureNormalizedAlpha:
		r.NormalizedAlpha = value
	case MeasureNormalizedRho:
		r.NormalizedRho = value
	case MeasureNormalizedBeta:
		r.NormalizedBeta = value
	}
}

func (r *Row) get(measure Measure) float64 {
	switch measure {
	case MeasureAlpha:
		return r.Alpha
	case MeasureRho:
		return r.Rho
	case MeasureBeta:
		return r.Beta
	case MeasureGamma:
		return r.Gamma
	case MeasureNormalizedAlpha:
		return r.NormalizedAlpha
	case MeasureNormalizedRho:
		return r.NormalizedRho
	case MeasureNormalizedBeta:
		return r.NormalizedBeta
	}
	return 0
}

// SubcommunityRows evaluates every measure at every viewpoint and returns
// one row per subcommunity per viewpoint, grouped by viewpoint in argument
// order.
func (m *Metacommunity) SubcommunityRows(viewpoints ...float64) ([]Row, error) {
	subcommunities := m.Subcommunities()
	rows := make([]Row, 0, len(viewpoints)*len(subcommunities))

	for _, viewpoint := range viewpoints {
		values := make(map[Measure][]float64, len(Measures()))
		for _, measure := range Measures() {
			v, err := m.SubcommunityDiversity(viewpoint, measure)
			if err != nil {
				return nil, err
			}
			values[measure] = v
		}

		for i, name := range subcommunities {
			row := Row{Community: name, Viewpoint: viewpoint}
			for measure, v := range values {
				row.set(measure, v[i])
			}
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// MetacommunityRows evaluates every measure at every viewpoint for the
// metacommunity as a whole and returns one row per viewpoint.
func (m *Metacommunity) MetacommunityRows(viewpoints ...float64) ([]Row, error) {
	rows := make([]Row, 0, len(viewpoints))

	for _, viewpoint := range viewpoints {
		row := Row{Community: MetacommunityName, Viewpoint: viewpoint}
		for _, measure := range Measures() {
			v, err := m.MetacommunityDiversity(viewpoint, measure)
			if err != nil {
				return nil, err
			}
			row.set(measure, v)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Rows returns the combined report: for each viewpoint, one row per
// subcommunity followed by the metacommunity row.
func (m *Metacommunity) Rows(viewpoints ...float64) ([]Row, error) {
	rows := make([]Row, 0, len(viewpoints)*(len(m.Subcommunities())+1))

	for _, viewpoint := range viewpoints {
		sub, err := m.SubcommunityRows(viewpoint)
		if err != nil {
			return nil, err
		}
		rows = append(rows, sub...)

		meta, err := m.MetacommunityRows(viewpoint)
		if err != nil {
			return nil, err
		}
		rows = append(rows, meta...)
	}

	return rows, nil
}

type writeOptions struct {
	delimiter rune
}

// WriteOption configures WriteRows output.
type WriteOption func(*writeOptions)

// WithOutputDelimiter sets the field delimiter. The default is a tab.
func WithOutputDelimiter(delimiter rune) WriteOption {
	return func(o *writeOptions) {
		if delimiter != 0 {
			o.delimiter = delimiter
		}
	}
}

// WriteRows writes rows as delimited text with a header line. Viewpoints
// carry two decimal places and measures four.
func WriteRows(w io.Writer, rows []Row, optFns ...WriteOption) error {
	opts := writeOptions{delimiter: '\t'}
	for _, fn := range optFns {
		fn(&opts)
	}

	cw := csv.NewWriter(w)
	cw.Comma = opts.delimiter

	measures := Measures()

	header := make([]string, 0, len(measures)+2)
	header = append(header, "community", "viewpoint")
	for _, measure := range measures {
		header = append(header, string(measure))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i := range rows {
		record[0] = rows[i].Community
		record[1] = strconv.FormatFloat(rows[i].Viewpoint, 'f', 2, 64)
		for j, measure := range measures {
			record[2+j] = strconv.FormatFloat(rows[i].get(measure), 'f', 4, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}
