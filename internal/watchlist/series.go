package watchlist

// palette cycles over the comparison lines. Colors repeat after three
// symbols.
var palette = []string{"#4BC0C0", "#FF6384", "#36A2EB"}

// Series is one renderable chart line.
type Series struct {
	Symbol  string
	Color   string
	Points  []float64
	Labels  []string
	Percent bool // points are percent change from the first sample
}

// percentChange rebases a price history to percent change from its first
// sample. Histories shorter than one point, or starting at zero, yield nil.
func percentChange(prices []float64) []float64 {
	if len(prices) == 0 || prices[0] == 0 {
		return nil
	}
	base := prices[0]
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = 100 * (p - base) / base
	}
	return out
}

// Series renders the last applied chart state. A single selection charts raw
// prices; a comparison rebases every line to percent change so differently
// priced symbols share an axis.
func (c *Controller) Series() []Series {
	c.mu.RLock()
	defer c.mu.RUnlock()

	chart := c.chart
	if len(chart.Quotes) == 0 {
		return nil
	}

	if len(chart.Quotes) == 1 {
		q := chart.Quotes[0]
		return []Series{{
			Symbol: q.Symbol,
			Color:  palette[0],
			Points: append([]float64(nil), q.PriceHistory...),
			Labels: append([]string(nil), q.Timestamps...),
		}}
	}

	out := make([]Series, 0, len(chart.Quotes))
	for i, q := range chart.Quotes {
		pts := percentChange(q.PriceHistory)
		if pts == nil {
			continue
		}
		out = append(out, Series{
			Symbol:  q.Symbol,
			Color:   palette[i%len(palette)],
			Points:  pts,
			Labels:  append([]string(nil), q.Timestamps...),
			Percent: true,
		})
	}
	return out
}
