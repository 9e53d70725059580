package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"marketdesk/internal/backend"
	"marketdesk/internal/dashboard"
	"marketdesk/internal/newsfeed"
	"marketdesk/internal/watchlist"
)

// pane selects the research panel under the chart.
type pane int

const (
	paneNone pane = iota
	paneInfo
	paneSentiment
	paneNews
	paneForecast
)

type watchLoadedMsg struct {
	err error
}

type chartMsg struct {
	res watchlist.ChartResult
	err error
}

type mutationMsg struct {
	err error
}

// quotesUpdatedMsg is bridged in from the controller's subscription when a
// scheduled refresh lands.
type quotesUpdatedMsg watchlist.Event

type companyMsg struct {
	symbol  string
	profile backend.CompanyProfile
	err     error
}

type sentimentMsg struct {
	symbol string
	series backend.SentimentSeries
	err    error
}

type forecastMsg struct {
	symbol string
	pred   backend.Prediction
	err    error
}

type symbolNewsMsg struct {
	err error
}

type watchModel struct {
	deps          Deps
	width, height int

	cursor int
	adding bool
	input  textinput.Model
	busy   bool
	errMsg string
	loaded bool

	pane        pane
	paneSymbol  string
	paneLoading bool
	profile     backend.CompanyProfile
	sentiment   backend.SentimentSeries
	forecast    backend.Prediction
	articles    *newsfeed.Loader[backend.Article]
}

func newWatchModel(deps Deps) watchModel {
	input := textinput.New()
	input.Placeholder = "symbol"
	input.CharLimit = 10
	input.Width = 12

	return watchModel{
		deps:  deps,
		input: input,
		articles: newsfeed.NewLoader(func(ctx context.Context, page int) (newsfeed.Page[backend.Article], error) {
			return newsfeed.Page[backend.Article]{}, nil
		}),
	}
}

func (m *watchModel) resize(w, h int) {
	m.width = w
	m.height = h
}

func (m watchModel) typing() bool { return m.adding }

func (m watchModel) load() tea.Cmd {
	ctrl := m.deps.Watchlist
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return watchLoadedMsg{err: ctrl.Load(ctx)}
	}
}

// fetchChart snapshots the current request and resolves it off the update
// loop. Stale results are dropped on apply.
func (m watchModel) fetchChart() tea.Cmd {
	ctrl := m.deps.Watchlist
	req := ctrl.ChartRequest()
	if len(req.Symbols) == 0 {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		res, err := ctrl.FetchChart(ctx, req)
		return chartMsg{res: res, err: err}
	}
}

func (m watchModel) update(msg tea.Msg) (watchModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case watchLoadedMsg:
		m.loaded = true
		m.busy = false
		if msg.err != nil {
			m.errMsg = errText(msg.err)
			return m, nil
		}
		m.errMsg = ""
		m.clampCursor()
		return m, m.fetchChart()

	case chartMsg:
		if msg.err != nil {
			m.errMsg = errText(msg.err)
			return m, nil
		}
		m.deps.Watchlist.ApplyChart(msg.res)
		return m, nil

	case mutationMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = errText(msg.err)
			return m, nil
		}
		m.errMsg = ""
		m.clampCursor()
		return m, m.fetchChart()

	case quotesUpdatedMsg:
		// Quote cache already holds the fresh values; rendering picks them up.
		return m, nil

	case companyMsg:
		m.paneLoading = false
		if msg.err != nil {
			m.errMsg = errText(msg.err)
			return m, nil
		}
		if m.pane == paneInfo && msg.symbol == m.paneSymbol {
			m.profile = msg.profile
		}
		return m, nil

	case sentimentMsg:
		m.paneLoading = false
		if msg.err != nil {
			m.errMsg = errText(msg.err)
			return m, nil
		}
		if m.pane == paneSentiment && msg.symbol == m.paneSymbol {
			m.sentiment = msg.series
		}
		return m, nil

	case forecastMsg:
		m.paneLoading = false
		if msg.err != nil {
			m.errMsg = errText(msg.err)
			return m, nil
		}
		if m.pane == paneForecast && msg.symbol == m.paneSymbol {
			m.forecast = msg.pred
		}
		return m, nil

	case symbolNewsMsg:
		m.paneLoading = false
		if msg.err != nil {
			m.errMsg = errText(msg.err)
		}
		return m, nil
	}

	if m.adding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) handleKey(msg tea.KeyMsg) (watchModel, tea.Cmd) {
	if m.adding {
		switch msg.String() {
		case "esc":
			m.adding = false
			m.input.Reset()
			return m, nil
		case "enter":
			raw := m.input.Value()
			m.adding = false
			m.input.Reset()
			if strings.TrimSpace(raw) == "" {
				return m, nil
			}
			m.busy = true
			ctrl := m.deps.Watchlist
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return mutationMsg{err: ctrl.AddSymbol(ctx, raw)}
			}
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	entries := m.deps.Watchlist.Entries()
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, m.selectCursor(entries)
	case "down", "j":
		if m.cursor < len(entries)-1 {
			m.cursor++
		}
		return m, m.selectCursor(entries)
	case "enter":
		// Explicit selection leaves compare mode.
		if m.cursor >= len(entries) {
			return m, nil
		}
		if err := m.deps.Watchlist.Select(entries[m.cursor].Symbol); err != nil {
			return m, nil
		}
		return m, m.fetchChart()
	case "a":
		m.adding = true
		m.errMsg = ""
		return m, m.input.Focus()
	case "x":
		if m.busy || m.cursor >= len(entries) {
			return m, nil
		}
		m.busy = true
		sym := entries[m.cursor].Symbol
		ctrl := m.deps.Watchlist
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return mutationMsg{err: ctrl.RemoveSymbol(ctx, sym)}
		}
	case "c":
		if m.cursor >= len(entries) {
			return m, nil
		}
		if err := m.deps.Watchlist.ToggleCompare(entries[m.cursor].Symbol); err != nil {
			m.errMsg = errText(err)
			return m, nil
		}
		return m, m.fetchChart()
	case "p":
		if err := m.deps.Watchlist.SetPeriod(nextPeriod(m.deps.Watchlist.Period())); err != nil {
			m.errMsg = errText(err)
			return m, nil
		}
		return m, m.fetchChart()
	case "i":
		return m.openPane(paneInfo, entries)
	case "s":
		return m.openPane(paneSentiment, entries)
	case "n":
		return m.openPane(paneNews, entries)
	case "f":
		return m.openPane(paneForecast, entries)
	case "m":
		if m.pane == paneNews && !m.articles.Loading() && m.articles.HasMore() {
			loader := m.articles
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				_, err := loader.LoadMore(ctx)
				return symbolNewsMsg{err: err}
			}
		}
		return m, nil
	case "esc":
		m.pane = paneNone
		m.paneSymbol = ""
		return m, nil
	case "r":
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.load()
	}
	return m, nil
}

// selectCursor follows the cursor with the chart selection, except while
// comparing: there the cursor roams freely so more symbols can be toggled
// into the set.
func (m *watchModel) selectCursor(entries []backend.WatchlistEntry) tea.Cmd {
	if m.cursor >= len(entries) || m.deps.Watchlist.CompareMode() {
		return nil
	}
	if err := m.deps.Watchlist.Select(entries[m.cursor].Symbol); err != nil {
		return nil
	}
	return m.fetchChart()
}

// openPane toggles a research panel for the symbol under the cursor and
// kicks off its fetch.
func (m watchModel) openPane(p pane, entries []backend.WatchlistEntry) (watchModel, tea.Cmd) {
	if m.cursor >= len(entries) {
		return m, nil
	}
	sym := entries[m.cursor].Symbol
	if m.pane == p && m.paneSymbol == sym {
		m.pane = paneNone
		m.paneSymbol = ""
		return m, nil
	}
	m.pane = p
	m.paneSymbol = sym
	m.paneLoading = true
	m.errMsg = ""

	client := m.deps.Client
	days := m.deps.SentimentDays
	switch p {
	case paneInfo:
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			profile, err := client.CompanyInfo(ctx, sym)
			return companyMsg{symbol: sym, profile: profile, err: err}
		}
	case paneSentiment:
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			series, err := client.NewsSentiment(ctx, sym, days)
			return sentimentMsg{symbol: sym, series: series, err: err}
		}
	case paneForecast:
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
			defer cancel()
			pred, err := client.Predict(ctx, sym)
			return forecastMsg{symbol: sym, pred: pred, err: err}
		}
	case paneNews:
		m.articles.Reset(func(ctx context.Context, page int) (newsfeed.Page[backend.Article], error) {
			ap, err := client.NewsArticles(ctx, sym, days, page)
			if err != nil {
				return newsfeed.Page[backend.Article]{}, err
			}
			return newsfeed.Page[backend.Article]{
				Items:       ap.Articles,
				CurrentPage: ap.CurrentPage,
				TotalPages:  ap.TotalPages,
				TotalItems:  ap.TotalArticles,
			}, nil
		})
		loader := m.articles
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			_, err := loader.LoadMore(ctx)
			return symbolNewsMsg{err: err}
		}
	}
	return m, nil
}

func nextPeriod(p watchlist.Period) watchlist.Period {
	for i, cand := range watchlist.Periods {
		if cand == p {
			return watchlist.Periods[(i+1)%len(watchlist.Periods)]
		}
	}
	return watchlist.Period1Mo
}

func (m watchModel) view() string {
	if !m.loaded {
		return "\n  " + dimStyle.Render("loading watchlist...")
	}

	var b strings.Builder
	ctrl := m.deps.Watchlist
	entries := ctrl.Entries()
	compare := map[string]bool{}
	for _, s := range ctrl.CompareSymbols() {
		compare[s] = true
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Watchlist"))
	if ctrl.CompareMode() {
		b.WriteString(compareStyle.Render("  [compare]"))
	}
	b.WriteString("\n")

	if len(entries) == 0 {
		b.WriteString("  " + dimStyle.Render("(empty, press a to add a symbol)") + "\n")
	} else {
		b.WriteString(colHeaderStyle.Render(fmt.Sprintf("   %-8s %-26s %10s %20s %10s",
			"Symbol", "Name", "Price", "Change", "Volume")) + "\n")
		for i, e := range entries {
			hl := i == m.cursor
			mark := " "
			if compare[e.Symbol] {
				mark = "+"
			}
			style := symbolStyle
			switch {
			case compare[e.Symbol] && hl:
				style = compareHlStyle
			case compare[e.Symbol]:
				style = compareStyle
			case hl:
				style = symbolHlStyle
			}
			b.WriteString(hlStyle(dimStyle, hl).Render(" " + mark))
			b.WriteString(hlStyle(style, hl).Render(fmt.Sprintf(" %-8s", e.Symbol)))

			b.WriteString(hlStyle(priceStyle, hl).Render(fmt.Sprintf(" %-26s", truncate(e.Name, 26))))

			if q, ok := ctrl.Quote(e.Symbol); ok {
				b.WriteString(hlStyle(priceStyle, hl).Render(fmt.Sprintf(" %10s", dashboard.FormatPrice(q.Price))))
				b.WriteString(hlStyle(changeStyle(q.Change), hl).Render(fmt.Sprintf(" %20s",
					dashboard.FormatChange(q.Change, q.ChangePercent))))
				b.WriteString(hlStyle(dimStyle, hl).Render(fmt.Sprintf(" %10s", dashboard.FormatVolume(q.Volume))))
			} else {
				b.WriteString(hlStyle(dimStyle, hl).Render(fmt.Sprintf(" %10s %20s %10s", "—", "—", "—")))
			}
			b.WriteString("\n")
		}
	}

	if m.adding {
		b.WriteString("\n  add symbol: " + m.input.View() + "\n")
	}

	// Period selector.
	b.WriteString("\n  ")
	for i, p := range watchlist.Periods {
		if i > 0 {
			b.WriteString(" ")
		}
		if p == ctrl.Period() {
			b.WriteString(periodActive.Render(" " + string(p) + " "))
		} else {
			b.WriteString(periodStyle.Render(" " + string(p) + " "))
		}
	}
	b.WriteString("\n\n")

	chartH := 10
	if m.height > 34 {
		chartH = 14
	}
	b.WriteString(renderChart(ctrl.Series(), m.width-4, chartH))
	b.WriteString("\n")

	if m.errMsg != "" {
		b.WriteString("\n  " + errorStyle.Render(m.errMsg) + "\n")
	}
	if m.busy {
		b.WriteString("\n  " + dimStyle.Render("saving...") + "\n")
	}

	if m.pane != paneNone {
		b.WriteString("\n")
		b.WriteString(m.paneView())
	}
	return b.String()
}

func (m watchModel) paneView() string {
	if m.paneLoading {
		return "  " + dimStyle.Render("loading...")
	}
	var b strings.Builder
	switch m.pane {
	case paneInfo:
		p := m.profile
		b.WriteString(sectionStyle.Render("  "+p.Symbol+" · "+p.Name) + "\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s / %s   %s", p.Sector, p.Industry, p.Website)) + "\n")
		b.WriteString("  " + wrap(p.Summary, m.width-4, 4) + "\n")
		b.WriteString(renderFinancials(p.Financials, m.width))

	case paneSentiment:
		b.WriteString(sectionStyle.Render(fmt.Sprintf("  %s · news sentiment, last %d days",
			m.paneSymbol, m.deps.SentimentDays)) + "\n")
		s := m.sentiment
		if len(s.Dates) == 0 {
			b.WriteString("  " + dimStyle.Render("(no scored articles)") + "\n")
			break
		}
		maxBar := m.width - 30
		if maxBar > 40 {
			maxBar = 40
		}
		peak := 1
		for i := range s.Dates {
			if c := s.PositiveCounts[i] + s.NegativeCounts[i]; c > peak {
				peak = c
			}
		}
		for i, d := range s.Dates {
			pos := s.PositiveCounts[i] * maxBar / peak
			neg := s.NegativeCounts[i] * maxBar / peak
			b.WriteString(dimStyle.Render("  " + d + " "))
			b.WriteString(positiveBadge.Render(strings.Repeat("█", pos)))
			b.WriteString(negativeBadge.Render(strings.Repeat("█", neg)))
			b.WriteString(dimStyle.Render(fmt.Sprintf(" +%d/-%d", s.PositiveCounts[i], s.NegativeCounts[i])))
			b.WriteString("\n")
		}

	case paneNews:
		items := m.articles.Items()
		b.WriteString(sectionStyle.Render(fmt.Sprintf("  %s · articles (%d of %d)",
			m.paneSymbol, len(items), m.articles.TotalItems())) + "\n")
		for _, a := range items {
			b.WriteString(dimStyle.Render("  " + a.Date + " "))
			b.WriteString(sentimentStyle(a.Sentiment).Render(fmt.Sprintf("[%s] ", a.Sentiment)))
			title := a.Title
			if max := m.width - 40; max > 10 {
				title = truncate(title, max)
			}
			b.WriteString(title)
			b.WriteString(dimStyle.Render("  " + a.Source))
			b.WriteString("\n")
		}
		if m.articles.HasMore() {
			b.WriteString("  " + dimStyle.Render("press m for more") + "\n")
		}

	case paneForecast:
		p := m.forecast
		b.WriteString(sectionStyle.Render("  "+m.paneSymbol+" · price forecast") + "\n")
		if len(p.PredictedPrices) == 0 {
			b.WriteString("  " + dimStyle.Render("(no forecast available)") + "\n")
			break
		}
		series := []watchlist.Series{
			{Symbol: "actual", Color: "#4BC0C0", Points: p.HistoricalPrices, Labels: p.HistoricalDates},
			{Symbol: "forecast", Color: "#FF6384", Points: p.PredictedPrices, Labels: p.Dates},
		}
		b.WriteString(renderChart(series, m.width-4, 8))
		b.WriteString("\n")
		last := p.PredictedPrices[len(p.PredictedPrices)-1]
		b.WriteString(dimStyle.Render(fmt.Sprintf("  projected close %s: %s",
			p.Dates[len(p.Dates)-1], dashboard.FormatPrice(last))))
		b.WriteString("\n")
	}
	return b.String()
}

// financialMetrics maps the annual statement rows to the keys that feed
// them, in display order. Revenue falls back to Operating Revenue when
// Total Revenue is absent.
var financialMetrics = []struct {
	label string
	keys  []string
	eps   bool
}{
	{"Revenue", []string{"Total Revenue", "Operating Revenue"}, false},
	{"Gross Profit", []string{"Gross Profit"}, false},
	{"Operating Income", []string{"Operating Income"}, false},
	{"Net Income", []string{"Net Income"}, false},
	{"R&D Expenses", []string{"Research And Development"}, false},
	{"Operating Expenses", []string{"Operating Expense"}, false},
	{"EPS (Basic)", []string{"Basic EPS"}, true},
	{"EPS (Diluted)", []string{"Diluted EPS"}, true},
}

// renderFinancials lays out the annual financial statements as one column
// per fiscal year, newest first, as many as the width allows.
func renderFinancials(fin map[string]map[string]*float64, width int) string {
	if len(fin) == 0 {
		return ""
	}
	dates := make([]string, 0, len(fin))
	for d := range fin {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	cols := (width - 24) / 12
	if cols < 1 {
		cols = 1
	}
	if cols > len(dates) {
		cols = len(dates)
	}
	dates = dates[:cols]

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", 22))
	for _, d := range dates {
		b.WriteString(colHeaderStyle.Render(fmt.Sprintf("%12s", fiscalYear(d))))
	}
	b.WriteString("\n")
	for _, row := range financialMetrics {
		b.WriteString(labelStyle.Render(fmt.Sprintf("  %-20s", row.label)))
		for _, d := range dates {
			b.WriteString(priceStyle.Render(fmt.Sprintf("%12s", financialCell(fin[d], row.keys, row.eps))))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// fiscalYear reduces a statement date like "2023-09-30" to its year.
func fiscalYear(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return date
}

func financialCell(row map[string]*float64, keys []string, eps bool) string {
	var v *float64
	for _, k := range keys {
		if x, ok := row[k]; ok && x != nil {
			v = x
			break
		}
	}
	if v == nil {
		return "N/A"
	}
	if eps {
		return fmt.Sprintf("$%.2f", *v)
	}
	return dashboard.FormatMoney(*v)
}

// truncate shortens s to at most max runes, ending in an ellipsis. Byte
// slicing would split multibyte names.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// wrap folds s to the given width with an indent on continuation lines.
func wrap(s string, width, indent int) string {
	if width < 20 {
		width = 20
	}
	words := strings.Fields(s)
	var b strings.Builder
	line := 0
	pad := strings.Repeat(" ", indent)
	for _, w := range words {
		if line > 0 && line+len(w)+1 > width {
			b.WriteString("\n" + pad)
			line = 0
		} else if line > 0 {
			b.WriteString(" ")
			line++
		}
		b.WriteString(w)
		line += len(w)
	}
	return b.String()
}

func (m *watchModel) clampCursor() {
	n := len(m.deps.Watchlist.Entries())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
