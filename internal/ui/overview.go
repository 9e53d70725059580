package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"marketdesk/internal/backend"
	"marketdesk/internal/dashboard"
	"marketdesk/internal/newsfeed"
)

const overviewReload = 2 * time.Minute

type overviewLoadedMsg struct {
	overview dashboard.Overview
}

type moreNewsMsg struct {
	err error
}

type overviewTickMsg time.Time

type overviewModel struct {
	deps     Deps
	loaded   bool
	loading  bool
	overview dashboard.Overview
	news     *newsfeed.Loader[backend.NewsItem]
	newsErr  error
}

func newOverviewModel(deps Deps) overviewModel {
	client := deps.Client
	return overviewModel{
		deps: deps,
		news: newsfeed.NewLoader(func(ctx context.Context, page int) (newsfeed.Page[backend.NewsItem], error) {
			p, err := client.MarketNews(ctx, page)
			if err != nil {
				return newsfeed.Page[backend.NewsItem]{}, err
			}
			return newsfeed.Page[backend.NewsItem]{
				Items:       p.News,
				CurrentPage: p.CurrentPage,
				TotalPages:  p.TotalPages,
				TotalItems:  p.TotalItems,
			}, nil
		}),
	}
}

func (m overviewModel) load() tea.Cmd {
	agg := m.deps.Aggregator
	news := m.news
	client := m.deps.Client
	news.Reset(func(ctx context.Context, page int) (newsfeed.Page[backend.NewsItem], error) {
		p, err := client.MarketNews(ctx, page)
		if err != nil {
			return newsfeed.Page[backend.NewsItem]{}, err
		}
		return newsfeed.Page[backend.NewsItem]{
			Items:       p.News,
			CurrentPage: p.CurrentPage,
			TotalPages:  p.TotalPages,
			TotalItems:  p.TotalItems,
		}, nil
	})
	return tea.Batch(
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			ov := agg.Load(ctx)
			return overviewLoadedMsg{overview: ov}
		},
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_, err := news.LoadMore(ctx)
			return moreNewsMsg{err: err}
		},
		overviewTick(),
	)
}

func overviewTick() tea.Cmd {
	return tea.Tick(overviewReload, func(t time.Time) tea.Msg {
		return overviewTickMsg(t)
	})
}

func (m overviewModel) update(msg tea.Msg) (overviewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "m":
			if m.news.Loading() || !m.news.HasMore() {
				return m, nil
			}
			news := m.news
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				_, err := news.LoadMore(ctx)
				return moreNewsMsg{err: err}
			}
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.load()
		}

	case overviewLoadedMsg:
		m.loaded = true
		m.loading = false
		m.overview = msg.overview
		return m, nil

	case moreNewsMsg:
		m.newsErr = msg.err
		if msg.err != nil {
			m.deps.Log.Warn("loading news page", "error", msg.err)
		}
		return m, nil

	case overviewTickMsg:
		if m.loading {
			return m, overviewTick()
		}
		m.loading = true
		agg := m.deps.Aggregator
		return m, tea.Batch(
			func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return overviewLoadedMsg{overview: agg.Load(ctx)}
			},
			overviewTick(),
		)
	}
	return m, nil
}

func (m overviewModel) view(width int) string {
	if !m.loaded {
		return "\n  " + dimStyle.Render("loading market overview...")
	}

	var b strings.Builder
	ov := m.overview

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Market Indices"))
	b.WriteString("\n")
	if ov.Errors.Indices != nil {
		b.WriteString("  " + errorStyle.Render(errText(ov.Errors.Indices)) + "\n")
	} else {
		b.WriteString(colHeaderStyle.Render(fmt.Sprintf("  %-14s %12s %22s", "Index", "Price", "Change")) + "\n")
		for _, name := range dashboard.SortedIndexNames(ov.Indices) {
			q := ov.Indices[name]
			b.WriteString(fmt.Sprintf("  %-14s ", name))
			b.WriteString(priceStyle.Render(fmt.Sprintf("%12s", dashboard.FormatPrice(q.Price))))
			b.WriteString(changeStyle(q.Change).Render(fmt.Sprintf(" %21s",
				dashboard.FormatChange(q.Change, q.ChangePercent))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Market Movers"))
	b.WriteString("\n")
	if ov.Errors.Movers != nil {
		b.WriteString("  " + errorStyle.Render(errText(ov.Errors.Movers)) + "\n")
	} else {
		writeMovers(&b, "Top Gainers", ov.Movers.TopGainers, gainStyle)
		writeMovers(&b, "Top Losers", ov.Movers.TopLosers, lossStyle)
		writeMovers(&b, "Most Active", ov.Movers.MostActive, labelStyle)
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  IPO Calendar"))
	b.WriteString("\n")
	if ov.Errors.IPOs != nil {
		b.WriteString("  " + errorStyle.Render(errText(ov.Errors.IPOs)) + "\n")
	} else if len(ov.IPOs) == 0 {
		b.WriteString("  " + dimStyle.Render("(no recent or upcoming listings)") + "\n")
	} else {
		b.WriteString(colHeaderStyle.Render(fmt.Sprintf("  %-12s %-8s %-28s %-10s %12s %10s",
			"Date", "Symbol", "Name", "Status", "Price", "Shares")) + "\n")
		for i, ev := range ov.IPOs {
			if i >= 8 {
				b.WriteString("  " + dimStyle.Render(fmt.Sprintf("(+%d more)", len(ov.IPOs)-i)) + "\n")
				break
			}
			name := truncate(ev.Name, 28)
			b.WriteString(fmt.Sprintf("  %-12s ", ev.Date))
			b.WriteString(symbolStyle.Render(fmt.Sprintf("%-8s", ev.Symbol)))
			b.WriteString(fmt.Sprintf(" %-28s %-10s %12s %10s\n",
				name, ev.Status, ev.Price, dashboard.FormatShares(ev.NumberOfShares)))
		}
	}

	b.WriteString("\n")
	items := m.news.Items()
	label := fmt.Sprintf("  Market News (%d of %d)", len(items), m.news.TotalItems())
	b.WriteString(sectionStyle.Render(label))
	b.WriteString("\n")
	if m.newsErr != nil && len(items) == 0 {
		b.WriteString("  " + errorStyle.Render(errText(m.newsErr)) + "\n")
	}
	for _, n := range items {
		ts := time.Unix(n.Datetime, 0).UTC().Format("Jan 02 15:04")
		head := n.Headline
		if max := width - 26; max > 10 {
			head = truncate(head, max)
		}
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s  ", ts)))
		b.WriteString(head)
		b.WriteString(dimStyle.Render("  " + n.Source))
		b.WriteString("\n")
	}
	if m.news.Loading() {
		b.WriteString("  " + dimStyle.Render("loading more...") + "\n")
	} else if m.news.HasMore() {
		b.WriteString("  " + dimStyle.Render("press m for more") + "\n")
	}

	return b.String()
}

func writeMovers(b *strings.Builder, label string, movers []backend.Mover, style lipgloss.Style) {
	b.WriteString(labelStyle.Render("   " + label))
	b.WriteString("\n")
	if len(movers) == 0 {
		b.WriteString("   " + dimStyle.Render("(none)") + "\n")
		return
	}
	b.WriteString(colHeaderStyle.Render(fmt.Sprintf("   %-8s %10s %10s %10s %12s",
		"Symbol", "Price", "Change", "Change%", "Volume")) + "\n")
	for i, mv := range movers {
		if i >= 5 {
			break
		}
		b.WriteString(symbolStyle.Render(fmt.Sprintf("   %-8s", mv.Ticker)))
		b.WriteString(fmt.Sprintf(" %10s ", mv.Price))
		b.WriteString(style.Render(fmt.Sprintf("%10s %10s", mv.ChangeAmount, mv.ChangePercentage)))
		b.WriteString(fmt.Sprintf(" %12s\n", mv.Volume))
	}
}
