package backend

// Token is the response to a successful credential exchange.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// IndexQuote is one tracked market index.
type IndexQuote struct {
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// Mover is a single entry in the gainers/losers/most-active lists. The
// upstream feed delivers numeric fields as strings and they are passed
// through untouched.
type Mover struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
	Volume           string `json:"volume"`
}

// Movers groups the three mover lists.
type Movers struct {
	TopGainers []Mover `json:"top_gainers"`
	TopLosers  []Mover `json:"top_losers"`
	MostActive []Mover `json:"most_active"`
}

// NewsItem is one general market headline.
type NewsItem struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Image    string `json:"image"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// NewsPage is one page of the general market news feed.
type NewsPage struct {
	News        []NewsItem `json:"news"`
	TotalItems  int        `json:"total_items"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
}

// IPOEvent is one upcoming or recent listing.
type IPOEvent struct {
	Date             string  `json:"date"`
	Exchange         string  `json:"exchange"`
	Name             string  `json:"name"`
	NumberOfShares   float64 `json:"numberOfShares"`
	Price            string  `json:"price"`
	Status           string  `json:"status"`
	Symbol           string  `json:"symbol"`
	TotalSharesValue float64 `json:"totalSharesValue"`
}

type ipoCalendar struct {
	IPOCalendar []IPOEvent `json:"ipoCalendar"`
}

// WatchlistEntry pairs a symbol with its display name.
type WatchlistEntry struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type watchlistBody struct {
	Symbols []string `json:"symbols"`
}

// Quote is per-symbol market data with an attached price history for the
// requested period.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	AvgVolume3M   int64     `json:"avg_volume_3m"`
	MarketCap     string    `json:"market_cap"`
	PriceHistory  []float64 `json:"price_history"`
	Timestamps    []string  `json:"timestamps"`
	Period        string    `json:"period"`
}

// CompanyProfile is the descriptive and fundamental block for one symbol.
// Financial statements arrive keyed by report date then line item, with nil
// for values the upstream source omits.
type CompanyProfile struct {
	Symbol     string                         `json:"symbol"`
	Name       string                         `json:"name"`
	Sector     string                         `json:"sector"`
	Industry   string                         `json:"industry"`
	Website    string                         `json:"website"`
	Summary    string                         `json:"longBusinessSummary"`
	Financials map[string]map[string]*float64 `json:"financials"`
}

// SentimentSeries is the per-day positive/negative article counts for one
// symbol. The three slices are index-aligned.
type SentimentSeries struct {
	Dates          []string `json:"dates"`
	PositiveCounts []int    `json:"positive_counts"`
	NegativeCounts []int    `json:"negative_counts"`
}

// Article is one scored headline for a specific symbol.
type Article struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Source     string `json:"source"`
	Sentiment  string `json:"sentiment"`
	Date       string `json:"date"`
	URLToImage string `json:"urlToImage"`
}

// ArticlePage is one page of scored articles.
type ArticlePage struct {
	Articles      []Article `json:"articles"`
	TotalArticles int       `json:"total_articles"`
	CurrentPage   int       `json:"current_page"`
	TotalPages    int       `json:"total_pages"`
}

// Prediction is the model forecast for one symbol: a trailing window of
// actual closes followed by the projected closes.
type Prediction struct {
	Symbol           string    `json:"symbol"`
	HistoricalDates  []string  `json:"historical_dates"`
	HistoricalPrices []float64 `json:"historical_prices"`
	Dates            []string  `json:"dates"`
	PredictedPrices  []float64 `json:"predicted_prices"`
}
