package web

import (
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/kbxbnb/BnBot/internal/storage"
)

// OpenPosition is an open trade row enriched with the latest price.
type OpenPosition struct {
	ID              uint
	Ticker          string
	Headline        string
	Sentiment       string
	EntryPrice      float64
	EntryAmount     float64
	EntryTime       *time.Time
	TrailingStopPct float64
	MarketCloseExit bool
	PeakPrice       float64
	CurrentPrice    float64
	UnrealizedPnL   float64
}

type DashboardData struct {
	TotalPnL      float64
	DailyPnL      float64
	Settings      storage.Settings
	News          []storage.NewsItem
	OpenPositions []OpenPosition
	CapitalUsage  []storage.CapitalUsageRow
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := DashboardData{Settings: s.repo.LoadSettings()}

	if total, err := s.repo.TotalPnL(); err == nil {
		data.TotalPnL = total
	}
	if daily, err := s.repo.TodayPnL(); err == nil {
		data.DailyPnL = daily
	}
	if items, err := s.repo.TodayNews(10); err == nil {
		data.News = items
	}
	if usage, err := s.repo.TodayCapitalUsage(); err == nil {
		data.CapitalUsage = usage
	}
	if trades, err := s.repo.OpenTrades(); err == nil {
		data.OpenPositions = s.enrichPositions(r, trades)
	}

	s.render(w, "templates/dashboard.html", data)
}

// enrichPositions attaches the latest close and unrealized PnL to each open
// trade. Tickers without bar data keep zero values.
func (s *Server) enrichPositions(r *http.Request, trades []storage.Trade) []OpenPosition {
	result := make([]OpenPosition, 0, len(trades))
	for _, t := range trades {
		op := OpenPosition{
			ID:              t.ID,
			Ticker:          t.Ticker,
			Headline:        t.Headline,
			Sentiment:       t.Sentiment,
			EntryTime:       t.EntryTime,
			TrailingStopPct: t.TrailingStopPct,
			MarketCloseExit: t.MarketCloseExit,
		}
		if t.EntryPrice != nil {
			op.EntryPrice = *t.EntryPrice
		}
		if t.EntryAmount != nil {
			op.EntryAmount = *t.EntryAmount
		}
		if t.PeakPrice != nil {
			op.PeakPrice = *t.PeakPrice
		}

		bars, err := s.market.Bars(r.Context(), t.Ticker, s.config.Trading.BarTimeframe, 10)
		if err == nil && len(bars) > 0 && op.EntryPrice > 0 {
			last := bars[len(bars)-1].Close
			shares := op.EntryAmount / op.EntryPrice
			op.CurrentPrice = last
			op.UnrealizedPnL = (last - op.EntryPrice) * shares
		}
		result = append(result, op)
	}
	return result
}

type HistoryData struct {
	Closed  []storage.Trade
	Skipped []storage.Trade
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	data := HistoryData{}
	if closed, err := s.repo.ClosedTrades(100); err == nil {
		data.Closed = closed
	}
	if skipped, err := s.repo.SkippedTrades(100); err == nil {
		data.Skipped = skipped
	}
	s.render(w, "templates/history.html", data)
}

type LogsData struct {
	PollerHealthy bool
	PollerStatus  string
	Entries       []storage.LogEntry
}

// handleLogs shows provider-call health: the poller counts as healthy when
// the last successful response is at most 90 seconds old.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	data := LogsData{PollerStatus: "no responses yet"}

	if last, err := s.repo.LastResponseAt("benzinga"); err == nil {
		age := time.Since(last)
		data.PollerHealthy = age <= 90*time.Second
		data.PollerStatus = "last response " + strconv.Itoa(int(age.Seconds())) + "s ago"
	}
	if entries, err := s.repo.RecentLogs("benzinga", 25); err == nil {
		data.Entries = entries
	}

	s.render(w, "templates/logs.html", data)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	for _, key := range []string{"capital_mode", "capital_value", "account_size", "paper_trading"} {
		if v := r.FormValue(key); v != "" {
			if err := s.repo.SetSetting(key, v); err != nil {
				s.logger.Error("save setting", "key", key, "error", err)
				http.Error(w, "failed to save settings", http.StatusInternalServerError)
				return
			}
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSetStop(w http.ResponseWriter, r *http.Request) {
	id, ok := s.formTradeID(w, r)
	if !ok {
		return
	}
	pct, err := strconv.ParseFloat(r.FormValue("tsl"), 64)
	if err != nil {
		http.Error(w, "invalid tsl", http.StatusBadRequest)
		return
	}
	if err := s.admin.SetTrailingStop(id, pct); err != nil {
		s.logger.Error("set trailing stop", "trade_id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleMarketCloseToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := s.formTradeID(w, r)
	if !ok {
		return
	}
	enabled := r.FormValue("enabled") == "true" || r.FormValue("enabled") == "1"
	if err := s.admin.SetMarketCloseExit(id, enabled); err != nil {
		s.logger.Error("toggle market close exit", "trade_id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleManualExit closes a trade at the supplied price; without one it
// reuses the entry price as a placeholder.
func (s *Server) handleManualExit(w http.ResponseWriter, r *http.Request) {
	id, ok := s.formTradeID(w, r)
	if !ok {
		return
	}

	var price float64
	if v := r.FormValue("price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "invalid price", http.StatusBadRequest)
			return
		}
		price = p
	} else {
		trade, err := s.repo.GetTrade(id)
		if err != nil || trade.EntryPrice == nil {
			http.Error(w, "trade not found or not open", http.StatusBadRequest)
			return
		}
		price = *trade.EntryPrice
	}

	if err := s.admin.ManualExit(id, price); err != nil {
		s.logger.Error("manual exit", "trade_id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) formTradeID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return 0, false
	}
	id, err := strconv.ParseUint(r.FormValue("trade_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid trade_id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

func (s *Server) render(w http.ResponseWriter, path string, data any) {
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		s.logger.Error("parse template", "path", path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("execute template", "path", path, "error", err)
	}
}
