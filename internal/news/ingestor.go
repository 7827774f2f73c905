package news

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kbxbnb/BnBot/internal/logger"
	"github.com/kbxbnb/BnBot/internal/storage"
)

const logComponent = "benzinga"

// Ingestor runs one fetch-normalize-persist cycle per invocation. Every
// provider call is mirrored into the logs table so the log viewer can report
// poller health.
type Ingestor struct {
	client *Client
	repo   *storage.Repository
	logger *logger.Logger
}

func NewIngestor(client *Client, repo *storage.Repository, log *logger.Logger) *Ingestor {
	return &Ingestor{client: client, repo: repo, logger: log}
}

func (in *Ingestor) logDB(level, event, message string) {
	if err := in.repo.AppendLog(level, logComponent, event, message, ""); err != nil {
		in.logger.Error("append operational log", "event", event, "error", err)
	}
}

// RunOnce performs a single ingest cycle. Transport and parse failures are
// logged and swallowed; the next scheduled cycle is the retry.
func (in *Ingestor) RunOnce(ctx context.Context) error {
	reqMsg, _ := json.Marshal(map[string]any{"url": newsBaseURL, "pagesize": in.client.pageSize})
	in.logDB("API", "REQUEST", string(reqMsg))

	res, err := in.client.FetchLatest(ctx)
	if err != nil {
		if res == nil {
			in.logDB("ERROR", "REQUEST_ERROR", err.Error())
		} else {
			in.logDB("ERROR", "RESPONSE_ERROR", err.Error())
		}
		return fmt.Errorf("fetch news: %w", err)
	}

	sample := make([]string, 0, 5)
	for i := 0; i < len(res.Articles) && i < 5; i++ {
		sample = append(sample, res.Articles[i].Headline)
	}
	respMsg, _ := json.Marshal(map[string]any{
		"status":        res.Status,
		"elapsed_ms":    res.ElapsedMS,
		"items":         res.RawCount,
		"titles_sample": sample,
	})
	in.logDB("API", "RESPONSE", string(respMsg))

	inserted, err := in.repo.InsertNews(Normalize(res.Articles))
	if err != nil {
		in.logDB("ERROR", "PERSIST_ERROR", err.Error())
		return fmt.Errorf("persist news: %w", err)
	}

	in.logDB("INFO", "INGEST_SUMMARY", fmt.Sprintf("Inserted %d news rows.", inserted))
	in.logger.Debug("news ingested", "fetched", len(res.Articles), "inserted", inserted)
	return nil
}

// Normalize fans articles out to one row per ticker, carrying the provider
// sentiment tag when present. Duplicate (ticker, headline) pairs are dropped
// later by the unique index.
func Normalize(articles []Article) []storage.NewsItem {
	var items []storage.NewsItem
	for _, a := range articles {
		for _, ticker := range a.Tickers {
			item := storage.NewsItem{
				Ticker:          ticker,
				Headline:        a.Headline,
				SentimentSource: "benzinga",
				NewsTime:        a.CreatedAt,
			}
			if a.Sentiment != "" {
				s := a.Sentiment
				item.Sentiment = &s
			}
			items = append(items, item)
		}
	}
	return items
}
