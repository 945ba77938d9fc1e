package source

import (
	"context"
	"fmt"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
)

// Scraper collects vendor records from scraped pages.
type Scraper interface {
	Scrape(ctx context.Context) ([]models.RawRecord, error)
}

// Scraped streams records collected by scraper.
type Scraped struct {
	scraper Scraper
	layout  string
	now     func() time.Time
}

// NewScraped returns new Scraped source.
func NewScraped(scraper Scraper, timestampLayout string) *Scraped {
	return &Scraped{
		scraper: scraper,
		layout:  timestampLayout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Fetch sends scraped records stamped with scrape time.
func (s *Scraped) Fetch(ctx context.Context, output chan<- models.FetchResult) error {
	records, err := s.scraper.Scrape(ctx)
	if err != nil {
		return fmt.Errorf("can't scrape records: %w", err)
	}

	scraped := s.now().Format(s.layout)
	for _, record := range records {
		if record[models.FieldTimestamp] == "" {
			record = cloneRecord(record)
			record[models.FieldTimestamp] = scraped
		}
		if err := emit(ctx, output, models.FetchResult{Record: record}); err != nil {
			return err
		}
	}

	return nil
}

func cloneRecord(record models.RawRecord) models.RawRecord {
	clone := make(models.RawRecord, len(record)+1)
	for key, value := range record {
		clone[key] = value
	}
	return clone
}
