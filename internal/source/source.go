// Package source streams raw vendor records from the transport configured in vendor profile.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/decoder"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/fetcher"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/vendor"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/vendorapi"
	"golang.org/x/sync/errgroup"
)

//go:generate mockery --name Downloader --filename downloader.go
//go:generate mockery --name BatchFetcher --filename batch_fetcher.go
//go:generate mockery --name CodeLister --filename code_lister.go
//go:generate mockery --name Scraper --filename scraper.go

// Source streams raw records of single vendor run into output.
// Record errors are sent with results, returned error aborts the run.
type Source interface {
	Fetch(ctx context.Context, output chan<- models.FetchResult) error
}

// Decoder decodes vendor file into raw records.
type Decoder interface {
	Decode(ctx context.Context, file io.Reader, output chan<- models.FetchResult) error
}

// CodeLister lists vendor identifiers known to the catalog.
type CodeLister interface {
	ListVendorCodes(ctx context.Context, vendorID string) ([]string, error)
}

// Deps are shared dependencies of sources.
type Deps struct {
	HTTPClient *http.Client
	UserAgent  string
	// Timeout of ssh dial and handshake.
	Timeout time.Duration
	// DownloadDir keeps downloaded and partially downloaded sftp files.
	DownloadDir string
	Catalog     CodeLister
	// Scrapers are registered scrapers by name.
	Scrapers map[string]Scraper
	// Getenv resolves secrets, os.Getenv when nil.
	Getenv func(string) string
}

// New builds source of vendor profile.
func New(profile *vendor.Profile, deps Deps) (Source, error) {
	getenv := deps.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	src := profile.Source
	layout := stampLayout(profile)

	switch src.Kind {
	case vendor.KindSFTP:
		dec, err := NewDecoder(profile.ID, src)
		if err != nil {
			return nil, err
		}

		cfg := fetcher.SFTPConfig{
			Host:       src.Host,
			Port:       src.Port,
			User:       src.User,
			KnownHosts: src.KnownHosts,
			Timeout:    deps.Timeout,
		}
		if src.PasswordEnv != "" {
			cfg.Password = getenv(src.PasswordEnv)
		}
		if src.KeyFileEnv != "" {
			key, err := os.ReadFile(getenv(src.KeyFileEnv))
			if err != nil {
				return nil, fmt.Errorf("can't read %s private key: %w", profile.ID, err)
			}
			cfg.PrivateKey = key
		}

		dialer, err := fetcher.NewSFTPDialer(cfg)
		if err != nil {
			return nil, fmt.Errorf("can't create %s sftp dialer: %w", profile.ID, err)
		}

		return NewSFTP(
			fetcher.NewDownloader(dialer, profile.Retry),
			dec,
			src.Files,
			filepath.Join(deps.DownloadDir, profile.ID),
			layout,
		), nil
	case vendor.KindHTTP:
		dec, err := NewDecoder(profile.ID, src)
		if err != nil {
			return nil, err
		}
		return NewHTTP(fetcher.NewFetcher(deps.HTTPClient, deps.UserAgent), dec, src.URL, profile.Retry, layout), nil
	case vendor.KindREST:
		client := vendorapi.NewClient(deps.HTTPClient, src.URL, tokenOf(src.TokenEnv, getenv), deps.UserAgent)
		return NewREST(profile.ID, deps.Catalog, client, profile.Batch, profile.Retry, layout), nil
	case vendor.KindScraped:
		scraper, ok := deps.Scrapers[src.Scraper]
		if !ok {
			return nil, fmt.Errorf("scraper %q of %s isn't registered", src.Scraper, profile.ID)
		}
		return NewScraped(scraper, layout), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// NewDecoder returns decoder of file source format.
func NewDecoder(vendorID string, src vendor.SourceConfig) (Decoder, error) {
	switch src.Format {
	case vendor.FormatCSV:
		return decoder.NewCSV(src.Layout(vendorID), src.Encoding, src.Delimiter)
	case vendor.FormatXLSX:
		return decoder.NewXLSX(src.Layout(vendorID), src.Sheet), nil
	default:
		return nil, fmt.Errorf("unknown file format %q", src.Format)
	}
}

func tokenOf(env string, getenv func(string) string) string {
	if env == "" {
		return ""
	}
	return getenv(env)
}

func stampLayout(profile *vendor.Profile) string {
	if profile.Normalize.TimestampLayout != "" {
		return profile.Normalize.TimestampLayout
	}
	return time.RFC3339
}

// stamped runs produce and forwards its results into output,
// setting source timestamp of records which don't carry one.
func stamped(
	ctx context.Context,
	output chan<- models.FetchResult,
	timestamp time.Time,
	layout string,
	produce func(ctx context.Context, results chan<- models.FetchResult) error,
) error {
	results := make(chan models.FetchResult)
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(results)
		return produce(egCtx, results)
	})

	eg.Go(func() error {
		for result := range results {
			if result.Record != nil && result.Record[models.FieldTimestamp] == "" {
				result.Record[models.FieldTimestamp] = timestamp.Format(layout)
			}
			if err := emit(egCtx, output, result); err != nil {
				return err
			}
		}
		return nil
	})

	return eg.Wait()
}

// emit sends result into output unless ctx is done.
func emit(ctx context.Context, output chan<- models.FetchResult, result models.FetchResult) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case output <- result:
		return nil
	}
}

// failed reports error of whole transfer unit which doesn't abort the run.
func failed(ctx context.Context, output chan<- models.FetchResult, err error) error {
	if platform.IsPermanent(err) {
		return err
	}
	return emit(ctx, output, models.FetchResult{Error: err})
}

// Quoter quotes shipping of vendor item into destination.
type Quoter interface {
	Quote(ctx context.Context, vendorKey, destination string) (*models.Shipping, error)
}

// Factory builds sources and quoters of vendor profiles.
type Factory struct {
	deps Deps
}

// NewFactory returns new Factory.
func NewFactory(deps Deps) *Factory {
	return &Factory{deps: deps}
}

// Source returns source of profile.
func (f *Factory) Source(profile *vendor.Profile) (Source, error) {
	return New(profile, f.deps)
}

// Check returns error listing scraped vendors whose scraper isn't registered.
func (f *Factory) Check(profiles ...*vendor.Profile) error {
	var errs []error
	for _, profile := range profiles {
		if profile.Source.Kind != vendor.KindScraped {
			continue
		}
		if _, ok := f.deps.Scrapers[profile.Source.Scraper]; !ok {
			errs = append(errs, fmt.Errorf("scraper %q of %s isn't registered", profile.Source.Scraper, profile.ID))
		}
	}

	return errors.Join(errs...)
}

// Quoter returns shipping quoter of profile, nil when profile has no shipping destinations.
func (f *Factory) Quoter(profile *vendor.Profile) Quoter {
	if len(profile.Shipping.Destinations) == 0 {
		return nil
	}

	getenv := f.deps.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	return vendorapi.NewQuoteClient(f.deps.HTTPClient, profile.Shipping.URL, tokenOf(profile.Shipping.TokenEnv, getenv), f.deps.UserAgent)
}
