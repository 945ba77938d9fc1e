package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/fetcher"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
)

// Downloader downloads remote files resuming interrupted transfers.
type Downloader interface {
	DownloadResumable(ctx context.Context, remoteName, localPath string) (*fetcher.Download, error)
}

// SFTP streams records of files downloaded from vendor sftp server.
type SFTP struct {
	downloader Downloader
	decoder    Decoder
	files      []string
	dir        string
	layout     string
}

// NewSFTP returns new SFTP source downloading files into dir.
func NewSFTP(downloader Downloader, decoder Decoder, files []string, dir, timestampLayout string) *SFTP {
	return &SFTP{
		downloader: downloader,
		decoder:    decoder,
		files:      files,
		dir:        dir,
		layout:     timestampLayout,
	}
}

// Fetch downloads and decodes files one by one. File which couldn't be downloaded
// in all attempts is reported as failed result and the next file continues.
// Permanent failures abort the fetch. Records are stamped with remote file modification time.
func (s *SFTP) Fetch(ctx context.Context, output chan<- models.FetchResult) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("can't create download dir: %w", err)
	}

	for _, name := range s.files {
		local := filepath.Join(s.dir, filepath.Base(name))

		download, err := s.downloader.DownloadResumable(ctx, name, local)
		if err != nil {
			if err := failed(ctx, output, err); err != nil {
				return err
			}
			continue
		}

		if err := s.decode(ctx, download, output); err != nil {
			return fmt.Errorf("can't decode %s: %w", name, err)
		}
	}

	return nil
}

func (s *SFTP) decode(ctx context.Context, download *fetcher.Download, output chan<- models.FetchResult) error {
	file, err := os.Open(download.Path)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
		_ = os.Remove(download.Path)
	}()

	return stamped(ctx, output, download.ModTime, s.layout, func(ctx context.Context, results chan<- models.FetchResult) error {
		return s.decoder.Decode(ctx, file, results)
	})
}
