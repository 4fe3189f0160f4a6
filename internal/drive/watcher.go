package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/utasoy/market-reconciler/pkg/logger"
)

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
}

// Downloader wraps Service to download files from a specific folder.
type Downloader struct {
	service *Service
}

// NewDownloader creates a new Downloader.
func NewDownloader(s *Service) *Downloader {
	return &Downloader{service: s}
}

// DownloadFolderCSV downloads every non-trashed CSV/XLSX file directly
// under the given Drive folder into DownloadDir, converting XLSX files
// to CSV as it goes, and returns the resulting local CSV paths.
func (d *Downloader) DownloadFolderCSV(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.service.ListFiles(opts.FolderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		if ext == ".csv" {
			localPath := filepath.Join(opts.DownloadDir, f.Name)
			out, err := os.Create(localPath)
			if err != nil {
				return nil, fmt.Errorf("failed to create local file %s: %w", localPath, err)
			}
			if err := d.service.DownloadFile(f.ID, out); err != nil {
				out.Close()
				return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
			}
			out.Close()
			localPaths = append(localPaths, localPath)
			continue
		}

		tmpXLSXPath := filepath.Join(opts.DownloadDir, f.Name)
		out, err := os.Create(tmpXLSXPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create temp xlsx %s: %w", tmpXLSXPath, err)
		}
		if err := d.service.DownloadFile(f.ID, out); err != nil {
			out.Close()
			return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
		out.Close()

		csvName := strings.TrimSuffix(f.Name, filepath.Ext(f.Name)) + ".csv"
		csvPath := filepath.Join(opts.DownloadDir, csvName)
		if err := convertXLSXToCSV(tmpXLSXPath, csvPath); err != nil {
			return nil, fmt.Errorf("failed to convert %s to csv: %w", f.Name, err)
		}
		_ = os.Remove(tmpXLSXPath)
		localPaths = append(localPaths, csvPath)
	}

	return localPaths, nil
}

// Watcher polls a Drive folder on an interval and invokes onFiles with
// the local paths of any CSV/XLSX files found, so a marketplace export
// dropped into a shared Drive folder can be picked up without a manual upload.
type Watcher struct {
	downloader  *Downloader
	folderID    string
	downloadDir string
	interval    time.Duration
	onFiles     func(ctx context.Context, localPaths []string)
}

// NewWatcher builds a Watcher. onFiles is called once per poll that finds
// at least one file; it receives freshly downloaded local paths.
func NewWatcher(downloader *Downloader, folderID, downloadDir string, interval time.Duration, onFiles func(ctx context.Context, localPaths []string)) *Watcher {
	return &Watcher{
		downloader:  downloader,
		folderID:    folderID,
		downloadDir: downloadDir,
		interval:    interval,
		onFiles:     onFiles,
	}
}

// Run blocks, polling until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			paths, err := w.downloader.DownloadFolderCSV(ctx, DownloadOptions{
				FolderID:    w.folderID,
				DownloadDir: w.downloadDir,
			})
			if err != nil {
				logger.Log.Error().Err(err).Msg("drive watcher poll failed")
				continue
			}
			if len(paths) > 0 && w.onFiles != nil {
				w.onFiles(ctx, paths)
			}
		}
	}
}
