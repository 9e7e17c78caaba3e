package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"graphetl/internal/datasource/httpds"
	"graphetl/internal/download"

	"github.com/spf13/cobra"
)

type downloadOptions struct {
	date    string
	list    bool
	keepZip bool
	outDir  string
	force   bool
}

func newDownloadCmd(a *app) *cobra.Command {
	var opts downloadOptions
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download and unpack the monthly bulk company file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd.Context(), a, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.date, "date", "", "file date YYYY-MM-DD (default: latest published)")
	f.BoolVar(&opts.list, "list", false, "list the files published in the last 12 months")
	f.BoolVar(&opts.keepZip, "keep-zip", false, "keep the zip after extraction")
	f.StringVar(&opts.outDir, "out", "data", "output directory")
	f.BoolVar(&opts.force, "force", false, "overwrite an existing CSV")
	return cmd
}

func runDownload(ctx context.Context, a *app, opts downloadOptions) error {
	log := a.logger()
	d := &download.Downloader{
		Client:  httpds.NewClient(httpds.Config{MaxRetries: 3}),
		BaseURL: a.downloadURL,
		OutDir:  opts.outDir,
		KeepZip: opts.keepZip,
		Force:   opts.force,
		Log:     log,
		Now:     a.now,
	}

	if opts.list {
		return listAvailable(ctx, a, d)
	}

	date := download.LatestDate(a.now())
	if opts.date != "" {
		parsed, snapped, err := download.ParseDate(opts.date)
		if err != nil {
			return err
		}
		if snapped {
			log.Infof("Note: files are published monthly, using %s", parsed.Format(download.DateLayout))
		}
		date = parsed
	}

	start := time.Now()
	res, err := d.Fetch(ctx, date)
	switch {
	case errors.Is(err, download.ErrNotPublished):
		log.Errorf("%v", err)
		log.Infof("Run with --list to see which files are available")
		return errSilentFailure
	case errors.Is(err, download.ErrCSVExists):
		log.Errorf("%s already exists, use --force to overwrite", res.CSV)
		return errSilentFailure
	case err != nil:
		return err
	}

	log.Infof("Download complete in %s", time.Since(start).Round(time.Second))
	for _, f := range res.Files {
		log.Infof("  %s (%s)", f.Path, download.SizeText(f.Size))
	}
	return nil
}

func listAvailable(ctx context.Context, a *app, d *download.Downloader) error {
	avail, err := d.List(ctx, download.DefaultListMonths)
	if err != nil {
		return err
	}
	if len(avail) == 0 {
		fmt.Fprintln(a.out, "No files found in the last 12 months")
		return nil
	}
	fmt.Fprintf(a.out, "%-12s %10s  %s\n", "DATE", "SIZE", "URL")
	for _, f := range avail {
		fmt.Fprintf(a.out, "%-12s %10s  %s\n", f.Date.Format(download.DateLayout), download.SizeText(f.Size), f.URL)
	}
	return nil
}
