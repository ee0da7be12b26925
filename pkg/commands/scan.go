package commands

import (
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stelladrift/fits/pkg/fits"
)

var scanOpts = struct {
	Workers int
}{}

var ScanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Walk a directory tree and validate every FITS file found",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	ScanCmd.Flags().IntVar(&scanOpts.Workers, "workers", 8, "Number of files validated concurrently")
}

func runScan(cmd *cobra.Command, args []string) error {
	var paths []string
	err := godirwalk.Walk(args[0], &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".fits", ".fit", ".fts":
				paths = append(paths, path)
			}
			return nil
		},
		Unsorted: false,
	})
	if err != nil {
		return err
	}

	var valid, invalid atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(scanOpts.Workers)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			f, err := fits.Open(path)
			if err != nil {
				invalid.Add(1)
				log.Warn().Msgf("%s: %v", path, err)
				return nil
			}
			defer f.Close()

			valid.Add(1)
			log.Info().Msgf("%s: %d blocks, %d HDUs", path, f.BlockCount(), len(f.HDUs()))
			return nil
		})
	}
	g.Wait()

	log.Info().Msgf("scanned %d files: %d valid, %d invalid", len(paths), valid.Load(), invalid.Load())
	return nil
}
