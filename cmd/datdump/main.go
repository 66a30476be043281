// Command datdump walks every sequence and frame of a DAT container,
// forcing lazy decode of the whole file, and reports what it found. It
// exists to exercise Container end to end the way a human operator would:
// point it at a file, see what's in it, see what failed.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	dat "github.com/krullgor/godat-reader"
)

func main() {
	var (
		path      = flag.String("file", "", "path to the DAT container")
		fileType  = flag.String("type", "settlers4", "pixel format: settlers3, settlers4, history")
		zstdInput = flag.Bool("zstd", false, "treat -file as a zstd-compressed container")
		verbose   = flag.Bool("v", false, "development logging (default: production)")
		checksums = flag.Bool("checksums", false, "record per-frame xxhash checksums")
	)
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: datdump -file <path> [-type settlers3|settlers4|history] [-zstd] [-checksums] [-v]")
		os.Exit(2)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger setup:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ft, err := resolveFileType(*fileType)
	if err != nil {
		logger.Fatal("bad -type", zap.Error(err))
	}

	opts := []dat.ContainerOption{dat.WithLogger(logger), dat.WithChecksums(*checksums)}

	var c *dat.Container
	if *zstdInput {
		c, err = dat.OpenZstd(*path, ft, opts...)
	} else {
		c, err = dat.Open(*path, ft, opts...)
	}
	if err != nil {
		logger.Fatal("open failed", zap.Error(err))
	}
	defer c.Close()

	if warn := c.Warnings(); warn != nil {
		logger.Warn("container opened with warnings", zap.Error(warn))
	}

	diag := c.Diagnose()
	logger.Info("opened container",
		zap.String("path", c.Path()),
		zap.Int64("size", c.Size()),
		zap.Int("warnings", diag.WarningCount),
		zap.Bool("hasAnimationScripts", diag.HasAnimationScripts))

	total := 0
	for _, n := range diag.SequenceCounts {
		total += n
	}

	bar := progressbar.Default(int64(total), "decoding")
	for _, cat := range []dat.Category{dat.CategoryLandscape, dat.CategoryGui} {
		for i := 0; i < c.SequenceCount(cat); i++ {
			if cat == dat.CategoryLandscape {
				c.GetLandscape(i)
			} else {
				c.GetGui(i)
			}
			bar.Add(1)
		}
	}
	for i := 0; i < c.SequenceCount(dat.CategoryBody); i++ {
		c.GetSettlerSequence(i)
		bar.Add(1)
	}
	for i := 0; i < c.SequenceCount(dat.CategoryAnimationScript); i++ {
		c.GetAnimationScript(i)
		bar.Add(1)
	}

	fmt.Println()
	logger.Info("done", zap.Int("totalSequences", total))
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func resolveFileType(name string) (dat.FileType, error) {
	switch name {
	case "settlers3":
		return dat.FileTypeSettlers3, nil
	case "settlers4":
		return dat.FileTypeSettlers4, nil
	case "history":
		return dat.FileTypeHistoryEdition, nil
	default:
		return dat.FileType{}, fmt.Errorf("unknown file type %q", name)
	}
}
