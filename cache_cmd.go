package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dgnsrekt/speak/internal/cache"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the audio cache",
		Args:  cobra.NoArgs,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show audio cache usage",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, c, err := openCacheForCommand()
			if err != nil {
				return err
			}
			defer c.Close() //nolint:errcheck

			fmt.Println("Directory:", cfg.DiskPath)
			writeCacheStats(os.Stdout, c.Stats())
			return nil
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached audio",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, c, err := openCacheForCommand()
			if err != nil {
				return err
			}
			defer c.Close() //nolint:errcheck

			var freed int64
			for _, s := range c.Stats() {
				freed += s.Size
			}
			if err := c.Clear(); err != nil {
				return fmt.Errorf("unable to clear cache: %w", err)
			}
			fmt.Printf("Cleared %s from %s\n", humanize.Bytes(uint64(freed)), cfg.DiskPath) //nolint:gosec
			return nil
		},
	}
)

func openCacheForCommand() (cache.Config, *cache.Cache, error) {
	cfg, err := cacheConfig()
	if err != nil {
		return cache.Config{}, nil, err
	}
	c, err := cache.New(cfg)
	if err != nil {
		return cache.Config{}, nil, err
	}
	return cfg, c, nil
}

func writeCacheStats(w io.Writer, stats []cache.Stats) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tITEMS\tSIZE\tCAPACITY\tHIT RATE\tLAST USED")
	for _, s := range stats {
		last := "never"
		if !s.LastAccess.IsZero() {
			last = humanize.Time(s.LastAccess)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%.0f%%\t%s\n",
			s.Level,
			s.Items,
			humanize.Bytes(uint64(s.Size)),     //nolint:gosec
			humanize.Bytes(uint64(s.Capacity)), //nolint:gosec
			s.HitRate()*100,
			last,
		)
	}
	_ = tw.Flush()
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}
