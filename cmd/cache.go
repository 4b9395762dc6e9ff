package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/spvc/internal/cache"
	"github.com/Norgate-AV/spvc/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the build cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:          "stats",
	Short:        "Show build cache statistics",
	RunE:         runCacheStats,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
}

var cacheCleanCmd = &cobra.Command{
	Use:          "clean",
	Short:        "Remove every cached artifact",
	RunE:         runCacheClean,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
}

func openCache(cmd *cobra.Command) (*cache.Cache, error) {
	cfg, err := config.NewLoader().LoadForBuild(cmd, nil)
	if err != nil {
		return nil, err
	}

	return cache.New(cfg.CacheDir)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	count, size, err := c.Stats()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Location: %s\nEntries:  %d\nSize:     %d bytes\n", c.Root(), count, size)
	return nil
}

func runCacheClean(cmd *cobra.Command, args []string) error {
	c, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Clear(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cleared build cache at %s\n", c.Root())
	return nil
}
