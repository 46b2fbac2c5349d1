package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidframes/internal/probecache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the ffprobe cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func withProbeCache(ctx *commandContext, fn func(*probecache.Cache) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	cache, err := probecache.Open(cfg.ProbeCache.Path)
	if err != nil {
		return err
	}
	defer cache.Close()
	return fn(cache)
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache location and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return withProbeCache(ctx, func(cache *probecache.Cache) error {
				n, err := cache.Len(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{fieldLabel("path"), cache.Path()},
					{fieldLabel("enabled"), yesNo(cfg.ProbeCache.Enabled)},
					{fieldLabel("entries"), fmt.Sprint(n)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Drop entries for files that changed or no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProbeCache(ctx, func(cache *probecache.Cache) error {
				removed, err := cache.Prune(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale entries\n", removed)
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProbeCache(ctx, func(cache *probecache.Cache) error {
				if err := cache.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Probe cache cleared")
				return nil
			})
		},
	}
}
