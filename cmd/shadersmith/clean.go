package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shadersmith/internal/cache"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the shader cache",
	Long:  "Remove the cache directory. --cache-dir wins over $SHADERSMITH_CACHE_DIR, which wins over shadersmith.toml.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().String("cache-dir", "", "cache directory to remove")
}

func runClean(cmd *cobra.Command, _ []string) error {
	manifest, _, err := loadManifest()
	if err != nil {
		return err
	}
	s := &session{manifest: manifest}
	dir, err := s.cacheDir(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if dir == "" {
		fmt.Fprintln(out, "cache disabled")
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(out, "cache directory not found")
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}
	c, err := cache.Open(dir, 1)
	if err != nil {
		return err
	}
	if err := c.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(out, "removed %s\n", s.displayPath(dir))
	return nil
}
