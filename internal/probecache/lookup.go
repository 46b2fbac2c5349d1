package probecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vidframes/internal/media/ffprobe"
)

var inspect = ffprobe.Inspect

type fileKey struct {
	path    string
	size    int64
	mtimeNS int64
}

func keyFor(path string) (fileKey, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fileKey{}, err
	}
	if info.IsDir() {
		return fileKey{}, fmt.Errorf("%s is a directory", abs)
	}
	return fileKey{path: abs, size: info.Size(), mtimeNS: info.ModTime().UnixNano()}, nil
}

// Inspect returns the ffprobe result for path, running binary only when no
// fresh row exists. The file is probed by absolute path.
func (c *Cache) Inspect(ctx context.Context, binary, path string) (ffprobe.Result, error) {
	key, err := keyFor(path)
	if err != nil {
		return ffprobe.Result{}, &ffprobe.ProbeError{Path: path, Reason: "stat", Err: err}
	}

	if result, ok, err := c.lookup(ctx, key); err != nil {
		return ffprobe.Result{}, err
	} else if ok {
		return result, nil
	}

	result, err := inspect(ctx, binary, key.path)
	if err != nil {
		return ffprobe.Result{}, err
	}
	if err := c.store(ctx, key, result.RawJSON()); err != nil {
		return ffprobe.Result{}, err
	}
	return result, nil
}

// Probe is the cached counterpart of ffprobe.Probe.
func (c *Cache) Probe(ctx context.Context, binary, path string) (ffprobe.Metadata, error) {
	result, err := c.Inspect(ctx, binary, path)
	if err != nil {
		return ffprobe.Metadata{}, err
	}
	return result.MetadataFor(path)
}

// Prober adapts the cache to frames.WithProber.
func (c *Cache) Prober(binary string) func(ctx context.Context, path string) (ffprobe.Metadata, error) {
	return func(ctx context.Context, path string) (ffprobe.Metadata, error) {
		return c.Probe(ctx, binary, path)
	}
}

func (c *Cache) lookup(ctx context.Context, key fileKey) (ffprobe.Result, bool, error) {
	var (
		size    int64
		mtimeNS int64
		raw     []byte
	)
	err := retryOnBusy(ctx, func() error {
		return c.db.QueryRowContext(ctx,
			"SELECT size, mtime_ns, raw_json FROM probes WHERE path = ?", key.path,
		).Scan(&size, &mtimeNS, &raw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return ffprobe.Result{}, false, nil
	}
	if err != nil {
		return ffprobe.Result{}, false, fmt.Errorf("probe cache lookup: %w", err)
	}
	if size != key.size || mtimeNS != key.mtimeNS {
		return ffprobe.Result{}, false, nil
	}
	result, err := ffprobe.Parse(raw)
	if err != nil {
		// A corrupt row is a miss; the fresh probe overwrites it.
		return ffprobe.Result{}, false, nil
	}
	return result, true, nil
}

func (c *Cache) store(ctx context.Context, key fileKey, raw []byte) error {
	_, err := c.exec(ctx, `INSERT INTO probes (path, size, mtime_ns, probed_at, raw_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mtime_ns = excluded.mtime_ns,
			probed_at = excluded.probed_at,
			raw_json = excluded.raw_json`,
		key.path, key.size, key.mtimeNS, time.Now().UTC().Format(time.RFC3339Nano), raw)
	if err != nil {
		return fmt.Errorf("probe cache store: %w", err)
	}
	return nil
}

// Len returns the number of cached probes.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM probes").Scan(&n); err != nil {
		return 0, fmt.Errorf("count probes: %w", err)
	}
	return n, nil
}

// Prune drops rows whose files no longer exist or have changed. It returns
// the number of rows removed.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT path, size, mtime_ns FROM probes")
	if err != nil {
		return 0, fmt.Errorf("list probes: %w", err)
	}
	var stale []string
	for rows.Next() {
		var (
			path          string
			size, mtimeNS int64
		)
		if err := rows.Scan(&path, &size, &mtimeNS); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("scan probe row: %w", err)
		}
		key, err := keyFor(path)
		if err != nil || key.size != size || key.mtimeNS != mtimeNS {
			stale = append(stale, path)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("iterate probes: %w", err)
	}
	_ = rows.Close()

	for _, path := range stale {
		if _, err := c.exec(ctx, "DELETE FROM probes WHERE path = ?", path); err != nil {
			return 0, fmt.Errorf("delete probe %s: %w", path, err)
		}
	}
	return len(stale), nil
}

// Clear removes every cached probe.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.exec(ctx, "DELETE FROM probes"); err != nil {
		return fmt.Errorf("clear probes: %w", err)
	}
	return nil
}
