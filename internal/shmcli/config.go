package shmcli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"

	"github.com/eclipse-score/corelibs-go/internal/osfs"
	"github.com/eclipse-score/corelibs-go/pkg/shm"
)

// FileConfig is the on-disk shape of a shmctl config file, written as
// HuJSON (JSON with comments and trailing commas allowed) and standardized
// to plain JSON before decoding.
type FileConfig struct {
	ShmDir           string `json:"shm_dir,omitempty"`             //nolint:tagliatelle // snake_case config file convention
	TempDir          string `json:"tmp_dir,omitempty"`             //nolint:tagliatelle
	LockWaitBudgetMS int    `json:"lock_wait_budget_ms,omitempty"` //nolint:tagliatelle
	LockWaitPollMS   int    `json:"lock_wait_poll_ms,omitempty"`   //nolint:tagliatelle
}

// LoadFileConfig reads and decodes a HuJSON config file. A missing path is
// not an error: callers get a zero-value FileConfig and fall back to
// shm.NewConfig's defaults.
func LoadFileConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, nil
	}

	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}

		return FileConfig{}, fmt.Errorf("shmctl: read config %q: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return FileConfig{}, fmt.Errorf("shmctl: parse config %q: %w", path, err)
	}

	var fc FileConfig
	if err := json.Unmarshal(standardized, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("shmctl: decode config %q: %w", path, err)
	}

	return fc, nil
}

// BuildShmConfig turns a FileConfig plus CLI overrides into a shm.Config.
// CLI flags that were explicitly set take precedence over the file.
func BuildShmConfig(fc FileConfig, shmDirFlag, tempDirFlag string) *shm.Config {
	opts := []shm.Option{shm.WithFS(osfs.NewReal())}

	if d := firstNonEmpty(shmDirFlag, fc.ShmDir); d != "" {
		opts = append(opts, shm.WithShmDir(d))
	}

	if d := firstNonEmpty(tempDirFlag, fc.TempDir); d != "" {
		opts = append(opts, shm.WithTempDir(d))
	}

	if fc.LockWaitBudgetMS > 0 {
		opts = append(opts, shm.WithLockWaitBudget(time.Duration(fc.LockWaitBudgetMS)*time.Millisecond))
	}

	if fc.LockWaitPollMS > 0 {
		opts = append(opts, shm.WithLockWaitPollInterval(time.Duration(fc.LockWaitPollMS)*time.Millisecond))
	}

	return shm.NewConfig(opts...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
