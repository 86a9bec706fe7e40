package shmcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eclipse-score/corelibs-go/internal/shmcli"
)

func Test_LoadFileConfig_Parses_HuJSON_With_Comments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shmctl.hujson")

	contents := `{
  // shared by every region this host manages
  "shm_dir": "/dev/shm",
  "tmp_dir": "/tmp/shmctl",
  "lock_wait_budget_ms": 750,
  "lock_wait_poll_ms": 15, // trailing comma below is intentional
}
`

	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil { //nolint:gosec // test fixture
		t.Fatal(err)
	}

	got, err := shmcli.LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	want := shmcli.FileConfig{
		ShmDir:           "/dev/shm",
		TempDir:          "/tmp/shmctl",
		LockWaitBudgetMS: 750,
		LockWaitPollMS:   15,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadFileConfig() mismatch (-want +got):\n%s", diff)
	}
}

func Test_LoadFileConfig_Missing_Path_Is_Not_An_Error(t *testing.T) {
	got, err := shmcli.LoadFileConfig(filepath.Join(t.TempDir(), "missing.hujson"))
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if diff := cmp.Diff(shmcli.FileConfig{}, got); diff != "" {
		t.Errorf("LoadFileConfig() mismatch (-want +got):\n%s", diff)
	}
}
