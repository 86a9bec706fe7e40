package shm

import "testing"

func Test_AlignUp_Rounds_To_Next_Multiple(t *testing.T) {
	cases := []struct{ v, alignment, want uintptr }{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{3, 1, 3},
		{5, 0, 5}, // alignment 0 treated as 1
	}

	for _, tc := range cases {
		if got := alignUp(tc.v, tc.alignment); got != tc.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", tc.v, tc.alignment, got, tc.want)
		}
	}
}

func Test_IdentifierForPath_Is_Stable_And_Distinguishes_Paths(t *testing.T) {
	a := identifierForPath("/foo")
	b := identifierForPath("/foo")
	c := identifierForPath("/bar")

	if a != b {
		t.Fatalf("identifierForPath not stable: %d != %d", a, b)
	}

	if a == c {
		t.Fatalf("identifierForPath collided for distinct paths")
	}
}

func Test_LockFilePath_Sanitizes_Path_Separators(t *testing.T) {
	cfg := NewConfig(WithTempDir("/tmp/x"))

	got := lockFilePath(cfg, "/a/b")
	want := "/tmp/x/a_b_lock"

	if got != want {
		t.Fatalf("lockFilePath() = %q, want %q", got, want)
	}
}

func Test_ShmObjectPath_Joins_Configured_Dir(t *testing.T) {
	cfg := NewConfig(WithShmDir("/dev/shm"))

	got := shmObjectPath(cfg, "/region")
	want := "/dev/shm/region"

	if got != want {
		t.Fatalf("shmObjectPath() = %q, want %q", got, want)
	}
}
