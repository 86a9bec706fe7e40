package shmcli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/eclipse-score/corelibs-go/pkg/shm"
)

var errPathRequired = errors.New("--path is required")

// CreateCmd returns the "create" command.
func CreateCmd(cfg *shm.Config, reportPath string) *Command {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	path := fs.String("path", "", "Name of the region to create")
	size := fs.Uint64("size", 4096, "Usable bytes to reserve") //nolint:mnd
	worldWritable := fs.Bool("world-writable", false, "Grant world read/write instead of world read-only")

	return &Command{
		Flags: fs,
		Usage: "create --path <name> [flags]",
		Short: "Create a new named shared-memory region",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			if *path == "" {
				return errPathRequired
			}

			perms := shm.WorldReadable()
			if *worldWritable {
				perms = shm.WorldWritable()
			}

			res, err := shm.Create(cfg, *path, uintptr(*size), nil, perms)
			if err != nil {
				return err
			}

			defer func() { _ = res.Close() }()

			o.Printf("created %s: identifier=%d usable=%d bytes\n", *path, res.Identifier(), res.UsableSize())

			return maybeWriteReport(reportPath, Report{
				Command:    "create",
				Path:       *path,
				Identifier: res.Identifier(),
			})
		},
	}
}
