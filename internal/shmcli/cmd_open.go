package shmcli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/eclipse-score/corelibs-go/pkg/shm"
)

// OpenCmd returns the "open" command.
func OpenCmd(cfg *shm.Config, reportPath string) *Command {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	path := fs.String("path", "", "Name of the region to open")
	createIfMissing := fs.Bool("create-if-missing", false, "Create the region if it does not already exist")
	size := fs.Uint64("size", 4096, "Usable bytes to reserve if created") //nolint:mnd

	return &Command{
		Flags: fs,
		Usage: "open --path <name> [flags]",
		Short: "Open an existing named shared-memory region",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			if *path == "" {
				return errPathRequired
			}

			var (
				res *shm.Resource
				err error
			)

			if *createIfMissing {
				res, err = shm.CreateOrOpen(cfg, *path, uintptr(*size), nil, shm.WorldReadable())
			} else {
				res, err = shm.Open(cfg, *path, true)
			}

			if err != nil {
				return err
			}

			defer func() { _ = res.Close() }()

			o.Printf("opened %s: identifier=%d allocated=%d usable=%d bytes\n",
				*path, res.Identifier(), res.AllocatedBytes(), res.UsableSize())

			return maybeWriteReport(reportPath, Report{
				Command:        "open",
				Path:           *path,
				Identifier:     res.Identifier(),
				AllocatedBytes: res.AllocatedBytes(),
				UsableBytes:    uint64(res.UsableSize()),
			})
		},
	}
}
