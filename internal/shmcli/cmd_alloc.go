package shmcli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/eclipse-score/corelibs-go/pkg/shm"
)

// AllocCmd returns the "alloc" command.
func AllocCmd(cfg *shm.Config, reportPath string) *Command {
	fs := flag.NewFlagSet("alloc", flag.ContinueOnError)
	path := fs.String("path", "", "Name of the region to allocate from")
	bytesFlag := fs.Uint64("bytes", 0, "Bytes to allocate")
	alignment := fs.Uint64("alignment", 8, "Required alignment in bytes") //nolint:mnd

	return &Command{
		Flags: fs,
		Usage: "alloc --path <name> --bytes <n> [flags]",
		Short: "Carve a sub-region out of an existing region's unused tail",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			if *path == "" {
				return errPathRequired
			}

			res, err := shm.Open(cfg, *path, true)
			if err != nil {
				return err
			}

			defer func() { _ = res.Close() }()

			region, err := res.Allocate(uintptr(*bytesFlag), uintptr(*alignment))
			if err != nil {
				return err
			}

			// Allocate advances the cursor to the end of the region it returns.
			offset := res.AllocatedBytes() - uint64(len(region))

			o.Printf("allocated %d bytes from %s at offset %d\n", len(region), *path, offset)

			return maybeWriteReport(reportPath, Report{
				Command:    "alloc",
				Path:       *path,
				Identifier: res.Identifier(),
				Offset:     offset,
				Length:     uint64(len(region)),
			})
		},
	}
}
