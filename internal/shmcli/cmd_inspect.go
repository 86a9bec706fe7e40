package shmcli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/eclipse-score/corelibs-go/pkg/shm"
)

// InspectCmd returns the "inspect" command.
func InspectCmd(cfg *shm.Config, reportPath string) *Command {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	path := fs.String("path", "", "Name of the region to inspect")

	return &Command{
		Flags: fs,
		Usage: "inspect --path <name>",
		Short: "Print a region's identifier, allocation high-watermark and capacity",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			if *path == "" {
				return errPathRequired
			}

			res, err := shm.Open(cfg, *path, false)
			if err != nil {
				return err
			}

			defer func() { _ = res.Close() }()

			o.Printf("path:            %s\n", *path)
			o.Printf("identifier:      %d\n", res.Identifier())
			o.Printf("allocated bytes: %d\n", res.AllocatedBytes())
			o.Printf("usable bytes:    %d\n", res.UsableSize())
			o.Printf("typed memory:    %t\n", res.IsInTypedMemory())

			return maybeWriteReport(reportPath, Report{
				Command:        "inspect",
				Path:           *path,
				Identifier:     res.Identifier(),
				AllocatedBytes: res.AllocatedBytes(),
				UsableBytes:    uint64(res.UsableSize()),
				InTypedMemory:  res.IsInTypedMemory(),
			})
		},
	}
}
