package shmcli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/eclipse-score/corelibs-go/pkg/shm"
)

// UnlinkCmd returns the "unlink" command.
func UnlinkCmd(cfg *shm.Config, reportPath string) *Command {
	fs := flag.NewFlagSet("unlink", flag.ContinueOnError)
	path := fs.String("path", "", "Name of the region to unlink")

	return &Command{
		Flags: fs,
		Usage: "unlink --path <name>",
		Short: "Remove a named region's backing filesystem entry",
		Long: "Remove a named region's backing filesystem entry. Processes that already " +
			"have it mapped keep their mapping valid until they close it.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			if *path == "" {
				return errPathRequired
			}

			res, err := shm.Open(cfg, *path, false)
			if err != nil {
				return err
			}

			id := res.Identifier()

			if err := res.UnlinkFilesystemEntry(); err != nil {
				_ = res.Close()

				return err
			}

			if err := res.Close(); err != nil {
				return err
			}

			o.Printf("unlinked %s\n", *path)

			return maybeWriteReport(reportPath, Report{
				Command:    "unlink",
				Path:       *path,
				Identifier: id,
			})
		},
	}
}

func maybeWriteReport(path string, r Report) error {
	if path == "" {
		return nil
	}

	return WriteReport(path, r)
}
