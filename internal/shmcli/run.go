package shmcli

import (
	"context"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/eclipse-score/corelibs-go/pkg/shm"
)

// Run is shmctl's entry point. Returns a process exit code.
func Run(out, errOut io.Writer, args []string) int {
	globalFlags := flag.NewFlagSet("shmctl", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.SetOutput(&strings.Builder{})

	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagConfig := globalFlags.StringP("config", "c", "", "HuJSON config `file`")
	flagShmDir := globalFlags.String("shm-dir", "", "Directory named shared-memory objects live under (default /dev/shm)")
	flagTempDir := globalFlags.String("tmp-dir", "", "Directory lock files are created under (default system temp)")
	flagReport := globalFlags.String("write-report", "", "Write a machine-readable JSON report to `file`")

	if err := globalFlags.Parse(args); err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	fc, err := LoadFileConfig(*flagConfig)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	cfg := BuildShmConfig(fc, *flagShmDir, *flagTempDir)

	commands := allCommands(cfg, *flagReport)

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	commandAndArgs := globalFlags.Args()

	if *flagHelp || len(commandAndArgs) == 0 {
		printUsage(out, commands)

		if len(commandAndArgs) == 0 && !*flagHelp {
			return 1
		}

		return 0
	}

	cmdName := commandAndArgs[0]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, commands)

		return 1
	}

	cmdIO := NewIO(out, errOut)

	return cmd.Run(context.Background(), cmdIO, commandAndArgs[1:])
}

func allCommands(cfg *shm.Config, reportPath string) []*Command {
	return []*Command{
		CreateCmd(cfg, reportPath),
		OpenCmd(cfg, reportPath),
		AllocCmd(cfg, reportPath),
		InspectCmd(cfg, reportPath),
		UnlinkCmd(cfg, reportPath),
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

const globalOptionsHelp = `  -h, --help               Show help
  -c, --config <file>      HuJSON config file
  --shm-dir <dir>          Directory named shared-memory objects live under
  --tmp-dir <dir>          Directory lock files are created under
  --write-report <file>    Write a machine-readable JSON report`

func printGlobalOptions(w io.Writer) {
	fprintln(w, "Usage: shmctl [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")
	fprintln(w, globalOptionsHelp)
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, "shmctl - inspect and drive pkg/shm shared-memory regions")
	fprintln(w)
	fprintln(w, "Usage: shmctl [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}
}
