// Command queriesgen turns annotated query declarations into typed Go query
// objects.
package main

import (
	"os"

	"github.com/shipq/queries/cli"
)

const usage = `queriesgen - typed query objects from annotated declarations

Usage:
  queriesgen <command> [arguments]

Commands:
  generate [files...]  Generate <file>_gen.go for each declaration file
  check [files...]     Validate and classify declarations without writing
  watch [files...]     Regenerate whenever a declaration or query file changes
  init [sources...]    Create queries.ini in the current directory
  version              Print the queriesgen version

With no files, commands use [generate] sources from queries.ini, then
$GOFILE (set by go generate).

Options:
  -h, --help    Show this help message

Run 'queriesgen <command> --help' for more information on a specific command.
`

func main() {
	os.Exit(run(os.Args[1:], cli.Std))
}

// run executes one command and returns the process exit code: 0 on success,
// 1 when the command failed, 2 on usage errors.
func run(args []string, o *cli.Output) int {
	if len(args) == 0 {
		o.Infof("%s", usage)
		return 0
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "-h", "--help", "help":
		o.Infof("%s", usage)
		return 0
	case "generate", "gen":
		return generateCmd(rest, o)
	case "check":
		return checkCmd(rest, o)
	case "watch":
		return watchCmd(rest, o)
	case "init":
		return initCmd(rest, o)
	case "version", "--version":
		return versionCmd(o)
	default:
		o.Errors(errUnknownCommand(cmd))
		o.Infof("Run 'queriesgen --help' for usage.")
		return 2
	}
}
