package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const helpTemplate = `ccg - Claude/Codex/Gemini orchestration: background jobs, RPI workflow and modes

USAGE
  ccg <command> [flags]

COMMANDS
  Server & hooks:
    serve                                  Serve the tools over stdio JSON-RPC
    hook stop                              Answer the host's stop hook (stdin JSON)
    call <tool> [json-args]                Run one tool and print its result

  Models:
    ask <codex|gemini|claude> <prompt>     Ask a model synchronously
    doctor                                 Check which model CLIs are installed

  Workflow state:
    rpi <show|init|transition|...>         Inspect or change the RPI phase engine
    ralph <start|next|verify|...>          Drive the Ralph verify loop
    team <create|ready|update|...>         Manage a team task DAG
    autopilot <start|advance|...>          Walk a change through all phases
    route <domain>                         Show where a task would be routed
    status                                 Active modes and summaries

GLOBAL FLAGS
  Models & binaries:
    --codex-model <model>                  Codex model (default: gpt-5.3-codex)
    --gemini-model <model>                 Gemini model (default: gemini-3-pro-preview)
    --claude-model <model>                 Claude model (default: sonnet)
    --codex-binary, --gemini-binary, --claude-binary <path>
                                           Override the CLI looked up on PATH
    --max-turns <int>                      Max claude agent turns (default: CLI default)

  Limits:
    --timeout <ms>                         Per-call timeout for every backend (default: 300000)
    --inactivity-timeout <ms>              Kill a silent backend after this long (default: off)
    --ralph-max-iterations <int>           Default Ralph iteration limit (default: 10)
    --context-threshold <percent>          Autopilot /clear suggestion threshold (default: 80)

  Providers:
    --no-codex                             Route codex work to claude
    --no-gemini                            Route gemini work to claude

  Files:
    --config <path>                        Additional config file (TOML)
    --templates-dir <dir>                  Role prompt overrides (<dir>/<backend>/<role>.md)

  Notifications:
    --notify-webhook <url>                 OpenClaw webhook URL (default: http://127.0.0.1:18789/webhook)
    --notify-channel <channel>             Notification channel (default: telegram)
    --notify-chat-id <id>                  Recipient chat ID (required to enable notifications)

  Output:
    -o, --output <json|yaml>               Output format (default: json)
    -v, --verbose                          Debug logging on stderr
    -h, --help                             Show this help text
    --version                              Show version, commit, build date

CONFIGURATION
  Lowest to highest precedence: built-in defaults, ~/.oh-my-ccg/config.toml,
  .oh-my-ccg/config.toml, --config, OH_MY_CCG_* environment, flags.

EXIT CODES
  0   Success              Command succeeded
  1   Error                Invalid arguments, misconfiguration, unexpected failure
  2   JobFailed            A model job failed
  3   JobTimeout           Waiting for a job timed out
  4   InvalidTransition    RPI phase change not allowed
  5   NoActiveState        The command needs state that does not exist
  130 Interrupted          SIGINT or SIGTERM received

EXAMPLES
  # Register with the host assistant
  ccg serve

  # Ask codex as an architect
  ccg ask codex --role architect "Review the storage layer"

  # Start a team from a task file and dispatch external work
  ccg team create --tasks tasks.yaml && ccg call team_dispatch

  # Show what is active
  ccg status
`

// SetCustomHelp prints the ccg overview for the root command. Subcommands
// keep cobra's generated help.
func SetCustomHelp(root *cobra.Command) {
	generated := root.HelpFunc()
	root.SetHelpFunc(func(c *cobra.Command, args []string) {
		if c != root {
			generated(c, args)
			return
		}
		fmt.Fprint(c.OutOrStdout(), helpTemplate)
	})
}
