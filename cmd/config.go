package cmd

import "github.com/warpdl/warpcap/pkg/device"

const (
	DEF_REQUESTS     = 10
	DEF_DELAY        = device.DefaultDelay
	DEF_FAILURE_RATE = device.DefaultFailureRate
	DEF_PAYLOAD_SIZE = device.DefaultPayloadSize
	DEF_PRIORITY     = "normal"
	DEF_DEVICE_NAME  = "cam0"
)

const DESCRIPTION = `
Warpcap drives a capture device through a priority scheduler.
Capture requests are queued from any number of producers and
executed one at a time, most urgent first, with every request
reporting exactly one success or failure.
`

const (
	RunDescription = `The run command starts the capture scheduler against a
simulated camera (or a directory of frames) and submits
capture requests to it.

Without --cron it submits --requests captures with cycling
priorities and exits once every one of them has finished.
With --cron it submits one capture per cron tick at the
given --priority until --duration elapses or it is
interrupted.

Example:
        warpcap run -n 20 --failure-rate 0.2
                    OR
        warpcap run --cron "*/1 * * * *" --priority high --duration 10m

`
)

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`
