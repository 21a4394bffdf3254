// Package common provides constants shared by the warpcap command-line
// interface.
package common

// Environment variable names for configuration.
const (
	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "WARPCAP_DEBUG"

	// RequestsEnv sets the number of captures submitted by "warpcap run".
	RequestsEnv = "WARPCAP_REQUESTS"

	// DelayEnv sets the simulated device's capture delay.
	DelayEnv = "WARPCAP_DELAY"

	// FailureRateEnv sets the simulated device's failure probability.
	FailureRateEnv = "WARPCAP_FAILURE_RATE"

	// PayloadSizeEnv sets the simulated device's frame size in bytes.
	PayloadSizeEnv = "WARPCAP_PAYLOAD_SIZE"

	// SourceDirEnv selects the file-backed device and its frame directory.
	SourceDirEnv = "WARPCAP_SOURCE_DIR"

	// CronEnv is the cron expression for periodic captures.
	CronEnv = "WARPCAP_CRON"

	// PriorityEnv is the priority of periodic captures.
	PriorityEnv = "WARPCAP_PRIORITY"

	// DurationEnv bounds how long periodic captures keep being submitted.
	DurationEnv = "WARPCAP_DURATION"

	// DrainEnv makes the scheduler process queued captures before stopping.
	DrainEnv = "WARPCAP_DRAIN"

	// LogFileEnv names a file that receives a copy of the log output.
	LogFileEnv = "WARPCAP_LOG_FILE"
)
