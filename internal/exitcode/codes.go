// Package exitcode defines named exit codes for the ccg CLI.
//
// Each code maps a specific termination condition to a numeric value
// recognized by shell scripts and host hooks.
package exitcode

const (
	Success           = 0   // Command succeeded
	Error             = 1   // Invalid args, misconfiguration, unexpected failure
	JobFailed         = 2   // A model job ended in failed state
	JobTimeout        = 3   // Waiting for a job timed out
	InvalidTransition = 4   // RPI phase change not allowed
	NoActiveState     = 5   // Operation needs a state document that does not exist
	Interrupted       = 130 // SIGINT/SIGTERM received
)

// Name returns the human-readable name for the given exit code.
// Unknown codes return "unknown".
func Name(code int) string {
	switch code {
	case Success:
		return "Success"
	case Error:
		return "Error"
	case JobFailed:
		return "JobFailed"
	case JobTimeout:
		return "JobTimeout"
	case InvalidTransition:
		return "InvalidTransition"
	case NoActiveState:
		return "NoActiveState"
	case Interrupted:
		return "Interrupted"
	default:
		return "unknown"
	}
}
