// Package alert defines the signals detectors raise and the bounded
// buffer the engine keeps them in.
package alert

// Kind identifies the detector condition behind an alert.
type Kind string

const (
	KindScriptInjection     Kind = "TAMPERING_DETECTED_SCRIPT_INJECTION"
	KindScriptModification  Kind = "TAMPERING_DETECTED_SCRIPT_MODIFICATION"
	KindDebuggerTiming      Kind = "DEBUGGER_TIMING"
	KindConsoleAccess       Kind = "CONSOLE_ACCESS"
	KindFunctionConstructor Kind = "FUNCTION_CONSTRUCTOR"
	KindEvalUsage           Kind = "EVAL_USAGE"
	KindSuspiciousNetwork   Kind = "SUSPICIOUS_NETWORK_ACTIVITY"
)

// Informational event kinds. These never count toward escalation.
const (
	EventInitialized    = "SECURITY_SYSTEM_INITIALIZED"
	EventDetectorFailed = "detector_failed"
	EventConsoleAccess  = "console_access"
	EventInputBlocked   = "input_blocked"
)

// AlertPrefix is prepended to the kind of every event produced by an alert.
const AlertPrefix = "ALERT:"

// Raiser accepts alerts. Each call counts toward escalation.
type Raiser interface {
	RaiseAlert(kind Kind)
}

// Recorder accepts informational events that do not count toward escalation.
type Recorder interface {
	LogEvent(kind string, data any)
}

// Sink is what detectors are handed: the two public operations of the engine.
type Sink interface {
	Raiser
	Recorder
}
