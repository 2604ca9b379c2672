package logger

// Component name constants for standardized logging
const (
	// Engine components
	ComponentActionServer = "ActionServer"
	ComponentActionClient = "ActionClient"
	ComponentGoalHandle   = "GoalHandle"
	ComponentLifecycle    = "Lifecycle"

	// Process entrypoint
	ComponentCore = "Core"

	// Transport
	ComponentInprocTransport = "InprocTransport"

	// Configuration
	ComponentConfig = "Config"
)
