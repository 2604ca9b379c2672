package standarderrors

import "errors"

var (
	// ErrHandleNotInitialized is returned when a goal handle is used before
	// Init or after Fini.
	ErrHandleNotInitialized = errors.New("goal handle not initialized")

	// ErrHandleAlreadyInitialized is returned on double-Init of a goal
	// handle. This indicates a programming error, not a resource problem.
	ErrHandleAlreadyInitialized = errors.New("goal handle already initialized")

	// ErrGoalExists is returned when accepting a goal whose ID is already
	// tracked by the server. The registry is left unchanged.
	ErrGoalExists = errors.New("goal with this ID already tracked")

	// ErrUnknownGoal is returned when an operation names a goal ID the
	// server does not track.
	ErrUnknownGoal = errors.New("unknown goal ID")

	// ErrServerInvalid is returned by every action server operation when
	// the server is nil, unfinished or already finalized.
	ErrServerInvalid = errors.New("action server invalid")

	// ErrClientInvalid is returned by every action client operation when
	// the client is nil, unfinished or already finalized.
	ErrClientInvalid = errors.New("action client invalid")

	// ErrTransitionUnregistered is returned when a lifecycle transition is
	// looked up by an id or label the machine does not know from its
	// current state.
	ErrTransitionUnregistered = errors.New("transition not registered for current state")
)
