// Package interfaces holds the contracts between the engine's view models and the UI transport.
package interfaces

type CommandArgs interface{}

// ViewModeler is implemented by view models that publish a different value than themselves, such
// as a copy taken under a lock.
type ViewModeler interface {
	ViewModel() interface{}
}

// Command is a named operation the UI can invoke with JSON arguments.
type Command interface {
	// CreateArgs returns a fresh value for the UI's JSON arguments to be unmarshalled into, or nil
	// when the command takes none.
	CreateArgs() CommandArgs
	// Execute runs the command with the unmarshalled arguments.
	Execute(args CommandArgs) error
}

// ViewModelCommandHandler looks up commands on a single view model.
type ViewModelCommandHandler interface {
	CommandFor(command string) (Command, error)
}

// ViewCommandHandler looks up commands across all views; the root view model implements it.
type ViewCommandHandler interface {
	CommandFor(view, command string) (Command, error)

	// NotifyViewTo replays every current view model to viewNotifier, e.g. a newly connected socket.
	NotifyViewTo(viewNotifier ViewNotifier)
}

// ViewNotifier receives updated view models.
type ViewNotifier interface {
	NotifyView(view string, viewModel interface{})
}
