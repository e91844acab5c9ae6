package interfaces

// ConfigurationSystem persists the state of every view model.
type ConfigurationSystem interface {
	LoadConfiguration() bool
	SaveConfiguration() bool
}
