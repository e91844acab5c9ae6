package interfaces

// Dirtyable view models are only published when marked dirty.
type Dirtyable interface {
	IsDirty() bool
	ClearDirty()
	MarkDirty()
}
