package views

import "hrsync/grid"

// Model is the json-serializable form of a view handed to the UI.
type Model struct {
	Slot       string      `json:"slot"`
	Kind       string      `json:"kind"`
	Window     Window      `json:"window"`
	IsCurrent  bool        `json:"isCurrent"`
	Locked     bool        `json:"locked"`
	Expression string      `json:"expression,omitempty"`
	Cursor     grid.Cursor `json:"cursor"`
	GroupSize  int         `json:"groupSize,omitempty"`
	Rows       []Row       `json:"rows"`
}

// ViewModel implements interfaces.ViewModeler.
func (v *ViewState) ViewModel() interface{} {
	expr, locked := v.LockedExpression()
	m := &Model{
		Slot:       v.slot.String(),
		Kind:       v.kind.String(),
		Window:     v.Window(),
		IsCurrent:  v.IsCurrent(),
		Locked:     locked,
		Expression: expr,
		Cursor:     v.Cursor(),
		Rows:       v.Rows(),
	}
	if g := v.Grid(); g != nil {
		m.GroupSize = g.GroupSize()
	}
	return m
}
