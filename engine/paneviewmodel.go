package engine

import (
	"fmt"
	"unicode/utf8"

	"hrsync/grid"
	"hrsync/interfaces"
	"hrsync/views"
)

// PaneViewModel exposes one view to the UI. Its commands run on the loop.
type PaneViewModel struct {
	root   *ViewModel
	config interfaces.ConfigurationSystem
	view   *views.ViewState
	name   string

	commands map[string]interfaces.Command
}

func NewPaneViewModel(root *ViewModel, v *views.ViewState) *PaneViewModel {
	p := &PaneViewModel{root: root, config: root, view: v, name: v.Slot().String()}

	// supported commands:
	p.commands = map[string]interfaces.Command{
		"navigate": &NavigateCommandExecutor{p},
		"cursor":   &CursorCommandExecutor{p},
		"click":    &ClickCommandExecutor{p},
		"key":      &KeyCommandExecutor{p},
		"edit":     &EditCommandExecutor{p},
		"paste":    &PasteCommandExecutor{p},
		"follow":   &FollowCommandExecutor{p},
		"address":  &AddressCommandExecutor{p},
		"rows":     &RowsCommandExecutor{p},
		"mode":     &ModeCommandExecutor{p},
		"refresh":  &RefreshCommandExecutor{p},
	}

	return p
}

func (p *PaneViewModel) IsDirty() bool { return p.view.IsDirty() }
func (p *PaneViewModel) ClearDirty()   { p.view.ClearDirty() }
func (p *PaneViewModel) MarkDirty()    { p.view.MarkDirty() }

func (p *PaneViewModel) ViewModel() interface{} { return p.view.ViewModel() }

func (p *PaneViewModel) CommandFor(command string) (ce interfaces.Command, err error) {
	var ok bool
	ce, ok = p.commands[command]
	if !ok {
		err = fmt.Errorf("no command '%s' found", command)
	}
	return
}

// exec runs f against the controller on the loop. Expected outcomes such as a suppressed request
// while disconnected are not reported back to the UI.
func (p *PaneViewModel) exec(f func(c *Controller) error) error {
	err := p.root.do(func() error {
		return f(p.root.controller)
	})
	if IsQuiet(err) {
		tracef("slot %s: %v", p.view.Slot(), err)
		return nil
	}
	return err
}

type NavigateCommandExecutor struct{ p *PaneViewModel }
type NavigateCommandArgs struct {
	Move string `json:"move"`
}

func (ce *NavigateCommandExecutor) CreateArgs() interfaces.CommandArgs { return &NavigateCommandArgs{} }
func (ce *NavigateCommandExecutor) Execute(args interfaces.CommandArgs) error {
	a := args.(*NavigateCommandArgs)
	m, ok := grid.ParseMove(a.Move)
	if !ok {
		return fmt.Errorf("unknown move '%s'", a.Move)
	}
	return ce.p.exec(func(c *Controller) error {
		return c.Navigate(ce.p.view.Slot(), m)
	})
}

type CursorCommandExecutor struct{ p *PaneViewModel }

func (ce *CursorCommandExecutor) CreateArgs() interfaces.CommandArgs { return &grid.Cursor{} }
func (ce *CursorCommandExecutor) Execute(args interfaces.CommandArgs) error {
	cur := *args.(*grid.Cursor)
	return ce.p.exec(func(c *Controller) error {
		return c.SetCursor(ce.p.view.Slot(), cur)
	})
}

type ClickCommandExecutor struct{ p *PaneViewModel }
type ClickCommandArgs struct {
	X int `json:"x"`
	Y int `json:"y"`

	CharWidth    int `json:"charWidth"`
	LineHeight   int `json:"lineHeight"`
	BorderX      int `json:"borderX"`
	BorderY      int `json:"borderY"`
	AddressChars int `json:"addressChars"`
}

func (ce *ClickCommandExecutor) CreateArgs() interfaces.CommandArgs { return &ClickCommandArgs{} }
func (ce *ClickCommandExecutor) Execute(args interfaces.CommandArgs) error {
	a := args.(*ClickCommandArgs)
	layout := grid.Layout{
		CharWidth:    a.CharWidth,
		LineHeight:   a.LineHeight,
		BorderX:      a.BorderX,
		BorderY:      a.BorderY,
		AddressChars: a.AddressChars,
	}
	return ce.p.exec(func(c *Controller) error {
		return c.Click(ce.p.view.Slot(), layout, a.X, a.Y)
	})
}

type KeyCommandExecutor struct{ p *PaneViewModel }
type KeyCommandArgs struct {
	Key string `json:"key"`
}

func (ce *KeyCommandExecutor) CreateArgs() interfaces.CommandArgs { return &KeyCommandArgs{} }
func (ce *KeyCommandExecutor) Execute(args interfaces.CommandArgs) error {
	a := args.(*KeyCommandArgs)
	key, size := utf8.DecodeRuneInString(a.Key)
	if size == 0 || size != len(a.Key) {
		return fmt.Errorf("key must be a single character, got %q", a.Key)
	}
	return ce.p.exec(func(c *Controller) error {
		return c.EditKey(ce.p.view.Slot(), key)
	})
}

type EditCommandExecutor struct{ p *PaneViewModel }
type EditCommandArgs struct {
	Offset uint32 `json:"offset"`
	Value  uint8  `json:"value"`
}

func (ce *EditCommandExecutor) CreateArgs() interfaces.CommandArgs { return &EditCommandArgs{} }
func (ce *EditCommandExecutor) Execute(args interfaces.CommandArgs) error {
	a := args.(*EditCommandArgs)
	return ce.p.exec(func(c *Controller) error {
		return c.ApplyEdit(ce.p.view.Slot(), a.Offset, a.Value)
	})
}

type PasteCommandExecutor struct{ p *PaneViewModel }
type PasteCommandArgs struct {
	Offset uint32              `json:"offset"`
	Data   interfaces.HexBytes `json:"data"`
}

func (ce *PasteCommandExecutor) CreateArgs() interfaces.CommandArgs { return &PasteCommandArgs{} }
func (ce *PasteCommandExecutor) Execute(args interfaces.CommandArgs) error {
	a := args.(*PasteCommandArgs)
	return ce.p.exec(func(c *Controller) error {
		return c.ApplyEdits(ce.p.view.Slot(), a.Offset, a.Data)
	})
}

type AddressCommandExecutor struct{ p *PaneViewModel }
type AddressCommandArgs struct {
	Expression string `json:"expression"`
	Locked     bool   `json:"locked"`
}

func (ce *AddressCommandExecutor) CreateArgs() interfaces.CommandArgs { return &AddressCommandArgs{} }
func (ce *AddressCommandExecutor) Execute(args interfaces.CommandArgs) error {
	a := args.(*AddressCommandArgs)
	err := ce.p.exec(func(c *Controller) error {
		return c.SetExpression(ce.p.view.Slot(), a.Expression, a.Locked)
	})
	if err != nil {
		return err
	}
	ce.p.config.SaveConfiguration()
	return nil
}

type RowsCommandExecutor struct{ p *PaneViewModel }
type RowsCommandArgs struct {
	RowCount uint32 `json:"rowCount"`
}

func (ce *RowsCommandExecutor) CreateArgs() interfaces.CommandArgs { return &RowsCommandArgs{} }
func (ce *RowsCommandExecutor) Execute(args interfaces.CommandArgs) error {
	a := args.(*RowsCommandArgs)
	err := ce.p.exec(func(c *Controller) error {
		return c.SetRowCount(ce.p.view.Slot(), a.RowCount)
	})
	if err != nil {
		return err
	}
	ce.p.config.SaveConfiguration()
	return nil
}

type ModeCommandExecutor struct{ p *PaneViewModel }
type ModeCommandArgs struct {
	GroupSize int `json:"groupSize"`
}

func (ce *ModeCommandExecutor) CreateArgs() interfaces.CommandArgs { return &ModeCommandArgs{} }
func (ce *ModeCommandExecutor) Execute(args interfaces.CommandArgs) error {
	a := args.(*ModeCommandArgs)
	err := ce.p.exec(func(c *Controller) error {
		return c.SetMode(ce.p.view.Slot(), a.GroupSize)
	})
	if err != nil {
		return err
	}
	ce.p.config.SaveConfiguration()
	return nil
}

type FollowCommandExecutor struct{ p *PaneViewModel }

func (ce *FollowCommandExecutor) CreateArgs() interfaces.CommandArgs { return nil }
func (ce *FollowCommandExecutor) Execute(_ interfaces.CommandArgs) error {
	err := ce.p.exec(func(c *Controller) error {
		return c.Follow(ce.p.view.Slot())
	})
	if err != nil {
		return err
	}
	ce.p.config.SaveConfiguration()
	return nil
}

type RefreshCommandExecutor struct{ p *PaneViewModel }

func (ce *RefreshCommandExecutor) CreateArgs() interfaces.CommandArgs { return nil }
func (ce *RefreshCommandExecutor) Execute(_ interfaces.CommandArgs) error {
	return ce.p.exec(func(c *Controller) error {
		return c.Refresh(ce.p.view.Slot())
	})
}
