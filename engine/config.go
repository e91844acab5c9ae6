package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"hrsync/grid"
	"hrsync/interfaces"
	"hrsync/memory"
	"hrsync/views"
)

// Configuration is what config.json holds: the device to reconnect to and each pane's sync inputs.
type Configuration struct {
	Target *TargetConfiguration          `json:"target"`
	Panes  map[string]*PaneConfiguration `json:"panes,omitempty"`
}

type TargetConfiguration struct {
	Driver string `json:"driver"`
	Device string `json:"device"`
}

type PaneConfiguration struct {
	Address     uint32 `json:"address"`
	RowCount    uint32 `json:"rowCount,omitempty"`
	BytesPerRow uint32 `json:"bytesPerRow,omitempty"`
	GroupSize   int    `json:"groupSize,omitempty"`
	Expression  string `json:"expression,omitempty"`
	Locked      bool   `json:"locked,omitempty"`
}

// DefaultConfigPath is config.json in the user configuration directory.
func DefaultConfigPath() (string, error) {
	dir, err := interfaces.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LoadConfiguration(path string) (*Configuration, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &Configuration{}
	if err = json.Unmarshal(b, config); err != nil {
		return nil, fmt.Errorf("engine: could not json unmarshal configuration file '%s': %w", path, err)
	}
	return config, nil
}

func (config *Configuration) Save(path string) error {
	b, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("engine: could not json marshal configuration: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("engine: could not make directories along the path '%s': %w", filepath.Dir(path), err)
	}

	if err = os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("engine: could not write configuration file '%s': %w", path, err)
	}
	return nil
}

// PaneConfigurationOf captures a view's current sync inputs.
func PaneConfigurationOf(v *views.ViewState) *PaneConfiguration {
	w := v.Window()
	expr, locked := v.LockedExpression()
	pc := &PaneConfiguration{
		Address:     w.Address,
		RowCount:    w.RowCount,
		BytesPerRow: w.BytesPerRow,
		Expression:  expr,
		Locked:      locked,
	}
	if g := v.Grid(); g != nil {
		pc.GroupSize = g.GroupSize()
	}
	return pc
}

// ApplyPaneConfiguration restores a pane's window, grouping and locked expression before anything has
// been requested.
func (c *Controller) ApplyPaneConfiguration(slot memory.Slot, pc *PaneConfiguration) error {
	if pc == nil {
		return nil
	}
	v, err := c.View(slot)
	if err != nil {
		return err
	}

	w := v.Window()
	w.Address = pc.Address
	if pc.RowCount != 0 {
		w.RowCount = pc.RowCount
	}
	if pc.BytesPerRow != 0 {
		w.BytesPerRow = pc.BytesPerRow
	}

	if err = w.Validate(); err != nil {
		return fmt.Errorf("%w: config: slot %s: %v", ErrInvalidGeometry, slot, err)
	}

	if g := v.Grid(); g != nil {
		groupSize := g.GroupSize()
		if pc.GroupSize != 0 {
			groupSize = pc.GroupSize
		}
		ng, err := grid.New(int(w.BytesPerRow), groupSize)
		if err != nil {
			log.Printf("engine: config: slot %s: %v\n", slot, err)
			ng = g
		}
		v.SetGrid(ng)
		w.BytesPerRow = uint32(ng.BytesPerRow())
	}
	v.SetWindow(w)
	v.SetLockedExpression(pc.Expression, pc.Locked)
	v.Recompute(c.symbols)
	return nil
}
