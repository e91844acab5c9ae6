package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"hrsync/interfaces"
	"hrsync/target"
)

const detectInterval = 2 * time.Second

// TargetViewModel lists drivers and their devices and carries the connect/disconnect commands.
// Must be JSON serializable.
type TargetViewModel struct {
	commands map[string]interfaces.Command

	root    *ViewModel
	isClean bool

	Drivers     []*DriverViewModel `json:"drivers"`
	IsConnected bool               `json:"isConnected"`
	IsRunning   bool               `json:"isRunning"`
}

type DriverViewModel struct {
	namedDriver target.NamedDriver
	devices     []target.DeviceDescriptor

	Name string `json:"name"`

	DisplayName        string `json:"displayName"`
	DisplayDescription string `json:"displayDescription"`
	DisplayOrder       int    `json:"displayOrder"`

	Devices        []DeviceViewModel `json:"devices"`
	SelectedDevice string            `json:"selectedDevice"`

	IsConnected bool `json:"isConnected"`
}

type DeviceViewModel struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
}

func NewTargetViewModel(root *ViewModel) *TargetViewModel {
	v := &TargetViewModel{root: root}

	// supported commands:
	v.commands = map[string]interfaces.Command{
		"connect":    &ConnectCommandExecutor{v},
		"disconnect": &DisconnectCommandExecutor{v},
		"break":      &BreakCommandExecutor{v},
		"continue":   &ContinueCommandExecutor{v},
	}

	return v
}

func (v *TargetViewModel) IsDirty() bool { return !v.isClean }
func (v *TargetViewModel) ClearDirty()   { v.isClean = true }
func (v *TargetViewModel) MarkDirty()    { v.isClean = false }

// ViewModel hands the UI a copy that can be marshalled off the loop.
func (v *TargetViewModel) ViewModel() interface{} {
	c := &TargetViewModel{
		IsConnected: v.IsConnected,
		IsRunning:   v.IsRunning,
		Drivers:     make([]*DriverViewModel, len(v.Drivers)),
	}
	for i, dvm := range v.Drivers {
		dc := *dvm
		dc.Devices = append([]DeviceViewModel(nil), dvm.Devices...)
		c.Drivers[i] = &dc
	}
	return c
}

func (v *TargetViewModel) setDevices(dvm *DriverViewModel, devices []target.DeviceDescriptor) {
	dvm.devices = devices
	dvm.Devices = make([]DeviceViewModel, len(devices))
	for i, dv := range devices {
		dvm.Devices[i] = DeviceViewModel{Id: dv.GetId(), DisplayName: dv.GetDisplayName()}
	}
}

// Init detects devices once for every registered driver.
func (v *TargetViewModel) Init() {
	dvs := target.Drivers()
	drivers := make([]*DriverViewModel, len(dvs))
	for i, dv := range dvs {
		dvm := &DriverViewModel{namedDriver: dv, Name: dv.Name}
		drivers[i] = dvm
		if descriptor, ok := dv.Driver.(target.DriverDescriptor); ok {
			dvm.DisplayOrder = descriptor.DisplayOrder()
			dvm.DisplayName = descriptor.DisplayName()
			dvm.DisplayDescription = descriptor.DisplayDescription()
		} else {
			dvm.DisplayName = dv.Name
			dvm.DisplayDescription = dv.Name + " driver"
		}
		v.setDevices(dvm, detect(dv))
	}

	_ = v.root.do(func() error {
		v.Drivers = drivers
		return nil
	})
}

func detect(dv target.NamedDriver) []target.DeviceDescriptor {
	devices, err := dv.Driver.Detect()
	if err != nil {
		log.Printf("targetviewmodel: detect[%s]: %v\n", dv.Name, err)
		return nil
	}
	return devices
}

// Detect re-runs detection while disconnected and reports whether any device list changed.
// Probing happens on the calling goroutine; the results are applied on the loop.
func (v *TargetViewModel) Detect() bool {
	if v.root.target.IsConnected() {
		return false
	}

	var drivers []*DriverViewModel
	if err := v.root.do(func() error {
		drivers = append(drivers, v.Drivers...)
		return nil
	}); err != nil {
		return false
	}

	detected := make([][]target.DeviceDescriptor, len(drivers))
	for i, dvm := range drivers {
		detected[i] = detect(dvm.namedDriver)
	}

	needUpdate := false
	_ = v.root.do(func() error {
		for i, dvm := range drivers {
			devices := detected[i]
			replace := len(dvm.devices) != len(devices)
			for j := 0; !replace && j < len(devices); j++ {
				replace = devices[j].GetId() != dvm.devices[j].GetId()
			}
			if !replace {
				continue
			}

			v.setDevices(dvm, devices)
			needUpdate = true
		}
		if needUpdate {
			v.Update()
			v.root.NotifyViewOf("target", v)
		}
		return nil
	})
	return needUpdate
}

// DetectPeriodically polls for devices until ctx is done.
func (v *TargetViewModel) DetectPeriodically(ctx context.Context) {
	t := time.NewTicker(detectInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			v.Detect()
		case <-ctx.Done():
			return
		}
	}
}

func (v *TargetViewModel) Update() {
	v.IsConnected = v.root.target.IsConnected()
	v.IsRunning = v.root.target.IsRunning()

	pair, connected := v.root.target.Device()
	for _, dvm := range v.Drivers {
		dvm.IsConnected = connected && pair.NamedDriver.Name == dvm.Name
		if !dvm.IsConnected {
			dvm.SelectedDevice = ""
		} else {
			dvm.SelectedDevice = pair.Device.GetId()
		}
	}

	v.isClean = false
}

// Commands:
func (v *TargetViewModel) CommandFor(command string) (ce interfaces.Command, err error) {
	var ok bool
	ce, ok = v.commands[command]
	if !ok {
		err = fmt.Errorf("no command '%s' found", command)
	}
	return
}

func (v *TargetViewModel) FindNamedDriver(driverName string) *DriverViewModel {
	for _, dvm := range v.Drivers {
		if dvm.Name == driverName {
			return dvm
		}
	}
	return nil
}

// Connect opens deviceId on the named driver. An empty device id picks the first detected device.
func (v *TargetViewModel) Connect(driverName, deviceId string) error {
	var pair target.NamedDriverDevicePair
	err := v.root.do(func() error {
		dvm := v.FindNamedDriver(driverName)
		if dvm == nil {
			return fmt.Errorf("target driver not found by name '%s'", driverName)
		}

		for _, dv := range dvm.devices {
			if deviceId == "" || dv.GetId() == deviceId {
				pair = target.NamedDriverDevicePair{NamedDriver: dvm.namedDriver, Device: dv}
				return nil
			}
		}
		return fmt.Errorf("target driver '%s' device '%s' not found", driverName, deviceId)
	})
	if err != nil {
		return err
	}

	// opening may block on I/O so it stays off the loop:
	return v.root.target.Connect(pair)
}

type ConnectCommandExecutor struct{ v *TargetViewModel }
type ConnectCommandArgs struct {
	Driver string `json:"driver"`
	Device string `json:"device"`
}

func (c *ConnectCommandExecutor) CreateArgs() interfaces.CommandArgs { return &ConnectCommandArgs{} }
func (c *ConnectCommandExecutor) Execute(args interfaces.CommandArgs) error {
	a := args.(*ConnectCommandArgs)
	if err := c.v.Connect(a.Driver, a.Device); err != nil {
		return err
	}
	c.v.root.SaveConfiguration()
	return nil
}

type DisconnectCommandExecutor struct{ v *TargetViewModel }

func (c *DisconnectCommandExecutor) CreateArgs() interfaces.CommandArgs { return nil }
func (c *DisconnectCommandExecutor) Execute(_ interfaces.CommandArgs) error {
	c.v.root.target.Disconnect()
	return nil
}

type BreakCommandExecutor struct{ v *TargetViewModel }

func (c *BreakCommandExecutor) CreateArgs() interfaces.CommandArgs { return nil }
func (c *BreakCommandExecutor) Execute(_ interfaces.CommandArgs) error {
	return c.v.root.target.Break()
}

type ContinueCommandExecutor struct{ v *TargetViewModel }

func (c *ContinueCommandExecutor) CreateArgs() interfaces.CommandArgs { return nil }
func (c *ContinueCommandExecutor) Execute(_ interfaces.CommandArgs) error {
	return c.v.root.target.Continue()
}
