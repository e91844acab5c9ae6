package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sync"

	"hrsync/interfaces"
	"hrsync/memory"
	"hrsync/views"
)

// ViewModel is the root of all view models handed to the UI. Commands arrive on UI goroutines and
// run on the Loop; view model updates are cached here so new UI connections get the latest state.
type ViewModel struct {
	loop       *Loop
	controller *Controller
	target     *TargetModel

	ctx        context.Context
	configPath string

	isLoadingConfig bool

	// dependency that notifies view of updated view model:
	viewNotifier     interfaces.ViewNotifier
	viewNotifierLock sync.Mutex

	// View Models:
	viewModels     map[string]interface{}
	viewModelsLock sync.Mutex

	targetViewModel *TargetViewModel
	panes           map[string]*PaneViewModel
}

func NewViewModel(loop *Loop, controller *Controller, target *TargetModel, configPath string) *ViewModel {
	vm := &ViewModel{
		loop:       loop,
		controller: controller,
		target:     target,
		ctx:        context.Background(),
		configPath: configPath,
		panes:      make(map[string]*PaneViewModel),
	}

	vm.targetViewModel = NewTargetViewModel(vm)

	// assign unique names to each view for easy binding with html/js UI:
	vm.viewModels = map[string]interface{}{
		"status": "Not connected",
		"target": vm.targetViewModel.ViewModel(),
		"stats":  controller.Stats().Snapshot(),
	}
	for _, v := range controller.Views() {
		p := NewPaneViewModel(vm, v)
		vm.panes[p.name] = p
		vm.viewModels[p.name] = p.ViewModel()
	}

	controller.Subscribe(func(v *views.ViewState) {
		if p, ok := vm.panes[v.Slot().String()]; ok {
			vm.NotifyViewOf(p.name, p)
		}
	})
	target.OnChange(func() {
		vm.targetViewModel.Update()
		vm.NotifyViewOf("target", vm.targetViewModel)
		if vm.target.IsConnected() {
			pair, _ := vm.target.Device()
			vm.setStatus(fmt.Sprintf("Connected to %s", pair.Device.GetDisplayName()))
		} else {
			vm.setStatus("Not connected")
		}
	})

	return vm
}

// do runs f on the loop and waits for it.
func (vm *ViewModel) do(f func() error) error {
	return vm.loop.Do(vm.ctx, f)
}

func (vm *ViewModel) Controller() *Controller { return vm.controller }

func (vm *ViewModel) GetViewModel(view string) (interface{}, bool) {
	defer vm.viewModelsLock.Unlock()
	vm.viewModelsLock.Lock()

	viewModel, ok := vm.viewModels[view]
	return viewModel, ok
}

func (vm *ViewModel) NotifyView(view string, model interface{}) {
	// allow model to customize the instance to be stored as a view model:
	viewModel := model
	if viewModeler, ok := model.(interfaces.ViewModeler); ok {
		viewModel = viewModeler.ViewModel()
	}

	// cache the viewModel for new websocket connections so they get the updates on first connect:
	vm.viewModelsLock.Lock()
	vm.viewModels[view] = viewModel
	vm.viewModelsLock.Unlock()

	// notify downstream if applicable:
	vm.viewNotifierLock.Lock()
	vn := vm.viewNotifier
	vm.viewNotifierLock.Unlock()
	if vn == nil {
		return
	}
	vn.NotifyView(view, viewModel)
}

func (vm *ViewModel) NotifyViewOf(view string, model interface{}) {
	dirtyable, isDirtyable := model.(interfaces.Dirtyable)
	if isDirtyable && !dirtyable.IsDirty() {
		return
	}

	vm.NotifyView(view, model)

	if isDirtyable {
		dirtyable.ClearDirty()
	}
}

func (vm *ViewModel) NotifyViewTo(viewNotifier interfaces.ViewNotifier) {
	if viewNotifier == nil {
		return
	}

	vm.viewModelsLock.Lock()
	cached := make(map[string]interface{}, len(vm.viewModels))
	for view, model := range vm.viewModels {
		cached[view] = model
	}
	vm.viewModelsLock.Unlock()

	// send all view models to this notifier regardless of dirty state:
	for view, model := range cached {
		viewNotifier.NotifyView(view, model)
	}
}

func (vm *ViewModel) ProvideViewNotifier(viewNotifier interfaces.ViewNotifier) {
	vm.viewNotifierLock.Lock()
	vm.viewNotifier = viewNotifier
	vm.viewNotifierLock.Unlock()
}

// Implements ViewCommandHandler
func (vm *ViewModel) CommandFor(view, command string) (ce interfaces.Command, err error) {
	var commandHandler interfaces.ViewModelCommandHandler
	if view == "target" {
		commandHandler = vm.targetViewModel
	} else if p, ok := vm.panes[view]; ok {
		commandHandler = p
	} else {
		return nil, fmt.Errorf("view=%s,cmd=%s: no view model found to handle command", view, command)
	}

	ce, err = commandHandler.CommandFor(command)
	if err != nil {
		err = fmt.Errorf("view=%s,cmd=%s: error from command handler: %w", view, command, err)
	}
	return
}

// Tooltip describes the cell under (row, col) of the named pane.
func (vm *ViewModel) Tooltip(view string, row, col int) (text string, ok bool) {
	p, found := vm.panes[view]
	if !found {
		return "", false
	}
	_ = vm.do(func() error {
		text, ok = vm.controller.Tooltip(p.view.Slot(), row, col)
		return nil
	})
	return
}

// UpdateStats pushes the current request statistics to the view.
func (vm *ViewModel) UpdateStats() {
	vm.NotifyView("stats", vm.controller.Stats().Snapshot())
}

func (vm *ViewModel) setStatus(msg string) {
	log.Printf("notify: %s\n", msg)
	vm.NotifyView("status", msg)
}

// Init detects devices, restores the saved configuration and reconnects to the saved device.
// The loop must be running.
func (vm *ViewModel) Init(ctx context.Context) {
	vm.ctx = ctx

	vm.targetViewModel.Init()
	if err := vm.do(func() error {
		vm.targetViewModel.Update()
		vm.NotifyViewOf("target", vm.targetViewModel)
		return nil
	}); err != nil {
		return
	}

	vm.LoadConfiguration()
}

func (vm *ViewModel) LoadConfiguration() bool {
	if vm.configPath == "" || vm.isLoadingConfig {
		return false
	}

	defer func() {
		vm.isLoadingConfig = false
	}()
	log.Printf("viewmodel: loadConfiguration: loading...\n")
	vm.isLoadingConfig = true

	config, err := LoadConfiguration(vm.configPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("viewmodel: loadConfiguration: no configuration file at '%s'\n", vm.configPath)
		return false
	}
	if err != nil {
		log.Printf("viewmodel: loadConfiguration: %v\n", err)
		return false
	}

	err = vm.do(func() error {
		for name, pc := range config.Panes {
			slot, ok := memory.ParseSlot(name)
			if !ok {
				log.Printf("viewmodel: loadConfiguration: unknown pane '%s'\n", name)
				continue
			}
			if err := vm.controller.ApplyPaneConfiguration(slot, pc); err != nil {
				log.Printf("viewmodel: loadConfiguration: pane '%s': %v\n", name, err)
				continue
			}
			if p, ok := vm.panes[name]; ok {
				p.view.MarkDirty()
				vm.NotifyViewOf(name, p)
			}
		}
		return nil
	})
	if err != nil {
		return false
	}

	if t := config.Target; t != nil && t.Driver != "" {
		if err = vm.targetViewModel.Connect(t.Driver, t.Device); err != nil {
			log.Printf("viewmodel: loadConfiguration: reconnect: %v\n", err)
		}
	}

	log.Printf("viewmodel: loadConfiguration: loaded\n")
	return true
}

// ConnectTo detects devices again and connects to one, remembering it in the configuration.
func (vm *ViewModel) ConnectTo(driverName, deviceId string) error {
	vm.targetViewModel.Detect()
	if err := vm.targetViewModel.Connect(driverName, deviceId); err != nil {
		return err
	}
	vm.SaveConfiguration()
	return nil
}

// Configuration captures the device and every pane's sync inputs.
func (vm *ViewModel) Configuration() *Configuration {
	config := &Configuration{Panes: make(map[string]*PaneConfiguration, len(vm.panes))}
	if pair, ok := vm.target.Device(); ok {
		config.Target = &TargetConfiguration{
			Driver: pair.NamedDriver.Name,
			Device: pair.Device.GetId(),
		}
	}
	for name, p := range vm.panes {
		config.Panes[name] = PaneConfigurationOf(p.view)
	}
	return config
}

func (vm *ViewModel) SaveConfiguration() bool {
	if vm.configPath == "" || vm.isLoadingConfig {
		return false
	}

	if err := vm.Configuration().Save(vm.configPath); err != nil {
		log.Printf("viewmodel: saveConfiguration: %v\n", err)
		return false
	}

	log.Printf("viewmodel: saveConfiguration: saved configuration to file '%s'\n", vm.configPath)
	return true
}
