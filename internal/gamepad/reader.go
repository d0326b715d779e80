package gamepad

import (
	"context"
	"runtime"
	"sync"

	"github.com/jupiterrider/purego-sdl3/sdl"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const pollDelayNS = 4_000_000 // ~250Hz, faster than the control loop

type joystickInfo struct {
	joystick *sdl.Joystick
	mapping  *DeviceMapping
	name     string
	id       sdl.JoystickID
}

// Reader polls the SDL3 Joystick API and keeps the latest state of the first
// connected controller.
type Reader struct {
	logger    *zap.SugaredLogger
	state     State
	joysticks map[sdl.JoystickID]*joystickInfo
	activeID  sdl.JoystickID
	hasActive bool
	mu        sync.RWMutex
}

func NewReader(logger *zap.SugaredLogger) *Reader {
	return &Reader{
		logger:    logger,
		joysticks: make(map[sdl.JoystickID]*joystickInfo),
	}
}

// CurrentState returns a snapshot of the active controller.
func (r *Reader) CurrentState() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Run initializes SDL and runs the event and polling loop on the current
// thread until ctx is done.
func (r *Reader) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !sdl.Init(sdl.InitJoystick) {
		return errors.Errorf("SDL init failed: %s", sdl.GetError())
	}
	defer sdl.Quit()

	r.logger.Info("SDL3 joystick subsystem initialized")

	for _, id := range sdl.GetJoysticks() {
		r.openJoystick(id)
	}

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return nil
		default:
		}

		r.processEvents()
		r.pollState()
		sdl.DelayNS(pollDelayNS)
	}
}

func (r *Reader) processEvents() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			r.openJoystick(event.JDevice().Which)
		case sdl.EventJoystickRemoved:
			r.removeJoystick(event.JDevice().Which)
		case sdl.EventJoystickButtonDown:
			be := event.JButton()
			r.logger.Debugw("button down", "index", be.Button, "joystick", be.Which)
		}
	}
}

func (r *Reader) openJoystick(instanceID sdl.JoystickID) {
	if _, exists := r.joysticks[instanceID]; exists {
		return
	}

	js := sdl.OpenJoystick(instanceID)
	if js == nil {
		r.logger.Warnw("failed to open joystick", "id", instanceID, "error", sdl.GetError())
		return
	}

	jsID := sdl.GetJoystickID(js)
	vendorID := sdl.GetJoystickVendor(js)
	productID := sdl.GetJoystickProduct(js)
	info := &joystickInfo{
		joystick: js,
		mapping:  GetMapping(vendorID, productID),
		name:     sdl.GetJoystickName(js),
		id:       jsID,
	}
	r.joysticks[jsID] = info

	r.logger.Infow("joystick connected",
		"name", info.name,
		"vid", vendorID,
		"pid", productID,
		"mapping", info.mapping.Name,
		"axes", sdl.GetNumJoystickAxes(js),
		"buttons", sdl.GetNumJoystickButtons(js),
	)

	if !r.hasActive {
		r.activate(info)
	}
}

func (r *Reader) activate(info *joystickInfo) {
	r.activeID = info.id
	r.hasActive = true
	r.logger.Infow("active joystick set", "name", info.name, "id", info.id)

	r.mu.Lock()
	r.state = State{Connected: true, Name: info.name, ControllerType: info.mapping.Name}
	r.mu.Unlock()
}

func (r *Reader) removeJoystick(instanceID sdl.JoystickID) {
	info, exists := r.joysticks[instanceID]
	if !exists {
		return
	}

	r.logger.Warnw("joystick disconnected", "name", info.name)
	sdl.CloseJoystick(info.joystick)
	delete(r.joysticks, instanceID)

	if !r.hasActive || r.activeID != instanceID {
		return
	}

	// A lost active controller stays lost, even with another one plugged in.
	r.hasActive = false
	r.mu.Lock()
	r.state = State{}
	r.mu.Unlock()
}

func (r *Reader) closeAll() {
	for id, info := range r.joysticks {
		sdl.CloseJoystick(info.joystick)
		delete(r.joysticks, id)
	}
	r.hasActive = false
	r.mu.Lock()
	r.state = State{}
	r.mu.Unlock()
}

func (r *Reader) pollState() {
	if !r.hasActive {
		return
	}

	info, exists := r.joysticks[r.activeID]
	if !exists || !sdl.JoystickConnected(info.joystick) {
		return
	}

	js := info.joystick
	state := State{
		Connected:      true,
		ControllerType: info.mapping.Name,
		Name:           info.name,
	}

	for _, am := range info.mapping.Axes {
		raw := sdl.GetJoystickAxis(js, am.Index)
		var val float64
		if am.IsTrigger {
			val = NormalizeTrigger(raw, am.RawMin, am.RawMax)
		} else {
			val = NormalizeAxis(raw)
			if am.Invert {
				val = -val
			}
		}
		state.setAxis(am.Target, val)
	}

	count := sdl.GetNumJoystickButtons(js)
	for index, b := range info.mapping.Buttons {
		if index >= count {
			continue
		}
		state.Buttons[b] = sdl.GetJoystickButton(js, index)
	}

	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}
