package gamepad

import (
	"math"

	"github.com/pkg/errors"
)

// Axis names a logical analog channel.
type Axis uint8

const (
	AxisLeftX Axis = iota
	AxisLeftY
	AxisRightX
	AxisRightY
	AxisLT
	AxisRT
)

// Button names a logical digital control.
type Button uint8

const (
	ButtonA Button = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonLB
	ButtonRB
	ButtonSelect
	ButtonStart
	ButtonHome
	ButtonL3
	ButtonR3
	numButtons
)

var buttonNames = map[string]Button{
	"a":      ButtonA,
	"b":      ButtonB,
	"x":      ButtonX,
	"y":      ButtonY,
	"lb":     ButtonLB,
	"rb":     ButtonRB,
	"select": ButtonSelect,
	"start":  ButtonStart,
	"home":   ButtonHome,
	"l3":     ButtonL3,
	"r3":     ButtonR3,
}

// ParseButton resolves a configured button name such as "home" or "start".
func ParseButton(name string) (Button, error) {
	b, ok := buttonNames[name]
	if !ok {
		return 0, errors.Errorf("unknown button %q", name)
	}
	return b, nil
}

// AxisMapping defines how a raw axis index maps to a logical axis.
type AxisMapping struct {
	Index     int32
	Target    Axis
	IsTrigger bool
	Invert    bool
	// Trigger raw range. Some devices use -32768..32767, others 0..32767.
	RawMin int16
	RawMax int16
}

// DeviceMapping holds the complete mapping for a specific device type.
type DeviceMapping struct {
	Name    string
	Axes    []AxisMapping
	Buttons map[int32]Button
}

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	return math.Max(float64(raw)/math.MaxInt16, -1)
}

// NormalizeTrigger converts a raw trigger value to 0.0..1.0.
func NormalizeTrigger(raw int16, rawMin, rawMax int16) float64 {
	if rawMax == rawMin {
		return 0
	}
	v := (float64(raw) - float64(rawMin)) / (float64(rawMax) - float64(rawMin))
	return math.Min(math.Max(v, 0), 1)
}

// Stick Y axes report down as positive; invert so forward is positive.
var standardAxes = []AxisMapping{
	{Index: 0, Target: AxisLeftX},
	{Index: 1, Target: AxisLeftY, Invert: true},
	{Index: 2, Target: AxisRightX},
	{Index: 3, Target: AxisRightY, Invert: true},
	{Index: 4, Target: AxisLT, IsTrigger: true, RawMin: -32768, RawMax: 32767},
	{Index: 5, Target: AxisRT, IsTrigger: true, RawMin: -32768, RawMax: 32767},
}

var standardButtons = map[int32]Button{
	0: ButtonA, 1: ButtonB, 2: ButtonX, 3: ButtonY,
	4: ButtonLB, 5: ButtonRB, 6: ButtonSelect, 7: ButtonStart,
	8: ButtonL3, 9: ButtonR3, 10: ButtonHome,
}

var xboxMapping = &DeviceMapping{Name: "xbox", Axes: standardAxes, Buttons: standardButtons}

var playstationMapping = &DeviceMapping{
	Name: "playstation",
	Axes: standardAxes,
	Buttons: map[int32]Button{
		0: ButtonA,      // Cross
		1: ButtonB,      // Circle
		2: ButtonX,      // Square
		3: ButtonY,      // Triangle
		4: ButtonSelect, // Share / Create
		5: ButtonHome,   // PS button
		6: ButtonStart,  // Options
		7: ButtonL3, 8: ButtonR3,
		9: ButtonLB, 10: ButtonRB,
	},
}

// The Switch Pro controller reports ZL/ZR as buttons, so it has no
// analog triggers and cannot drive the weapon.
var switchProMapping = &DeviceMapping{Name: "switch_pro", Axes: standardAxes[:4], Buttons: standardButtons}

var genericMapping = &DeviceMapping{Name: "generic", Axes: standardAxes, Buttons: standardButtons}

type deviceKey struct {
	VendorID  uint16
	ProductID uint16
}

var knownDevices = map[deviceKey]*DeviceMapping{
	{0x045E, 0x028E}: xboxMapping,        // Xbox 360
	{0x045E, 0x02FF}: xboxMapping,        // Xbox One
	{0x045E, 0x0B12}: xboxMapping,        // Xbox Series X|S
	{0x045E, 0x0B13}: xboxMapping,        // Xbox Series X|S (wireless)
	{0x054C, 0x0CE6}: playstationMapping, // DualSense
	{0x054C, 0x09CC}: playstationMapping, // DualShock 4 v2
	{0x054C, 0x05C4}: playstationMapping, // DualShock 4 v1
	{0x057E, 0x2009}: switchProMapping,
}

// GetMapping returns the mapping for a device identified by vendor/product ID,
// falling back to the generic layout.
func GetMapping(vendorID, productID uint16) *DeviceMapping {
	if m, ok := knownDevices[deviceKey{VendorID: vendorID, ProductID: productID}]; ok {
		return m
	}
	return genericMapping
}
