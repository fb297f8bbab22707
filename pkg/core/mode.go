// pkg/core/mode.go
package core

import "fmt"

// ReferenceMode records which measurement served as the metric yardstick.
// The set is closed; switch statements over it should cover every value.
type ReferenceMode uint8

const (
	ModeNone ReferenceMode = iota
	ModeBBox
	ModeTorsoFull
	ModeTorsoLeft
	ModeTorsoRight
	ModeShoulders
	ModeLegLeft
	ModeLegRight
	ModeArmLeft
	ModeArmRight

	numModes
)

var modeNames = [numModes]string{
	ModeNone:       "None",
	ModeBBox:       "BBox",
	ModeTorsoFull:  "Torso_Full",
	ModeTorsoLeft:  "Torso_Left",
	ModeTorsoRight: "Torso_Right",
	ModeShoulders:  "Shoulders",
	ModeLegLeft:    "Leg_Left",
	ModeLegRight:   "Leg_Right",
	ModeArmLeft:    "Arm_Left",
	ModeArmRight:   "Arm_Right",
}

// ReferenceModes lists every mode in declaration order.
func ReferenceModes() []ReferenceMode {
	modes := make([]ReferenceMode, 0, numModes)
	for m := ModeNone; m < numModes; m++ {
		modes = append(modes, m)
	}
	return modes
}

// IsValid reports whether m is one of the declared modes.
func (m ReferenceMode) IsValid() bool {
	return m < numModes
}

func (m ReferenceMode) String() string {
	if !m.IsValid() {
		return fmt.Sprintf("ReferenceMode(%d)", uint8(m))
	}
	return modeNames[m]
}

// ParseReferenceMode is the inverse of String.
func ParseReferenceMode(s string) (ReferenceMode, error) {
	for m, name := range modeNames {
		if name == s {
			return ReferenceMode(m), nil
		}
	}
	return ModeNone, fmt.Errorf("unknown reference mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m ReferenceMode) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("invalid reference mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ReferenceMode) UnmarshalText(b []byte) error {
	v, err := ParseReferenceMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
