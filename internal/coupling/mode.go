package coupling

import (
	"errors"
	"fmt"
)

var ErrInvalidArgument = errors.New("coupling: invalid argument")

type Mode int

const (
	OrbitalOnly Mode = iota
	RigidOnly
	Coupled
)

var modeNames = map[Mode]string{
	OrbitalOnly: "ORBITAL_ONLY",
	RigidOnly:   "RIGID_ONLY",
	Coupled:     "COUPLED",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// UsesRigid reports whether the rigid world holds a body for this mode.
func (m Mode) UsesRigid() bool { return m == RigidOnly || m == Coupled }

// UsesOrbital reports whether the trajectory drives the object.
func (m Mode) UsesOrbital() bool { return m == OrbitalOnly || m == Coupled }

func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, s)
}

// Reason tags a decision for telemetry. Policies may define their own.
type Reason string

const (
	ReasonNoChange             Reason = "NO_CHANGE"
	ReasonEnteredCaptureRadius Reason = "ENTERED_CAPTURE_RADIUS"
	ReasonLeftReleaseRadius    Reason = "LEFT_RELEASE_RADIUS"
	ReasonForced               Reason = "FORCED"
)
