package reports

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTank = errors.New("unknown tank")
	ErrUnknownPump = errors.New("unknown pump")
)

// TankID names one of the four storage tanks of a station.
type TankID string

const (
	Tank1 TankID = "Tank 1"
	Tank2 TankID = "Tank 2"
	Tank3 TankID = "Tank 3"
	Tank4 TankID = "Tank 4"
)

// PumpID names one of the four dispensing pumps of a station.
type PumpID string

const (
	PumpA PumpID = "Pump A"
	PumpB PumpID = "Pump B"
	PumpC PumpID = "Pump C"
	PumpD PumpID = "Pump D"
)

func (t TankID) String() string {
	return string(t)
}

func (p PumpID) String() string {
	return string(p)
}

func Tanks() []TankID {
	return []TankID{Tank1, Tank2, Tank3, Tank4}
}

func Pumps() []PumpID {
	return []PumpID{PumpA, PumpB, PumpC, PumpD}
}

// ParseTankID accepts a tank name in any letter case and returns its canonical form.
func ParseTankID(s string) (TankID, error) {
	for _, t := range Tanks() {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownTank, s)
}

// ParsePumpID accepts a pump name in any letter case and returns its canonical form.
func ParsePumpID(s string) (PumpID, error) {
	for _, p := range Pumps() {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownPump, s)
}
