package pathanalysis

import "fmt"

// Stage is a state of the per-record analysis pipeline.
//
//	START → REGEN_PLACED → PARTITIONED → OPC_PLACED → RESIDUAL_COMPUTED
//	START → UNREACHABLE
type Stage int

const (
	StageStart Stage = iota
	StageRegenPlaced
	StagePartitioned
	StageOPCPlaced
	StageResidualComputed
	StageUnreachable
)

var stageNames = [...]string{
	StageStart:            "START",
	StageRegenPlaced:      "REGEN_PLACED",
	StagePartitioned:      "PARTITIONED",
	StageOPCPlaced:        "OPC_PLACED",
	StageResidualComputed: "RESIDUAL_COMPUTED",
	StageUnreachable:      "UNREACHABLE",
}

// String returns the stage name.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Terminal reports whether no further transition leaves s.
func (s Stage) Terminal() bool {
	return s == StageResidualComputed || s == StageUnreachable
}

// next returns the successor of s on the OK path.
func (s Stage) next() Stage {
	if s >= StageStart && s < StageResidualComputed {
		return s + 1
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	for i, name := range stageNames {
		if name == string(text) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown analysis stage %q", text)
}
