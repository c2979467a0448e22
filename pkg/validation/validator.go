package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// MaxPathNodes bounds a single simulated path; the simulator never emits
	// paths anywhere near this long, so a larger record means a broken line.
	MaxPathNodes = 4096

	// ErrNilRecord is returned for a nil record pointer.
	ErrNilRecord = errors.New("path record cannot be nil")
)

func init() {
	validate = validator.New()
	validate.RegisterStructValidation(pathRecordStructLevel, pathanalysis.PathRecord{})
}

// pathRecordStructLevel checks the cross-field contract the analyzer assumes:
// the hop list starts at the source, ends at the destination with a zero
// distance, and carries only finite distances.
func pathRecordStructLevel(sl validator.StructLevel) {
	rec := sl.Current().Interface().(pathanalysis.PathRecord)
	if len(rec.Nodes) == 0 {
		return
	}
	if rec.Nodes[0].ID != rec.Source {
		sl.ReportError(rec.Nodes, "Nodes", "Nodes", "source_first", fmt.Sprint(rec.Source))
	}
	last := rec.Nodes[len(rec.Nodes)-1]
	if last.ID != rec.Destination {
		sl.ReportError(rec.Nodes, "Nodes", "Nodes", "destination_last", fmt.Sprint(rec.Destination))
	}
	if last.DistanceToNext != 0 {
		sl.ReportError(rec.Nodes, "Nodes", "Nodes", "terminal_distance", "")
	}
	for _, hop := range rec.Nodes {
		if math.IsInf(hop.DistanceToNext, 0) {
			sl.ReportError(rec.Nodes, "Nodes", "Nodes", "finite", "")
			return
		}
	}
}

// ValidatePathRecord checks a parsed record against the analyzer's input
// contract.
func ValidatePathRecord(rec *pathanalysis.PathRecord) error {
	if rec == nil {
		return ErrNilRecord
	}

	if err := validate.Struct(rec); err != nil {
		return formatValidationError(err)
	}

	if len(rec.Nodes) > MaxPathNodes {
		return fmt.Errorf("Nodes: maximum %d nodes allowed, got %d", MaxPathNodes, len(rec.Nodes))
	}
	return nil
}

// ValidateThreshold checks a reach threshold.
func ValidateThreshold(km float64) error {
	if err := validate.Var(km, "gt=0"); err != nil || math.IsInf(km, 0) {
		return fmt.Errorf("reach threshold must be a positive finite number, got %v", km)
	}
	return nil
}

// Revisits returns the ids that occur more than once in rec, in first-repeat
// order. The analyzer works on positions, so revisits are legal; callers use
// this to flag unusual simulator output.
func Revisits(rec pathanalysis.PathRecord) []pathanalysis.NodeID {
	seen := make(map[pathanalysis.NodeID]int, len(rec.Nodes))
	var repeated []pathanalysis.NodeID
	for _, hop := range rec.Nodes {
		seen[hop.ID]++
		if seen[hop.ID] == 2 {
			repeated = append(repeated, hop.ID)
		}
	}
	return repeated
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must have at least %s element(s)", field, param)
		case "gte":
			return fmt.Errorf("%s: must be at least %s, got %v", field, param, e.Value())
		case "source_first":
			return fmt.Errorf("%s: first node must be the source %s", field, param)
		case "destination_last":
			return fmt.Errorf("%s: last node must be the destination %s", field, param)
		case "terminal_distance":
			return fmt.Errorf("%s: last node must have zero distance to next", field)
		case "finite":
			return fmt.Errorf("%s: distances must be finite", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
