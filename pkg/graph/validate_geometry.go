package graph

import "fmt"

// ---------------------------------------------------------------------------
// Tier 2: Geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validateNonZeroDimensions(g)...)
	errs = append(errs, validateProfiles(g)...)
	errs = append(errs, validatePaths(g)...)

	warnings = append(warnings, validateMaterials(g)...)

	return errs, warnings
}

// validateNonZeroDimensions checks that every box has positive X, Y, Z and
// every cylinder a positive radius and height.
func validateNonZeroDimensions(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Sorted() {
		switch d := node.Data.(type) {
		case BoxData:
			for _, c := range []struct {
				axis string
				v    float64
			}{{"X", d.Dimensions.X}, {"Y", d.Dimensions.Y}, {"Z", d.Dimensions.Z}} {
				if c.v <= 0 {
					errs = append(errs, ValidationError{
						NodeID:   node.ID,
						Message:  fmt.Sprintf("box dimension %s is %.4f, must be positive", c.axis, c.v),
						Severity: SeverityError,
					})
				}
			}
		case CylinderData:
			if d.Radius <= 0 || d.Height <= 0 {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("cylinder radius %.4f / height %.4f must be positive", d.Radius, d.Height),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateProfiles checks that sweep profiles have a positive radius and a
// usable normal.
func validateProfiles(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Sorted() {
		pd, ok := node.Data.(ProfileData)
		if !ok {
			continue
		}
		if pd.Radius <= 0 {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("profile radius is %.4f, must be positive", pd.Radius),
				Severity: SeverityError,
			})
		}
		if pd.Normal.Length() == 0 {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  "profile normal is the zero vector",
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validatePaths checks that paths have at least one edge, that no edge is
// degenerate, and that consecutive edges share their endpoint.
func validatePaths(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Sorted() {
		pd, ok := node.Data.(PathData)
		if !ok {
			continue
		}
		if len(pd.Edges) == 0 {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  "path has no edges",
				Severity: SeverityError,
			})
			continue
		}
		for i, e := range pd.Edges {
			if e.Length() == 0 {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("path edge %s has zero length", e.Name),
					Severity: SeverityError,
				})
			}
			if i > 0 && pd.Edges[i-1].End != e.Start {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("path edge %s does not start where %s ends", e.Name, pd.Edges[i-1].Name),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateMaterials warns about solids with no material; the mass stage
// cannot weigh them.
func validateMaterials(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range g.Solids() {
		if MaterialOf(node) == "" {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("solid %q has no material; it will be excluded from the mass report", node.Name),
			})
		}
	}

	return warnings
}
