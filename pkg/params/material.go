package params

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Material describes one material of a material table.
type Material struct {
	Density     float64 `json:"density" validate:"gt=0"` // kg/m³
	Color       string  `json:"color" validate:"required,hexcolor"`
	Description string  `json:"description,omitempty"`
}

// MaterialTable maps material names used by the design to their properties.
type MaterialTable map[string]Material

// LoadMaterials reads and validates a material table.
func LoadMaterials(path string) (MaterialTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read materials: %w", err)
	}
	var mt MaterialTable
	if err := json.Unmarshal(data, &mt); err != nil {
		return nil, fmt.Errorf("parse materials %s: %w", path, err)
	}
	for _, name := range mt.Names() {
		m := mt[name]
		if err := validate.Struct(&m); err != nil {
			return nil, fmt.Errorf("material %s: %w", name, formatValidationError(err))
		}
	}
	return mt, nil
}

// Names returns the material names in sorted order.
func (mt MaterialTable) Names() []string {
	names := make([]string, 0, len(mt))
	for n := range mt {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named material.
func (mt MaterialTable) Lookup(name string) (Material, error) {
	m, ok := mt[name]
	if !ok {
		return Material{}, fmt.Errorf("unknown material %q", name)
	}
	return m, nil
}

// Mass returns the mass in kg of volume mm³ of material m.
func (m Material) Mass(volume float64) float64 {
	return volume * 1e-9 * m.Density
}
