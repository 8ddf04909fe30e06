package track

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/apexgrid/racedash/geo"
)

// Definition is a static track definition: an ordered list of geodetic
// centerline points, logically closed (last point connects to the first).
type Definition struct {
	Name   string         `json:"name"`
	Points []geo.GeoPoint `json:"points"`
}

// LoadDefinition reads a track definition from a JSON file.
func LoadDefinition(path string) (Definition, error) {
	var def Definition
	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("read track definition: %w", err)
	}
	if err := json.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("parse track definition: %w", err)
	}
	if len(def.Points) == 0 {
		return def, fmt.Errorf("track definition %s has no points", path)
	}
	return def, nil
}
