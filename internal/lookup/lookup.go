// Package lookup translates coded values from the backend into display labels.
//
// Tables are read once at startup and never modified afterwards; every
// method on *Tables is safe for concurrent use.
package lookup

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/etc-monitor-tui/internal/models"
)

//go:embed tables.yaml
var builtinTables []byte

// Canonical direction labels.
const (
	DirectionInbound  = "Inbound"
	DirectionOutbound = "Outbound"
)

// DefaultAlertType is shown when an alert carries no type.
const DefaultAlertType = "Cloned Plate"

// tableFile is the YAML layout of a lookup table document.
type tableFile struct {
	Stations     map[string]string `yaml:"stations"`
	VehicleTypes map[string]string `yaml:"vehicle_types"`
	Provinces    map[string]string `yaml:"provinces"`
	Directions   map[string]string `yaml:"directions"`
	AlertTypes   map[string]string `yaml:"alert_types"`
}

// Tables holds the code-to-label mappings.
type Tables struct {
	stations     map[string]string
	vehicleTypes map[string]string
	provinces    map[string]string
	directions   map[string]string
	alertTypes   map[string]string
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the built-in tables.
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Parse(builtinTables)
		if err != nil {
			panic(fmt.Sprintf("lookup: built-in tables are invalid: %v", err))
		}
		defaultTables = t
	})
	return defaultTables
}

// Parse builds Tables from a YAML document.
func Parse(data []byte) (*Tables, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse lookup tables: %w", err)
	}
	return &Tables{
		stations:     copyTable(f.Stations),
		vehicleTypes: copyTable(f.VehicleTypes),
		provinces:    copyTable(f.Provinces),
		directions:   copyTable(f.Directions),
		alertTypes:   copyTable(f.AlertTypes),
	}, nil
}

// Load returns the built-in tables merged with the operator file at path.
// Entries in the file replace built-in entries with the same code. An empty
// path returns the built-in tables.
func Load(path string) (*Tables, error) {
	base := Default()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup tables %s: %w", path, err)
	}
	override, err := Parse(data)
	if err != nil {
		return nil, err
	}

	return &Tables{
		stations:     mergeTables(base.stations, override.stations),
		vehicleTypes: mergeTables(base.vehicleTypes, override.vehicleTypes),
		provinces:    mergeTables(base.provinces, override.provinces),
		directions:   mergeTables(base.directions, override.directions),
		alertTypes:   mergeTables(base.alertTypes, override.alertTypes),
	}, nil
}

// StationLabel returns the display name of a station. A non-empty name
// supplied by the server always wins over the local table.
func (t *Tables) StationLabel(id models.StationID, serverName string) string {
	if name := strings.TrimSpace(serverName); name != "" {
		return name
	}
	if name, ok := t.stations[strings.TrimSpace(id.String())]; ok {
		return name
	}
	return "Station " + id.String()
}

// VehicleTypeLabel returns the label for a vehicle-type code, or the code
// itself when unknown.
func (t *Tables) VehicleTypeLabel(code string) string {
	if label, ok := t.vehicleTypes[strings.TrimSpace(code)]; ok {
		return label
	}
	return code
}

// ProvinceLabel returns the province name for a plate prefix, or the code
// itself when unknown.
func (t *Tables) ProvinceLabel(code string) string {
	if label, ok := t.provinces[strings.TrimSpace(code)]; ok {
		return label
	}
	return code
}

// DirectionLabel returns Inbound or Outbound for known codes. Unknown codes
// are matched against outbound tokens first, since words like "outgoing"
// also contain "in", then inbound tokens; anything else is returned unchanged.
func (t *Tables) DirectionLabel(code string) string {
	if label, ok := t.directions[strings.TrimSpace(code)]; ok {
		return label
	}
	lower := strings.ToLower(code)
	switch {
	case strings.Contains(lower, "out") || strings.Contains(lower, "出"):
		return DirectionOutbound
	case strings.Contains(lower, "in") || strings.Contains(lower, "入"):
		return DirectionInbound
	default:
		return code
	}
}

// AlertTypeLabel returns the label for an alert type. An empty type is
// reported as a cloned plate.
func (t *Tables) AlertTypeLabel(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultAlertType
	}
	if label, ok := t.alertTypes[code]; ok {
		return label
	}
	return code
}

// StationCount returns the number of stations in the local table.
func (t *Tables) StationCount() int {
	return len(t.stations)
}

func copyTable(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[strings.TrimSpace(k)] = v
	}
	return dst
}

func mergeTables(base, override map[string]string) map[string]string {
	merged := copyTable(base)
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
