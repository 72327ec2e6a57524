package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	MaxIterations  int `yaml:"max_iterations"`
	GridWidth      int `yaml:"grid_width"`
	InventorySlots int `yaml:"inventory_slots"`
	MaxQueue       int `yaml:"max_queue"`

	Audit Audit `yaml:"audit"`
}

type Audit struct {
	DisableDB bool `yaml:"disable_db"`
	JSONL     bool `yaml:"jsonl"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		MaxIterations:   64,
		GridWidth:       2,
		InventorySlots:  36,
		MaxQueue:        16,
		Audit:           Audit{JSONL: true},
	}
}

// Load reads a tuning file over the defaults; keys absent from the file keep
// their default values.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be >= 1, got %d", t.MaxIterations)
	}
	if t.GridWidth != 2 && t.GridWidth != 3 {
		return fmt.Errorf("grid_width must be 2 or 3, got %d", t.GridWidth)
	}
	if t.InventorySlots < 1 {
		return fmt.Errorf("inventory_slots must be >= 1, got %d", t.InventorySlots)
	}
	if t.MaxQueue < 1 || t.MaxQueue > 64 {
		return fmt.Errorf("max_queue must be in [1,64], got %d", t.MaxQueue)
	}
	return nil
}
