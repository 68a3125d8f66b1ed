package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oreline/oreline/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// file is the YAML document layout.
type file struct {
	Items      []itemEntry      `yaml:"items"`
	Milestones []milestoneEntry `yaml:"milestones"`
}

type itemEntry struct {
	ID              string             `yaml:"id"`
	Name            string             `yaml:"name"`
	Category        Category           `yaml:"category"`
	Inputs          map[string]float64 `yaml:"inputs"`
	Output          map[string]float64 `yaml:"output"`
	Machine         string             `yaml:"machine"`
	ProcessingTime  float64            `yaml:"processing_time"`
	ManualMineable  bool               `yaml:"manual_mineable"`
	MachineRequired string             `yaml:"machine_required"`
}

type milestoneEntry struct {
	ID           string             `yaml:"id"`
	Name         string             `yaml:"name"`
	Requirements map[string]float64 `yaml:"requirements"`
	Unlocks      []string           `yaml:"unlocks"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(raw)
}

// Parse resolves a YAML catalog document into typed definitions.
func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog.yaml: %w", err)
	}
	c, err := resolve(f)
	if err != nil {
		return nil, fmt.Errorf("catalog.yaml: %w", err)
	}
	return c, nil
}

func resolve(f file) (*Catalog, error) {
	c := &Catalog{
		items:    make(map[string]ItemDef, len(f.Items)),
		recipes:  make(map[string]RecipeDef),
		machines: make(map[string]MachineDef),
		nodes:    make(map[string]NodeDef),
	}

	var errs []error

	for i, e := range f.Items {
		if e.ID == "" {
			errs = append(errs, fmt.Errorf("items[%d]: id is required", i))
			continue
		}
		if _, dup := c.items[e.ID]; dup {
			errs = append(errs, fmt.Errorf("item %q: duplicate id", e.ID))
			continue
		}
		if !e.Category.Valid() {
			errs = append(errs, fmt.Errorf("item %q: invalid category %q", e.ID, e.Category))
		}
		name := e.Name
		if name == "" {
			name = e.ID
		}
		c.items[e.ID] = ItemDef{
			ID:             e.ID,
			Name:           name,
			Category:       e.Category,
			ManualMineable: e.ManualMineable,
		}
	}

	for _, e := range f.Items {
		if e.ID == "" {
			continue
		}
		name := c.items[e.ID].Name
		errs = append(errs, c.checkRefs(e.ID, e.Inputs, e.Output)...)

		switch {
		case IsNodeType(e.ID):
			if len(e.Output) != 1 {
				errs = append(errs, fmt.Errorf("node %q: exactly one output item is required", e.ID))
				continue
			}
			if e.MachineRequired != "" {
				if k, ok := machineKinds[e.MachineRequired]; !ok || k != models.MachineKindExtraction {
					errs = append(errs, fmt.Errorf("node %q: machine_required %q is not an extraction machine", e.ID, e.MachineRequired))
				}
			}
			var output string
			for k := range e.Output {
				output = k
			}
			c.nodes[e.ID] = NodeDef{
				ID:              e.ID,
				Name:            name,
				Output:          output,
				MachineRequired: e.MachineRequired,
				ManualMineable:  e.ManualMineable,
			}

		case e.Category == CategoryBuildable:
			kind, ok := machineKinds[e.ID]
			if !ok {
				errs = append(errs, fmt.Errorf("buildable %q: unknown machine type", e.ID))
				continue
			}
			c.machines[e.ID] = MachineDef{
				ID:        e.ID,
				Name:      name,
				Kind:      kind,
				BuildCost: models.ItemAmounts(e.Inputs).Clone(),
			}

		case len(e.Inputs) > 0 || len(e.Output) > 0 || e.Machine != "":
			if len(e.Inputs) == 0 || len(e.Output) == 0 || e.Machine == "" {
				errs = append(errs, fmt.Errorf("recipe %q: inputs, output and machine are all required", e.ID))
				continue
			}
			if k, ok := machineKinds[e.Machine]; !ok || k != models.MachineKindProcessing {
				errs = append(errs, fmt.Errorf("recipe %q: machine %q is not a processing machine", e.ID, e.Machine))
				continue
			}
			if e.ProcessingTime <= 0 {
				errs = append(errs, fmt.Errorf("recipe %q: processing_time must be positive", e.ID))
				continue
			}
			c.recipes[e.ID] = RecipeDef{
				ID:             e.ID,
				Name:           name,
				Inputs:         models.ItemAmounts(e.Inputs).Clone(),
				Outputs:        models.ItemAmounts(e.Output).Clone(),
				Machine:        e.Machine,
				ProcessingTime: time.Duration(e.ProcessingTime * float64(time.Second)),
			}
		}
	}

	seen := make(map[string]bool, len(f.Milestones))
	for i, m := range f.Milestones {
		if m.ID == "" {
			errs = append(errs, fmt.Errorf("milestones[%d]: id is required", i))
			continue
		}
		if seen[m.ID] {
			errs = append(errs, fmt.Errorf("milestone %q: duplicate id", m.ID))
			continue
		}
		seen[m.ID] = true
		if len(m.Requirements) == 0 {
			errs = append(errs, fmt.Errorf("milestone %q: at least one requirement is required", m.ID))
		}
		for key, threshold := range m.Requirements {
			if key != models.DiscoveredNodesKey {
				if _, ok := c.items[key]; !ok {
					errs = append(errs, fmt.Errorf("milestone %q: unknown requirement %q", m.ID, key))
				}
			}
			if threshold <= 0 {
				errs = append(errs, fmt.Errorf("milestone %q: requirement %q must be positive", m.ID, key))
			}
		}
		for _, u := range m.Unlocks {
			if _, ok := c.machines[u]; !ok {
				errs = append(errs, fmt.Errorf("milestone %q: unlocks unknown machine %q", m.ID, u))
			}
		}
		name := m.Name
		if name == "" {
			name = m.ID
		}
		c.milestones = append(c.milestones, MilestoneDef{
			ID:           m.ID,
			Name:         name,
			Requirements: models.ItemAmounts(m.Requirements).Clone(),
			Unlocks:      append([]string(nil), m.Unlocks...),
		})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func (c *Catalog) checkRefs(id string, maps ...map[string]float64) []error {
	var errs []error
	for _, m := range maps {
		for item, qty := range m {
			if _, ok := c.items[item]; !ok {
				errs = append(errs, fmt.Errorf("item %q: references unknown item %q", id, item))
			}
			if qty <= 0 {
				errs = append(errs, fmt.Errorf("item %q: quantity of %q must be positive", id, item))
			}
		}
	}
	return errs
}
