package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/oreline/oreline/internal/models"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	t.Run("Iron ingot recipe", func(t *testing.T) {
		r, ok := c.Recipe("ironIngot")
		if !ok {
			t.Fatal("ironIngot recipe missing")
		}
		if r.Machine != "smelter" {
			t.Errorf("Machine = %q, want smelter", r.Machine)
		}
		if r.Inputs["ironOre"] != 5 || r.Outputs["ironIngot"] != 1 {
			t.Errorf("ironIngot = %v -> %v, want {ironOre:5} -> {ironIngot:1}", r.Inputs, r.Outputs)
		}
		if r.ProcessingTime != 2*time.Second {
			t.Errorf("ProcessingTime = %v, want 2s", r.ProcessingTime)
		}
	})

	t.Run("Machine kinds", func(t *testing.T) {
		tests := []struct {
			id   string
			want models.MachineKind
		}{
			{"miner", models.MachineKindExtraction},
			{"oilExtractor", models.MachineKindExtraction},
			{"smelter", models.MachineKindProcessing},
			{"manufacturer", models.MachineKindProcessing},
		}
		for _, tt := range tests {
			m, ok := c.Machine(tt.id)
			if !ok {
				t.Errorf("machine %q missing", tt.id)
				continue
			}
			if m.Kind != tt.want {
				t.Errorf("machine %q kind = %v, want %v", tt.id, m.Kind, tt.want)
			}
			if len(m.BuildCost) == 0 {
				t.Errorf("machine %q has no build cost", tt.id)
			}
		}
	})

	t.Run("Nodes", func(t *testing.T) {
		n, ok := c.Node("ironNode")
		if !ok {
			t.Fatal("ironNode missing")
		}
		if n.Output != "ironOre" || n.MachineRequired != "miner" || !n.ManualMineable {
			t.Errorf("ironNode = %+v", n)
		}
		oil, _ := c.Node("oilNode")
		if oil.MachineRequired != "oilExtractor" || oil.ManualMineable {
			t.Errorf("oilNode = %+v", oil)
		}
	})

	t.Run("Nodes are not recipes or machines", func(t *testing.T) {
		if _, ok := c.Recipe("ironNode"); ok {
			t.Error("ironNode resolved as a recipe")
		}
		if _, ok := c.Machine("ironNode"); ok {
			t.Error("ironNode resolved as a machine")
		}
	})

	t.Run("Milestones keep file order", func(t *testing.T) {
		ms := c.Milestones()
		if len(ms) == 0 {
			t.Fatal("no milestones")
		}
		if ms[0].ID != "base-building" {
			t.Errorf("first milestone = %q, want base-building", ms[0].ID)
		}
		if ms[0].Requirements["ironIngot"] != 20 {
			t.Errorf("base-building ironIngot = %v, want 20", ms[0].Requirements["ironIngot"])
		}
	})

	t.Run("RecipesFor", func(t *testing.T) {
		for _, r := range c.RecipesFor("smelter") {
			if r.Machine != "smelter" {
				t.Errorf("RecipesFor(smelter) returned %q for %q", r.ID, r.Machine)
			}
		}
		if got := len(c.RecipesFor("smelter")); got != 2 {
			t.Errorf("len(RecipesFor(smelter)) = %d, want 2", got)
		}
	})
}

func TestCatalog_Name(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	tests := []struct {
		id   string
		want string
	}{
		{"ironOre", "Iron Ore"},
		{models.DiscoveredNodesKey, "Discovered Nodes"},
		{"mystery", "mystery"},
	}
	for _, tt := range tests {
		if got := c.Name(tt.id); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "Malformed YAML",
			doc:     "items: [",
			wantErr: "catalog.yaml",
		},
		{
			name: "Duplicate id",
			doc: `
items:
  - {id: ironOre, category: rawMaterial}
  - {id: ironOre, category: rawMaterial}
`,
			wantErr: "duplicate id",
		},
		{
			name: "Invalid category",
			doc: `
items:
  - {id: ironOre, category: gem}
`,
			wantErr: "invalid category",
		},
		{
			name: "Recipe with unknown input",
			doc: `
items:
  - {id: ironIngot, category: intermediateProduct, inputs: {ironOre: 1}, output: {ironIngot: 1}, machine: smelter, processing_time: 1}
`,
			wantErr: "unknown item \"ironOre\"",
		},
		{
			name: "Recipe on extraction machine",
			doc: `
items:
  - {id: ironOre, category: rawMaterial}
  - {id: ironIngot, category: intermediateProduct, inputs: {ironOre: 1}, output: {ironIngot: 1}, machine: miner, processing_time: 1}
`,
			wantErr: "not a processing machine",
		},
		{
			name: "Recipe without processing time",
			doc: `
items:
  - {id: ironOre, category: rawMaterial}
  - {id: ironIngot, category: intermediateProduct, inputs: {ironOre: 1}, output: {ironIngot: 1}, machine: smelter}
`,
			wantErr: "processing_time",
		},
		{
			name: "Buildable that is not a machine",
			doc: `
items:
  - {id: teleporter, category: buildable}
`,
			wantErr: "unknown machine type",
		},
		{
			name: "Node with two outputs",
			doc: `
items:
  - {id: ironOre, category: rawMaterial}
  - {id: coal, category: rawMaterial}
  - {id: mixedNode, category: rawMaterial, output: {ironOre: 1, coal: 1}}
`,
			wantErr: "exactly one output",
		},
		{
			name: "Node requiring processing machine",
			doc: `
items:
  - {id: ironOre, category: rawMaterial}
  - {id: ironNode, category: rawMaterial, output: {ironOre: 1}, machine_required: smelter}
`,
			wantErr: "not an extraction machine",
		},
		{
			name: "Milestone unlocking unknown machine",
			doc: `
items:
  - {id: ironOre, category: rawMaterial}
milestones:
  - {id: m1, requirements: {ironOre: 1}, unlocks: [teleporter]}
`,
			wantErr: "unlocks unknown machine",
		},
		{
			name: "Milestone with unknown requirement",
			doc: `
items:
  - {id: ironOre, category: rawMaterial}
milestones:
  - {id: m1, requirements: {goldOre: 1}}
`,
			wantErr: "unknown requirement",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_DiscoveredNodesRequirement(t *testing.T) {
	doc := `
items:
  - {id: ironOre, category: rawMaterial}
milestones:
  - {id: explorer, requirements: {discoveredNodes: 3}}
`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ms := c.Milestones()
	if len(ms) != 1 || ms[0].Requirements[models.DiscoveredNodesKey] != 3 {
		t.Errorf("Milestones() = %+v", ms)
	}
	if ms[0].Name != "explorer" {
		t.Errorf("Name defaults to id, got %q", ms[0].Name)
	}
}

func TestIsNodeType(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"ironNode", true},
		{"Node", false},
		{"ironOre", false},
		{"nodeIron", false},
	}
	for _, tt := range tests {
		if got := IsNodeType(tt.id); got != tt.want {
			t.Errorf("IsNodeType(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(t.TempDir() + "/missing.yaml"); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
