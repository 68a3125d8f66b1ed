package testutil

import (
	"testing"

	"github.com/oreline/oreline/internal/catalog"
)

// testCatalogYAML is a small catalog with one of everything the simulation
// distinguishes: manual and machine-only nodes, single and multi-input
// recipes, starter and milestone-locked machines.
const testCatalogYAML = `
items:
  - {id: ironOre, name: Iron Ore, category: rawMaterial}
  - {id: copperOre, name: Copper Ore, category: rawMaterial}
  - {id: coal, name: Coal, category: rawMaterial}
  - {id: crudeOil, name: Crude Oil, category: rawMaterial}

  - {id: ironNode, name: Iron Deposit, category: rawMaterial, output: {ironOre: 1}, machine_required: miner, manual_mineable: true}
  - {id: copperNode, name: Copper Deposit, category: rawMaterial, output: {copperOre: 1}, machine_required: miner}
  - {id: oilNode, name: Oil Well, category: rawMaterial, output: {crudeOil: 1}, machine_required: oilExtractor}

  - {id: ironIngot, name: Iron Ingot, category: intermediateProduct, inputs: {ironOre: 5}, output: {ironIngot: 1}, machine: smelter, processing_time: 2}
  - {id: wire, name: Wire, category: intermediateProduct, inputs: {copperOre: 1, ironIngot: 1}, output: {wire: 2}, machine: constructor, processing_time: 4}
  - {id: plate, name: Plate, category: finalProduct, inputs: {ironIngot: 1, wire: 1, coal: 1}, output: {plate: 1}, machine: assembler, processing_time: 3}

  - {id: miner, name: Miner, category: buildable, inputs: {ironIngot: 2}}
  - {id: smelter, name: Smelter, category: buildable, inputs: {ironIngot: 1, wire: 1}}
  - {id: constructor, name: Constructor, category: buildable, inputs: {ironIngot: 5}}
  - {id: assembler, name: Assembler, category: buildable, inputs: {ironIngot: 10}}
  - {id: oilExtractor, name: Oil Extractor, category: buildable, inputs: {ironIngot: 20}}

milestones:
  - {id: first-ingots, name: First Ingots, requirements: {ironIngot: 20}, unlocks: [constructor]}
  - {id: wiring, name: Wiring, requirements: {wire: 10, discoveredNodes: 3}, unlocks: [assembler, oilExtractor]}
`

// TestCatalog returns the small catalog used across service tests.
func TestCatalog(t testing.TB) *catalog.Catalog {
	t.Helper()

	c, err := catalog.Parse([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("failed to parse test catalog: %v", err)
	}
	return c
}

// DefaultCatalog returns the embedded game catalog.
func DefaultCatalog(t testing.TB) *catalog.Catalog {
	t.Helper()

	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("failed to load default catalog: %v", err)
	}
	return c
}
