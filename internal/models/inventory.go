package models

// InventoryEntry is the player's stock of one item.
// Amount is kept within [0, resource cap] by the inventory ledger.
type InventoryEntry struct {
	ItemID string
	Name   string
	Amount float64
}

// OwnedMachine is a built machine the player owns.
// The record outlives placement; a placed machine shares its ID.
type OwnedMachine struct {
	ID              string
	Type            string
	CurrentRecipeID string
	Placed          bool
}
