package machines

// PlaceInput contains data for placing a machine.
type PlaceInput struct {
	ItemID   string // machine type to take from inventory
	NodeID   string // required for extraction machines
	RecipeID string // optional for processing machines
}
