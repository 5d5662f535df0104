package aircraft

// Color is a team color pair as 0xRRGGBB integers.
type Color struct {
	Main int `json:"main"`
	Wing int `json:"wing"`
}

// Palette is the fixed team palette, indexed by join order.
var Palette = [8]Color{
	{Main: 0x3b82f6, Wing: 0x1d4ed8}, // blue
	{Main: 0xef4444, Wing: 0xb91c1c}, // red
	{Main: 0x22c55e, Wing: 0x15803d}, // green
	{Main: 0xf59e0b, Wing: 0xd97706}, // yellow
	{Main: 0x8b5cf6, Wing: 0x6d28d9}, // purple
	{Main: 0xec4899, Wing: 0xbe185d}, // pink
	{Main: 0x06b6d4, Wing: 0x0891b2}, // cyan
	{Main: 0xf97316, Wing: 0xea580c}, // orange
}

// PaletteIndex returns the palette slot for a player joining a room that
// already holds playerCount players.
//
// Precondition: playerCount >= 0.
// Postcondition: 0 <= result < len(Palette).
func PaletteIndex(playerCount int) int {
	return playerCount % len(Palette)
}
