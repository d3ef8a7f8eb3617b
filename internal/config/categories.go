package config

// Command categories, in the order help lists them.
const (
	CategoryInformation = "Information"
	CategoryPlayers     = "Players"
	CategoryModeration  = "Moderation"
	CategoryWorld       = "World"
	CategoryServer      = "Server"
	CategoryUtilities   = "Utilities"
)

var CategoryWeights = map[string]int{
	CategoryInformation: 0,
	CategoryPlayers:     10,
	CategoryModeration:  20,
	CategoryWorld:       30,
	CategoryServer:      40,
	CategoryUtilities:   50,
}

// CategoryWeight returns the sort weight of a category. Unknown categories
// sort last.
func CategoryWeight(name string) int {
	if w, ok := CategoryWeights[name]; ok {
		return w
	}
	return 1000
}
