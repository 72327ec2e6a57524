package crafting

import "craftguard/internal/sim/item"

// achievementByResult maps a crafted item id to the achievement it unlocks.
var achievementByResult = map[string]string{
	"CRAFTING_TABLE":  "buildWorkBench",
	"WOODEN_PICKAXE":  "buildPickaxe",
	"FURNACE":         "buildFurnace",
	"WOODEN_HOE":      "buildHoe",
	"BREAD":           "makeBread",
	"CAKE":            "bakeCake",
	"STONE_PICKAXE":   "buildBetterPickaxe",
	"GOLDEN_PICKAXE":  "buildBetterPickaxe",
	"IRON_PICKAXE":    "buildBetterPickaxe",
	"DIAMOND_PICKAXE": "buildBetterPickaxe",
	"WOODEN_SWORD":    "buildSword",
	"DIAMOND":         "diamond",
}

// Achievements lists the achievements unlocked by crafting results, one per
// result stack in order, duplicates removed.
func Achievements(results []item.Stack) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range results {
		a, ok := achievementByResult[r.Kind]
		if !ok || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
