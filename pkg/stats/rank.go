package stats

// Rank is a named experience threshold.
type Rank struct {
	Threshold int    `json:"threshold"`
	Name      string `json:"name"`
}

// ranks is ascending by threshold and starts at 0.
var ranks = []Rank{
	{0, "Novice"},
	{500, "Apprentice"},
	{1500, "Adept"},
	{3000, "Disciplined"},
	{6000, "Focused"},
	{10000, "Master"},
	{20000, "Kaizen Sage"},
}

// Ranks returns the rank table in ascending order.
func Ranks() []Rank {
	out := make([]Rank, len(ranks))
	copy(out, ranks)
	return out
}

// RankFor returns the highest rank whose threshold does not exceed xp.
func RankFor(xp int) Rank {
	current := ranks[0]
	for _, r := range ranks[1:] {
		if r.Threshold > xp {
			break
		}
		current = r
	}
	return current
}

// NextRank returns the first rank above xp; ok is false at the top.
func NextRank(xp int) (next Rank, ok bool) {
	for _, r := range ranks {
		if r.Threshold > xp {
			return r, true
		}
	}
	return Rank{}, false
}

// LevelFor returns 1 + xp/XPPerLevel.
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return 1 + xp/XPPerLevel
}
