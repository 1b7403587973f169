package achievements

// Rarest is the rarest unlocked achievement, identified by name and owning game
type Rarest struct {
	Name    string  `json:"name" yaml:"name"`
	Game    string  `json:"game" yaml:"game"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Aggregate sums achievement progress across a library. A nil *Aggregate
// means the library has no achievements at all.
type Aggregate struct {
	TotalAchieved int     `json:"total_achieved" yaml:"total_achieved"`
	TotalPossible int     `json:"total_possible" yaml:"total_possible"`
	PerfectGames  int     `json:"perfect_games" yaml:"perfect_games"`
	Rarest        *Rarest `json:"rarest,omitempty" yaml:"rarest,omitempty"`
}

// CompletionPercent returns achieved/possible as a percentage.
func (a *Aggregate) CompletionPercent() float64 {
	if a == nil || a.TotalPossible == 0 {
		return 0
	}
	return float64(a.TotalAchieved) / float64(a.TotalPossible) * 100
}

// GameResult is the achievement summary of one game, live or cached
type GameResult struct {
	Game     string
	Achieved int
	Total    int
	Rarest   *Rarest
}

// Perfect reports whether every achievement of a game with achievements is unlocked.
func (r GameResult) Perfect() bool {
	return r.Total > 0 && r.Achieved == r.Total
}

// Reduce folds per-game results into one Aggregate. It returns nil when no
// game has any achievements. Equal percentages are ordered by game name and
// then achievement name, so the overall rarest does not depend on library order.
func Reduce(results []GameResult) *Aggregate {
	agg := &Aggregate{}
	for _, r := range results {
		agg.TotalAchieved += r.Achieved
		agg.TotalPossible += r.Total
		if r.Perfect() {
			agg.PerfectGames++
		}
		if r.Rarest != nil && (agg.Rarest == nil || rarer(*r.Rarest, *agg.Rarest)) {
			rarest := *r.Rarest
			agg.Rarest = &rarest
		}
	}

	if agg.TotalPossible == 0 {
		return nil
	}
	return agg
}

func rarer(a, b Rarest) bool {
	if a.Percent != b.Percent {
		return a.Percent < b.Percent
	}
	if a.Game != b.Game {
		return a.Game < b.Game
	}
	return a.Name < b.Name
}
