package schema

// SortByDependency orders tables so that referenced tables come before
// the tables referencing them. Circular dependencies are broken with a
// scoring heuristic; the names of tables placed that way are returned
// as cycleBreaks. References to tables outside the input are ignored.
func SortByDependency(tables []*Table) (sorted []*Table, cycleBreaks []string) {
	known := make(map[string]*Table, len(tables))
	for _, t := range tables {
		known[t.Name] = t
	}
	deps := make(map[string][]string, len(tables))
	for _, t := range tables {
		for _, d := range t.Dependencies() {
			if _, ok := known[d]; ok {
				deps[t.Name] = append(deps[t.Name], d)
			}
		}
	}

	processed := make(map[string]bool, len(tables))
	for len(sorted) < len(tables) {
		added := false

		// Pass 1: tables whose dependencies are all placed
		for _, t := range tables {
			if processed[t.Name] {
				continue
			}
			ready := true
			for _, d := range deps[t.Name] {
				if !processed[d] {
					ready = false
					break
				}
			}
			if ready {
				sorted = append(sorted, t)
				processed[t.Name] = true
				added = true
			}
		}
		if added {
			continue
		}

		// Pass 2: cycle. Prefer the table with the fewest pending
		// dependencies, boosted when it takes part in a two-way reference.
		var best *Table
		bestScore := 0
		for _, t := range tables {
			if processed[t.Name] {
				continue
			}
			score := 0
			for _, d := range deps[t.Name] {
				if processed[d] {
					continue
				}
				score -= 100
				for _, back := range deps[d] {
					if back == t.Name {
						score += 500
						break
					}
				}
			}
			if best == nil || score > bestScore || (score == bestScore && t.Name < best.Name) {
				best = t
				bestScore = score
			}
		}
		sorted = append(sorted, best)
		processed[best.Name] = true
		cycleBreaks = append(cycleBreaks, best.Name)
	}
	return sorted, cycleBreaks
}
