package inbox

// CategoryGroup aggregates the classified messages sharing one category.
type CategoryGroup struct {
	Category Category            `json:"category"`
	Count    int                 `json:"count"`
	Messages []ClassifiedMessage `json:"messages"`
}

// Group partitions msgs by category. Groups appear in the order their category
// is first seen and members keep their input order.
func Group(msgs []ClassifiedMessage) []CategoryGroup {
	groups := make([]CategoryGroup, 0)
	index := make(map[Category]int)

	for _, m := range msgs {
		i, ok := index[m.Category]
		if !ok {
			i = len(groups)
			index[m.Category] = i
			groups = append(groups, CategoryGroup{Category: m.Category})
		}
		groups[i].Messages = append(groups[i].Messages, m)
		groups[i].Count++
	}

	return groups
}

// Counts returns the number of messages per category across groups.
func Counts(groups []CategoryGroup) map[Category]int {
	counts := make(map[Category]int, len(groups))
	for _, g := range groups {
		counts[g.Category] += g.Count
	}
	return counts
}
