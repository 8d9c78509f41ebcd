package stages

// priorityOrder ranks ticket priorities from most to least urgent.
var priorityOrder = map[string]int{
	"Highest": 0,
	"P1":      1,
	"High":    2,
	"P2":      3,
	"Medium":  4,
	"P3":      5,
	"Low":     6,
	"P4":      7,
}

// PriorityRank returns the sort rank of a priority label. Unknown and
// empty labels sort after every known one.
func PriorityRank(priority string) int {
	if r, ok := priorityOrder[priority]; ok {
		return r
	}
	return len(priorityOrder)
}

// IsIncidentPriority reports whether priority marks a production incident.
func IsIncidentPriority(priority string) bool {
	return priority == "P1" || priority == "P2"
}
