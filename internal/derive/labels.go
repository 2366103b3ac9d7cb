// AngelaMos | 2026
// labels.go

package derive

type labels map[string][2]string

func (l labels) lookup(key string, loc Locale) string {
	pair, ok := l[key]
	if !ok {
		return key
	}
	if loc == Arabic {
		return pair[1]
	}
	return pair[0]
}

var stageLabels = labels{
	"idea":    {"Idea", "فكرة"},
	"mvp":     {"MVP", "MVP"},
	"running": {"Running", "قائم"},
}

var categoryLabels = labels{
	"tech":       {"Tech", "تقني"},
	"commercial": {"Commercial", "تجاري"},
	"industrial": {"Industrial", "صناعي"},
	"service":    {"Service", "خدمي"},
	"financial":  {"Financial", "مالي"},
}

var projectStatusLabels = labels{
	"active":    {"Active", "نشط"},
	"pending":   {"Pending", "في الانتظار"},
	"completed": {"Completed", "مكتمل"},
	"suspended": {"Suspended", "موقوف"},
}

var userStatusLabels = labels{
	"active":    {"Active", "نشط"},
	"pending":   {"Pending", "في الانتظار"},
	"suspended": {"Suspended", "موقوف"},
}

// StageLabel and the other label functions return the display text for a
// stored value, or the value itself when it has no mapping.
func StageLabel(stage string, loc Locale) string {
	return stageLabels.lookup(stage, loc)
}

func CategoryLabel(category string, loc Locale) string {
	return categoryLabels.lookup(category, loc)
}

func ProjectStatusLabel(status string, loc Locale) string {
	return projectStatusLabels.lookup(status, loc)
}

func UserStatusLabel(status string, loc Locale) string {
	return userStatusLabels.lookup(status, loc)
}
