package tabular

import "strings"

var (
	domainKeywords = []string{
		"客户", "基金", "金额", "份额", "日期", "代码",
		"client", "fund", "amount", "share", "date", "code",
	}
	identifierKeywords = []string{"号", "id", "name", "number"}
)

// LocateHeader returns the index of the header among the first scan rows of
// grid. The row with the most non-empty cells wins; ties go to the higher
// keyword score and then to the earlier row.
func LocateHeader(grid [][]string, scan int) int {
	if scan > len(grid) {
		scan = len(grid)
	}
	best, bestCells, bestScore := 0, -1, -1
	for i := 0; i < scan; i++ {
		cells, score := headerScore(grid[i])
		if cells > bestCells || (cells == bestCells && score > bestScore) {
			best, bestCells, bestScore = i, cells, score
		}
	}
	return best
}

func headerScore(row []string) (cells, score int) {
	for _, c := range row {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		cells++
		switch {
		case containsAny(c, domainKeywords):
			score += 3
		case containsAny(c, identifierKeywords):
			score += 2
		default:
			score++
		}
	}
	return cells, score
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
