package matcher

import (
	"regexp"
	"strconv"
)

var (
	// S01E02, s01.e02, S01E02-E04, S01E02E03
	sxePattern = regexp.MustCompile(`(?i)\bs(\d{1,2})[ ._-]?e(\d{1,3})(?:[ ._-]?[e-][ ._-]?(\d{1,3}))?`)
	// trailing E03 / E04 chained after an SxxEyy match
	tailPattern = regexp.MustCompile(`(?i)^[ ._-]?e(\d{1,3})`)
	// 1x02 style
	xPattern = regexp.MustCompile(`\b(\d{1,2})x(\d{2,3})\b`)
)

// Longest episode range a single file is believed to span; anything wider is
// treated as two discrete numbers rather than a range.
const maxEpisodeRange = 30

// ParseEpisodes extracts season and episode numbers from a candidate
// filename. A season of 0 means the name carried no season marker. An empty
// episode list means the name is not parseable as an episode file.
func ParseEpisodes(name string) (season int, episodes []int) {
	if loc := sxePattern.FindStringSubmatchIndex(name); loc != nil {
		season = atoi(name[loc[2]:loc[3]])
		first := atoi(name[loc[4]:loc[5]])
		episodes = append(episodes, first)

		if loc[6] != -1 {
			last := atoi(name[loc[6]:loc[7]])
			switch {
			case last > first && last-first <= maxEpisodeRange:
				for e := first + 1; e <= last; e++ {
					episodes = append(episodes, e)
				}
			case last != first:
				episodes = append(episodes, last)
			}
		}

		// Chained episodes: S01E01E02E03
		rest := name[loc[1]:]
		for {
			m := tailPattern.FindStringSubmatchIndex(rest)
			if m == nil {
				break
			}
			episodes = append(episodes, atoi(rest[m[2]:m[3]]))
			rest = rest[m[1]:]
		}

		return season, dedupe(episodes)
	}

	if m := xPattern.FindStringSubmatch(name); m != nil {
		return atoi(m[1]), []int{atoi(m[2])}
	}

	return 0, nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func dedupe(nums []int) []int {
	seen := make(map[int]bool, len(nums))
	out := nums[:0]
	for _, n := range nums {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
