package engine

import (
	"sort"
	"strconv"
	"strings"
)

// candidate is the first move of one reported principal variation.
type candidate struct {
	multipv int
	move    string
}

// parseInfo extracts the multipv index and the first pv move of an
// "info" line. ok is false for info lines without a pv.
func parseInfo(line string) (candidate, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return candidate{}, false
	}

	c := candidate{multipv: 1}
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "multipv":
			if i+1 < len(fields) {
				if n, err := strconv.Atoi(fields[i+1]); err == nil {
					c.multipv = n
				}
				i++
			}
		case "pv":
			if i+1 < len(fields) {
				c.move = fields[i+1]
				return c, true
			}
			return candidate{}, false
		}
	}
	return candidate{}, false
}

// parseBestMove returns the move of a "bestmove" line.
func parseBestMove(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return "", false
	}
	return fields[1], true
}

// isNullMove reports the placeholder replies engines send when they have
// no move to offer.
func isNullMove(move string) bool {
	return move == "(none)" || move == "0000" || move == ""
}

// candidateMoves returns the distinct first moves, keeping the latest
// report per multipv slot.
func candidateMoves(bySlot map[int]string) []string {
	slots := make([]int, 0, len(bySlot))
	for slot := range bySlot {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	seen := make(map[string]bool, len(bySlot))
	out := make([]string, 0, len(bySlot))
	for _, slot := range slots {
		mv := bySlot[slot]
		if seen[mv] {
			continue
		}
		seen[mv] = true
		out = append(out, mv)
	}
	return out
}
