// Package academy provides the content and pure helpers behind the
// training drills: square arithmetic, knight-path search, deterministic
// question generation, and the embedded puzzle and study catalog.
package academy

// SquareName returns the algebraic name of a 0-based file and rank, or ""
// when either is off the board.
func SquareName(file, rank int) string {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return ""
	}
	return string([]byte{byte('a' + file), byte('1' + rank)})
}

// ParseSquare converts "e4" into 0-based file and rank.
func ParseSquare(sq string) (file, rank int, ok bool) {
	if len(sq) != 2 {
		return 0, 0, false
	}
	file = int(sq[0] - 'a')
	rank = int(sq[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, 0, false
	}
	return file, rank, true
}

// SquareIndex returns the board-order index (a1=0 … h8=63), or -1.
func SquareIndex(sq string) int {
	file, rank, ok := ParseSquare(sq)
	if !ok {
		return -1
	}
	return rank*8 + file
}

// SquareAt is the inverse of SquareIndex.
func SquareAt(index int) string {
	if index < 0 || index > 63 {
		return ""
	}
	return SquareName(index%8, index/8)
}

var knightOffsets = [8][2]int{
	{1, 2}, {2, 1}, {2, -1}, {1, -2},
	{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}

// KnightJumps lists the squares a knight on sq can reach, in board order.
func KnightJumps(sq string) []string {
	file, rank, ok := ParseSquare(sq)
	if !ok {
		return nil
	}

	var marks [64]bool
	for _, off := range knightOffsets {
		f, r := file+off[0], rank+off[1]
		if f < 0 || f > 7 || r < 0 || r > 7 {
			continue
		}
		marks[r*8+f] = true
	}

	jumps := make([]string, 0, 8)
	for i, hit := range marks {
		if hit {
			jumps = append(jumps, SquareAt(i))
		}
	}
	return jumps
}

// KnightDistance returns the minimum number of knight jumps between two
// squares, or -1 if either square is invalid.
func KnightDistance(from, to string) int {
	start, goal := SquareIndex(from), SquareIndex(to)
	if start < 0 || goal < 0 {
		return -1
	}

	var dist [64]int
	for i := range dist {
		dist[i] = -1
	}
	dist[start] = 0
	queue := []int{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == goal {
			return dist[cur]
		}
		for _, next := range KnightJumps(SquareAt(cur)) {
			idx := SquareIndex(next)
			if dist[idx] >= 0 {
				continue
			}
			dist[idx] = dist[cur] + 1
			queue = append(queue, idx)
		}
	}
	return -1
}

// NextRand advances a splitmix64 sequence. Drill questions are generated
// from a seed stored in the game state so the reducer stays pure.
func NextRand(seed uint64) (value, next uint64) {
	next = seed + 0x9e3779b97f4a7c15
	z := next
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31), next
}
