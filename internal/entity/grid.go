package entity

const (
	GridSize  = 5
	BoardSize = GridSize * GridSize

	// WinThreshold is the number of completed lines that makes a bingo.
	WinThreshold = 5

	bingoLetters = "BINGO"
)

// Board is a player's 5x5 card flattened in row-major order.
type Board [BoardSize]int

// Grid tracks which cells of a board have been matched by called numbers.
type Grid [GridSize][GridSize]bool

// Find returns the row and column of the first cell holding number.
func (that *Board) Find(number int) (int, int, bool) {
	for i, value := range that {
		if value == number {
			return i / GridSize, i % GridSize, true
		}
	}

	return 0, 0, false
}

// CompletedLines counts fully marked rows, columns and both diagonals.
// Lines are summed without deduplication, so the result ranges over 0..12.
func CompletedLines(grid Grid) int {
	lines := 0

	for row := 0; row < GridSize; row++ {
		if grid.rowMarked(row) {
			lines++
		}
	}

	for col := 0; col < GridSize; col++ {
		if grid.colMarked(col) {
			lines++
		}
	}

	mainDiagonal, antiDiagonal := true, true
	for i := 0; i < GridSize; i++ {
		mainDiagonal = mainDiagonal && grid[i][i]
		antiDiagonal = antiDiagonal && grid[i][GridSize-1-i]
	}

	if mainDiagonal {
		lines++
	}

	if antiDiagonal {
		lines++
	}

	return lines
}

// Label returns the prefix of "BINGO" earned with the given number of lines.
func Label(lines int) string {
	return bingoLetters[:min(max(lines, 0), len(bingoLetters))]
}

// IsWin reports whether the line count reaches a bingo.
func IsWin(lines int) bool {
	return lines >= WinThreshold
}

// Evaluate returns the completed line count and label of a grid.
func Evaluate(grid Grid) (int, string) {
	lines := CompletedLines(grid)
	return lines, Label(lines)
}

func (that *Grid) rowMarked(row int) bool {
	for col := 0; col < GridSize; col++ {
		if !that[row][col] {
			return false
		}
	}

	return true
}

func (that *Grid) colMarked(col int) bool {
	for row := 0; row < GridSize; row++ {
		if !that[row][col] {
			return false
		}
	}

	return true
}
