package votetable

// balanceColumns places blocks left to right, closing the current column
// once its running entry count exceeds totalRecords/divisor. The first
// column is also closed right after the second-to-last block if nothing has
// been closed yet.
//
// This is a visual heuristic: the number of columns depends on group sizes
// and is not fixed at divisor.
func balanceColumns(blocks []GroupBlock, totalRecords, divisor int) []Column {
	if divisor < 1 {
		divisor = DefaultColumnDivisor
	}

	columns := make([]Column, 0, divisor)
	var currentColumn Column
	runningCount := 0

	for blockIndex, block := range blocks {
		currentColumn.Groups = append(currentColumn.Groups, block)
		runningCount += len(block.Entries)
		placedBlocks := blockIndex + 1

		// runningCount > totalRecords/divisor, without integer truncation.
		exceedsShare := runningCount*divisor > totalRecords
		closesFirstColumn := len(columns) == 0 && placedBlocks == len(blocks)-1

		if exceedsShare || closesFirstColumn {
			columns = append(columns, currentColumn)
			currentColumn = Column{}
			runningCount = 0
		}
	}

	if len(currentColumn.Groups) > 0 {
		columns = append(columns, currentColumn)
	}

	return columns
}
