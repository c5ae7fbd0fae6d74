package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultCodePrefix and DefaultCodeWidth shape codes like ORC-000001.
const (
	DefaultCodePrefix = "ORC-"
	DefaultCodeWidth  = 6
)

// NextCode derives the code following last. The numeric suffix of last is
// incremented and zero padded to width; an empty or unparsable last code
// starts the sequence at 1.
func NextCode(last, prefix string, width int) string {
	if width <= 0 {
		width = DefaultCodeWidth
	}
	return fmt.Sprintf("%s%0*d", prefix, width, codeNumber(last)+1)
}

func codeNumber(code string) int64 {
	code = strings.TrimSpace(code)
	end := len(code)
	start := end
	for start > 0 && code[start-1] >= '0' && code[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0
	}
	n, err := strconv.ParseInt(code[start:end], 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
