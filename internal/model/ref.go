package model

import "strings"

// ColName converts a zero-based column index to its spreadsheet letter form
// (0 -> "A", 25 -> "Z", 26 -> "AA").
func ColName(col int) string {
	if col < 0 {
		return ""
	}
	var b [8]byte
	i := len(b)
	for {
		i--
		b[i] = byte('A' + col%26)
		col = col/26 - 1
		if col < 0 {
			break
		}
	}
	return string(b[i:])
}

// CellRef formats a zero-based (row, col) address as an A1-style reference.
func CellRef(row, col int) string {
	return ColName(col) + itoa(row+1)
}

// ParseRef splits an A1-style reference like "C12" into zero-based (row, col).
// The second return is false if the reference is malformed.
func ParseRef(ref string) (row, col int, ok bool) {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
			i++
			continue
		}
		break
	}
	if i == 0 || i == len(ref) {
		return 0, 0, false
	}
	letters := strings.ToUpper(ref[:i])
	for j := 0; j < len(letters); j++ {
		col = col*26 + int(letters[j]-'A'+1)
	}
	col--
	for j := i; j < len(ref); j++ {
		c := ref[j]
		if c < '0' || c > '9' {
			return 0, 0, false
		}
		row = row*10 + int(c-'0')
	}
	if row == 0 {
		return 0, 0, false
	}
	return row - 1, col, true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}
