package util

// CloneStringMap returns a shallow copy of input.
// It returns a non-nil map even when input is nil.
func CloneStringMap(input map[string]string) map[string]string {
	if input == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}

// PadRow returns a copy of row adjusted to width cells, truncating or
// appending empty strings as needed.
func PadRow(row []string, width int) []string {
	if width < 0 {
		width = 0
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
