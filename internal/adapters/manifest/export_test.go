// export_test.go exports private functions for white-box testing.
package manifest

// OffsetPosition exports offsetPosition, returning line and column.
func OffsetPosition(data []byte, offset int64) (line, column int) {
	p := offsetPosition(data, offset)
	return p.Line, p.Column
}
