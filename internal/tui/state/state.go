package state

func ClampCursor(cursor, size int) int {
	if size <= 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

// PageStep is how far one page key scrolls a view of the given height. One
// line of the previous page stays visible.
func PageStep(height int) int {
	if height <= 2 {
		return 1
	}
	return height - 1
}

func CenteredWindow(totalRows, cursor, height int) (int, int) {
	if totalRows <= 0 {
		return 0, 0
	}
	if height <= 0 || totalRows <= height {
		return 0, totalRows
	}
	cursor = ClampCursor(cursor, totalRows)
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	maxStart := totalRows - height
	if start > maxStart {
		start = maxStart
	}
	return start, start + height
}

// Focus identifies one text input in the deck: field 0 is the URL, field 1
// the filter pattern.
type Focus struct {
	Panel int
	Field int
}

const FieldsPerPanel = 2

// Cycle moves focus by delta inputs, wrapping across panel boundaries.
func Cycle(f Focus, panels, delta int) Focus {
	if panels <= 0 {
		return Focus{}
	}
	total := panels * FieldsPerPanel
	pos := ClampCursor(f.Panel, panels)*FieldsPerPanel + ClampCursor(f.Field, FieldsPerPanel)
	pos = ((pos+delta)%total + total) % total
	return Focus{Panel: pos / FieldsPerPanel, Field: pos % FieldsPerPanel}
}

// Clamp keeps focus on an existing panel after the deck shrinks.
func Clamp(f Focus, panels int) Focus {
	if panels <= 0 {
		return Focus{}
	}
	if f.Panel >= panels {
		return Focus{Panel: panels - 1, Field: 0}
	}
	if f.Panel < 0 {
		return Focus{}
	}
	f.Field = ClampCursor(f.Field, FieldsPerPanel)
	return f
}
