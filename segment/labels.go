package segment

import (
	"github.com/inkstone/handsynth/errs"
)

// LabelMatrix assigns points to text characters. Row i, column j is 1 when
// point i belongs to rune j of the text.
type LabelMatrix [][]int

// NewLabelMatrix returns an all-zero matrix of rows x cols.
func NewLabelMatrix(rows, cols int) LabelMatrix {
	m := make(LabelMatrix, rows)
	for i := range m {
		m[i] = make([]int, cols)
	}
	return m
}

// Rows is the number of points covered by the matrix.
func (m LabelMatrix) Rows() int {
	return len(m)
}

// Cols is the number of text runes covered by the matrix.
func (m LabelMatrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Assign marks rows [from, to) as belonging to column col.
func (m LabelMatrix) Assign(from, to, col int) {
	for i := from; i < to && i < len(m); i++ {
		m[i][col] = 1
	}
}

// Owner returns the column assigned to row i, or -1 when the row is empty.
func (m LabelMatrix) Owner(i int) int {
	for j, v := range m[i] {
		if v == 1 {
			return j
		}
	}
	return -1
}

// Validate checks the matrix shape against rows x cols and its structural
// invariants: values are 0 or 1, every row holds at most one 1 and the
// rows of a column form one contiguous run.
func (m LabelMatrix) Validate(rows, cols int) error {
	const op = "segment.LabelMatrix.Validate"

	if len(m) != rows {
		return errs.Errorf(errs.Validation, op, "label matrix has %d rows, want %d points", len(m), rows)
	}

	lastRow := make([]int, cols)
	for j := range lastRow {
		lastRow[j] = -1
	}

	for i, row := range m {
		if len(row) != cols {
			return errs.Errorf(errs.Validation, op, "row %d has %d columns, want %d characters", i, len(row), cols)
		}
		owner := -1
		for j, v := range row {
			switch v {
			case 0:
				continue
			case 1:
			default:
				return errs.Errorf(errs.Validation, op, "row %d column %d: value %d is not 0 or 1", i, j, v)
			}
			if owner >= 0 {
				return errs.Errorf(errs.Validation, op, "row %d assigned to columns %d and %d", i, owner, j)
			}
			owner = j
		}
		if owner < 0 {
			continue
		}
		if prev := lastRow[owner]; prev >= 0 && prev != i-1 {
			return errs.Errorf(errs.Validation, op, "column %d rows are not contiguous (row %d after %d)", owner, i, prev)
		}
		lastRow[owner] = i
	}
	return nil
}
