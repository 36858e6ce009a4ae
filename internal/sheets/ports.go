// Package sheets defines the outbound port for mirroring committed
// expenses to a spreadsheet.
package sheets

import (
	"context"

	"racha/internal/core"
)

// ExpenseAppender appends one committed record to the mirror sheet.
type ExpenseAppender interface {
	Append(ctx context.Context, rec core.ExpenseRecord) error
}
