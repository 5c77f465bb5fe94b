package sheets

import (
	"context"

	"wydatki/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	TaxonomyFetcher interface {
		FetchTaxonomy(ctx context.Context) (core.Taxonomy, error)
	}

	DayAmountsFetcher interface {
		// FetchDayAmounts returns the amounts recorded per category for one
		// (month, day) pair.
		FetchDayAmounts(ctx context.Context, month string, day int) (core.DayAmounts, error)
	}

	ExpenseWriter interface {
		WriteExpense(ctx context.Context, req core.WriteRequest) (core.WriteResult, error)
	}

	// GridInvalidator drops an adapter's memoized grid layout for a month
	// after that month has been mutated remotely.
	GridInvalidator interface {
		InvalidateMonth(month string)
	}
)
