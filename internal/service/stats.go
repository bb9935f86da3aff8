package service

import (
	"context"
	"time"

	"zirng/backend/internal/domain"
)

// dayStartUTC truncates a timestamp to midnight of its UTC calendar day.
func dayStartUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DailyStats aggregates the transaction log for the UTC calendar day of asOf.
// Days with no activity yield a zero-filled result, never an error.
func (s *Service) DailyStats(ctx context.Context, asOf time.Time) (domain.DailyStats, error) {
	from := dayStartUTC(asOf)
	to := from.Add(24 * time.Hour)

	stats := domain.DailyStats{Date: from.Format("2006-01-02")}

	transactions, err := s.repo.ListTransactionsInRange(ctx, from, to)
	if err != nil {
		return domain.DailyStats{}, err
	}
	for _, tx := range transactions {
		stats.TotalSales += tx.Total
		stats.CashIn += tx.Paid
		stats.Loans += tx.Loan
	}
	stats.TransactionCount = len(transactions)

	if s.cashOutFromTransfers {
		cashOut, err := s.sumWithdrawals(ctx, from, to)
		if err != nil {
			return domain.DailyStats{}, err
		}
		stats.CashOut = cashOut
	}

	return stats, nil
}

// RangeStats aggregates over whole UTC calendar days, both endpoints
// inclusive. An inverted range matches nothing and yields zeros.
func (s *Service) RangeStats(ctx context.Context, start, end time.Time) (domain.RangeStats, error) {
	from := dayStartUTC(start)
	to := dayStartUTC(end).Add(24 * time.Hour)

	stats := domain.RangeStats{
		Start: from.Format("2006-01-02"),
		End:   dayStartUTC(end).Format("2006-01-02"),
	}
	if !from.Before(to) {
		return stats, nil
	}

	transactions, err := s.repo.ListTransactionsInRange(ctx, from, to)
	if err != nil {
		return domain.RangeStats{}, err
	}
	for _, tx := range transactions {
		stats.TotalSales += tx.Total
		stats.TotalCashIn += tx.Paid
		stats.TotalLoans += tx.Loan
	}
	stats.TransactionCount = len(transactions)

	if s.cashOutFromTransfers {
		cashOut, err := s.sumWithdrawals(ctx, from, to)
		if err != nil {
			return domain.RangeStats{}, err
		}
		stats.TotalCashOut = cashOut
	}

	return stats, nil
}

func (s *Service) sumWithdrawals(ctx context.Context, from, to time.Time) (int64, error) {
	transfers, err := s.repo.ListTransfersInRange(ctx, from, to)
	if err != nil {
		return 0, err
	}
	total := int64(0)
	for _, transfer := range transfers {
		if transfer.Kind == domain.TransferWithdrawal {
			total += transfer.Amount
		}
	}
	return total, nil
}
