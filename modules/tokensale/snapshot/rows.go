// Package snapshot exports holder balances and vesting grants of the sale token as parquet files.
package snapshot

import (
	"cmp"
	"context"
	"slices"

	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/gaze-network/token-sale/pkg/decimals"
	"github.com/holiman/uint256"
	cstream "github.com/planxnx/concurrent-stream"
	"github.com/samber/lo"
)

const (
	convertConcurrency = 8
	convertChunkSize   = 500
)

// HolderRow amounts are decimal strings of the smallest unit. The *Formatted columns apply the
// token decimals.
type HolderRow struct {
	Seq                   int64  `parquet:"name=seq, type=INT64"`
	Timestamp             int64  `parquet:"name=timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Account               string `parquet:"name=account, type=BYTE_ARRAY, convertedtype=UTF8"`
	Balance               string `parquet:"name=balance, type=BYTE_ARRAY, convertedtype=UTF8"`
	Locked                string `parquet:"name=locked, type=BYTE_ARRAY, convertedtype=UTF8"`
	Transferable          string `parquet:"name=transferable, type=BYTE_ARRAY, convertedtype=UTF8"`
	BalanceFormatted      string `parquet:"name=balance_formatted, type=BYTE_ARRAY, convertedtype=UTF8"`
	TransferableFormatted string `parquet:"name=transferable_formatted, type=BYTE_ARRAY, convertedtype=UTF8"`
}

type GrantRow struct {
	Seq         int64  `parquet:"name=seq, type=INT64"`
	Timestamp   int64  `parquet:"name=timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Index       int64  `parquet:"name=index, type=INT64"`
	Beneficiary string `parquet:"name=beneficiary, type=BYTE_ARRAY, convertedtype=UTF8"`
	TGE         int64  `parquet:"name=tge, type=INT64"`
	Basis       int64  `parquet:"name=basis, type=INT64"`
	Cliff       int64  `parquet:"name=cliff, type=INT64"`
	Duration    int64  `parquet:"name=duration, type=INT64"`
	TotalAmount string `parquet:"name=total_amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	TGEAmount   string `parquet:"name=tge_amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	Unlocked    string `parquet:"name=unlocked, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func HolderRows(ctx context.Context, s *entity.Snapshot) []HolderRow {
	rows := convert(ctx, s.Holders, func(h entity.HolderSnapshot) HolderRow {
		return HolderRow{
			Seq:                   int64(s.Seq),
			Timestamp:             s.Timestamp.UnixMilli(),
			Account:               h.Account.String(),
			Balance:               h.Balance.Dec(),
			Locked:                h.Locked.Dec(),
			Transferable:          h.Transferable.Dec(),
			BalanceFormatted:      formatUnits(h.Balance),
			TransferableFormatted: formatUnits(h.Transferable),
		}
	})
	slices.SortFunc(rows, func(a, b HolderRow) int { return cmp.Compare(a.Account, b.Account) })
	return rows
}

func GrantRows(ctx context.Context, s *entity.Snapshot) []GrantRow {
	rows := convert(ctx, s.Grants, func(g entity.GrantSnapshot) GrantRow {
		return GrantRow{
			Seq:         int64(s.Seq),
			Timestamp:   s.Timestamp.UnixMilli(),
			Index:       int64(g.Index),
			Beneficiary: g.Grant.Beneficiary.String(),
			TGE:         int64(g.Grant.TGE),
			Basis:       int64(g.Grant.Basis),
			Cliff:       int64(g.Grant.Cliff),
			Duration:    int64(g.Grant.Duration),
			TotalAmount: g.Grant.TotalAmount.Dec(),
			TGEAmount:   g.Grant.TGEAmount.Dec(),
			Unlocked:    g.Unlocked.Dec(),
		}
	})
	slices.SortFunc(rows, func(a, b GrantRow) int { return cmp.Compare(a.Index, b.Index) })
	return rows
}

func formatUnits(v *uint256.Int) string {
	return decimals.FormatUnits(v, ledger.Decimals)
}

// convert maps items in parallel chunks. Output order is not guaranteed.
func convert[T, R any](ctx context.Context, items []T, fn func(T) R) []R {
	out := make(chan []R)
	stream := cstream.NewStream(ctx, convertConcurrency, out)

	go func() {
		defer close(out)
		_ = stream.Wait()
	}()

	go func() {
		defer stream.Close()
		for _, chunk := range lo.Chunk(items, convertChunkSize) {
			chunk := chunk
			stream.Go(func() []R {
				return lo.Map(chunk, func(item T, _ int) R { return fn(item) })
			})
		}
	}()

	rows := make([]R, 0, len(items))
	for chunk := range out {
		rows = append(rows, chunk...)
	}
	return rows
}
