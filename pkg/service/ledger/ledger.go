// Package ledger serves reads of the accounting journal.
package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain/ledger"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	defaultPageSize = 100
	exportSheet     = "Ledger"
)

var exportHeaders = []string{"ID", "User", "Kind", "Amount", "Balance After", "Reference", "Idempotency Key", "Created At"}

// Service provides journal history and export.
type Service struct {
	uow      repository.UnitOfWork
	pageSize int
	logger   *slog.Logger
}

// New creates a ledger Service.
func New(deps config.Deps) *Service {
	pageSize := defaultPageSize
	if deps.Config != nil && deps.Config.Ledger != nil && deps.Config.Ledger.HistoryPageSize > 0 {
		pageSize = deps.Config.Ledger.HistoryPageSize
	}
	return &Service{uow: deps.Uow, pageSize: pageSize, logger: deps.Logger}
}

// ListForUser returns the user's most recent entries, newest first.
// A limit of zero or above the page size is clamped to the page size.
func (s *Service) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) (entries []*ledger.Entry, err error) {
	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		journal, err := uow.LedgerRepository()
		if err != nil {
			return err
		}
		entries, err = journal.ListByUser(ctx, userID, limit)
		return err
	})
	return
}

// ExportXLSX writes the whole journal as a spreadsheet to w.
func (s *Service) ExportXLSX(ctx context.Context, w io.Writer) error {
	var entries []*ledger.Entry
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		journal, err := uow.LedgerRepository()
		if err != nil {
			return err
		}
		entries, err = journal.ListAll(ctx)
		return err
	})
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("closing spreadsheet failed", "error", cerr)
		}
	}()
	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for i, h := range exportHeaders {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}
	for idx, e := range entries {
		row := idx + 2
		key := ""
		if e.IdempotencyKey != nil {
			key = *e.IdempotencyKey
		}
		values := []any{
			e.ID.String(),
			e.UserID.String(),
			string(e.Kind),
			e.Amount,
			e.BalanceAfter,
			e.Reference,
			key,
			e.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "B", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "F", "G", 48); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write spreadsheet: %w", err)
	}
	s.logger.Info("Ledger exported", "entries", len(entries))
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(exportSheet, cell, v)
}
