package disk

import (
	"context"
	"time"

	"github.com/dyluth/frontdesk/pkg/desk"
	"gitlab.com/tozd/go/errors"
)

// WriteRent writes a rent file into the folder for the payment's day.
func (s *Store) WriteRent(p *desk.RentPayment, at time.Time) (Record[desk.RentPayment], error) {
	if err := s.ensure(); err != nil {
		return Record[desk.RentPayment]{}, err
	}
	if err := p.Validate(); err != nil {
		return Record[desk.RentPayment]{}, err
	}

	folder := dateFolder(at)
	file := RentFileName(p.Name, int(p.Room), at, p.ID)
	if _, err := writeJSON(s.path(desk.CollectionRentPayments.Folder(), folder), file, p); err != nil {
		return Record[desk.RentPayment]{}, err
	}
	return Record[desk.RentPayment]{DateFolder: folder, File: file, ModTime: at, Data: *p}, nil
}

// ListRent returns every rent file.
func (s *Store) ListRent(ctx context.Context) ([]Record[desk.RentPayment], error) {
	return listRecords[desk.RentPayment](ctx, s.path(desk.CollectionRentPayments.Folder()), nil)
}

// ListRentOn returns the rent files whose folder normalizes to date.
func (s *Store) ListRentOn(ctx context.Context, date string) ([]Record[desk.RentPayment], error) {
	return listRecords[desk.RentPayment](ctx, s.path(desk.CollectionRentPayments.Folder()), func(folder string) bool {
		return NormalizeFolderDate(folder) == date
	})
}

// FindRent locates a rent file by payment id.
func (s *Store) FindRent(ctx context.Context, id string) (Record[desk.RentPayment], error) {
	records, err := s.ListRent(ctx)
	if err != nil {
		return Record[desk.RentPayment]{}, err
	}
	for _, r := range records {
		if r.Data.ID == id {
			return r, nil
		}
	}
	return Record[desk.RentPayment]{}, errors.WithDetails(ErrNotFound, "id", id)
}

// UpdateRent rewrites an existing rent file in place.
func (s *Store) UpdateRent(dateFolder, file string, p *desk.RentPayment) error {
	if err := s.ensure(); err != nil {
		return err
	}
	if err := checkSegment(dateFolder); err != nil {
		return err
	}
	if err := checkSegment(file); err != nil {
		return err
	}

	dir := s.path(desk.CollectionRentPayments.Folder(), dateFolder)
	var existing desk.RentPayment
	if err := readJSON(s.path(desk.CollectionRentPayments.Folder(), dateFolder, file), &existing); err != nil {
		return err
	}
	_, err := writeJSON(dir, file, p)
	return err
}

// WriteExpense writes an expense file into the folder for the expense's day.
func (s *Store) WriteExpense(e *desk.Expense, at time.Time) (Record[desk.Expense], error) {
	if err := s.ensure(); err != nil {
		return Record[desk.Expense]{}, err
	}
	if err := e.Validate(); err != nil {
		return Record[desk.Expense]{}, err
	}

	folder := dateFolder(at)
	file := ExpenseFileName(e.Label(), at, e.ID)
	if _, err := writeJSON(s.path(desk.CollectionExpenses.Folder(), folder), file, e); err != nil {
		return Record[desk.Expense]{}, err
	}
	return Record[desk.Expense]{DateFolder: folder, File: file, ModTime: at, Data: *e}, nil
}

// ListExpenses returns every expense file.
func (s *Store) ListExpenses(ctx context.Context) ([]Record[desk.Expense], error) {
	return listRecords[desk.Expense](ctx, s.path(desk.CollectionExpenses.Folder()), nil)
}

// ListExpensesOn returns the expense files whose folder normalizes to date.
func (s *Store) ListExpensesOn(ctx context.Context, date string) ([]Record[desk.Expense], error) {
	return listRecords[desk.Expense](ctx, s.path(desk.CollectionExpenses.Folder()), func(folder string) bool {
		return NormalizeFolderDate(folder) == date
	})
}

// FindExpense locates an expense file by id.
func (s *Store) FindExpense(ctx context.Context, id string) (Record[desk.Expense], error) {
	records, err := s.ListExpenses(ctx)
	if err != nil {
		return Record[desk.Expense]{}, err
	}
	for _, r := range records {
		if r.Data.ID == id {
			return r, nil
		}
	}
	return Record[desk.Expense]{}, errors.WithDetails(ErrNotFound, "id", id)
}
