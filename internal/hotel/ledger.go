package hotel

import (
	"context"
	"strings"
	"time"

	"github.com/dyluth/frontdesk/internal/disk"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// RecordRent adds a payment to the rent ledger.
func (d *Desk) RecordRent(ctx context.Context, p desk.RentPayment) (*desk.RentPayment, error) {
	p.Name = strings.TrimSpace(p.Name)
	mode, err := desk.ParsePaymentMode(string(p.Mode))
	if err != nil {
		return nil, invalid("%s", err.Error())
	}
	p.Mode = mode
	if err := p.Validate(); err != nil {
		return nil, invalid("%s", err.Error())
	}

	now := d.now()
	p.ID = uuid.NewString()
	p.Date = now.Format(time.RFC3339)

	if d.diskAttached() {
		if _, err := d.disk.WriteRent(&p, now); err != nil {
			return nil, errors.Errorf("failed to write rent file: %w", err)
		}
	}
	if _, err := d.store.AppendEntry(ctx, desk.CollectionRentPayments, p.ID, &p); err != nil {
		return nil, err
	}
	d.publishFull(ctx)

	zerolog.Ctx(ctx).Info().
		Str("event", "rent_recorded").
		Int("room", int(p.Room)).
		Str("guest", p.Name).
		Float64("amount", p.Amount.Float()).
		Str("mode", string(p.Mode)).
		Msg("rent recorded")

	return &p, nil
}

// EditRent changes the days, amount and mode of a recorded payment.
func (d *Desk) EditRent(ctx context.Context, id string, days, amount float64, mode, password string) (*desk.RentPayment, error) {
	if err := d.Authorize(password); err != nil {
		return nil, err
	}

	pm, err := desk.ParsePaymentMode(mode)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}
	if days <= 0 || amount <= 0 {
		return nil, invalid("days and amount must be greater than zero")
	}

	p, entryFound, rec, fileFound, err := d.findRent(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Days = desk.Number(days)
	p.Amount = desk.Number(amount)
	p.Mode = pm

	if entryFound {
		if err := d.store.UpdateEntry(ctx, desk.CollectionRentPayments, id, &p); err != nil {
			return nil, err
		}
	}
	if fileFound {
		if err := d.disk.UpdateRent(rec.DateFolder, rec.File, &p); err != nil {
			return nil, errors.Errorf("failed to update rent file: %w", err)
		}
	}
	d.publishFull(ctx)

	zerolog.Ctx(ctx).Info().Str("event", "rent_edited").Str("id", id).Msg("rent payment edited")
	return &p, nil
}

// DeleteRent removes a payment from the rent ledger.
func (d *Desk) DeleteRent(ctx context.Context, id, password string) error {
	if err := d.Authorize(password); err != nil {
		return err
	}

	_, entryFound, rec, fileFound, err := d.findRent(ctx, id)
	if err != nil {
		return err
	}

	if entryFound {
		if err := d.store.DeleteEntry(ctx, desk.CollectionRentPayments, id); err != nil && !desk.IsNotFound(err) {
			return err
		}
	}
	if fileFound {
		if err := d.disk.DeleteEntry(desk.CollectionRentPayments, rec.DateFolder, rec.File); err != nil {
			return errors.Errorf("failed to delete rent file: %w", err)
		}
	}
	d.publishFull(ctx)

	zerolog.Ctx(ctx).Info().Str("event", "rent_deleted").Str("id", id).Msg("rent payment deleted")
	return nil
}

// findRent looks a payment up in the ledger and the folder tree. The ledger
// copy wins when both exist. Returns ErrEntryNotFound when neither has it.
func (d *Desk) findRent(ctx context.Context, id string) (desk.RentPayment, bool, disk.Record[desk.RentPayment], bool, error) {
	var (
		p          desk.RentPayment
		rec        disk.Record[desk.RentPayment]
		entryFound bool
		fileFound  bool
	)
	if id == "" {
		return p, false, rec, false, invalid("payment id is required")
	}

	entry, err := d.store.GetEntry(ctx, desk.CollectionRentPayments, id)
	switch {
	case err == nil:
		if err := entry.Decode(&p); err != nil {
			return p, false, rec, false, err
		}
		entryFound = true
	case desk.IsNotFound(err):
	default:
		return p, false, rec, false, err
	}

	if d.diskAttached() {
		rec, err = d.disk.FindRent(ctx, id)
		switch {
		case err == nil:
			fileFound = true
			if !entryFound {
				p = rec.Data
			}
		case errors.Is(err, disk.ErrNotFound):
		default:
			return p, false, rec, false, err
		}
	}

	if !entryFound && !fileFound {
		return p, false, rec, false, errors.WithDetails(ErrEntryNotFound, "id", id)
	}
	if p.ID == "" {
		p.ID = id
	}
	return p, entryFound, rec, fileFound, nil
}

// RecordExpense adds an entry to the expense ledger.
func (d *Desk) RecordExpense(ctx context.Context, e desk.Expense) (*desk.Expense, error) {
	e.Description = strings.TrimSpace(e.Description)
	if err := e.Validate(); err != nil {
		return nil, invalid("%s", err.Error())
	}

	now := d.now()
	e.ID = uuid.NewString()
	e.Date = now.Format(time.RFC3339)

	if d.diskAttached() {
		if _, err := d.disk.WriteExpense(&e, now); err != nil {
			return nil, errors.Errorf("failed to write expense file: %w", err)
		}
	}
	if _, err := d.store.AppendEntry(ctx, desk.CollectionExpenses, e.ID, &e); err != nil {
		return nil, err
	}
	d.publishFull(ctx)

	zerolog.Ctx(ctx).Info().
		Str("event", "expense_recorded").
		Str("description", e.Label()).
		Float64("amount", e.Amount.Float()).
		Msg("expense recorded")

	return &e, nil
}

// DeleteExpense removes an entry from the expense ledger.
func (d *Desk) DeleteExpense(ctx context.Context, id, password string) error {
	if err := d.Authorize(password); err != nil {
		return err
	}
	if id == "" {
		return invalid("expense id is required")
	}

	removed := false
	err := d.store.DeleteEntry(ctx, desk.CollectionExpenses, id)
	switch {
	case err == nil:
		removed = true
	case desk.IsNotFound(err):
	default:
		return err
	}

	if d.diskAttached() {
		rec, err := d.disk.FindExpense(ctx, id)
		switch {
		case err == nil:
			if err := d.disk.DeleteEntry(desk.CollectionExpenses, rec.DateFolder, rec.File); err != nil {
				return errors.Errorf("failed to delete expense file: %w", err)
			}
			removed = true
		case errors.Is(err, disk.ErrNotFound):
		default:
			return err
		}
	}

	if !removed {
		return errors.WithDetails(ErrEntryNotFound, "id", id)
	}
	d.publishFull(ctx)

	zerolog.Ctx(ctx).Info().Str("event", "expense_deleted").Str("id", id).Msg("expense deleted")
	return nil
}
