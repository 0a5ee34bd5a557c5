package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"
)

func (s *store) CreateInquiry(ctx context.Context, i *Inquiry) error {
	return s.store.Insert(ctx, i)
}

func (s *store) GetInquiry(ctx context.Context, id int64) (*Inquiry, error) {
	i := &Inquiry{
		InquiryID: id,
	}
	return i, s.store.Select(ctx, i, InquiriesGetByID)
}

func (s *store) ListInquiries(ctx context.Context, f *InquiryFilter, opts *storage.SelectOptions) ([]Inquiry, error) {
	if f == nil {
		f = &InquiryFilter{}
	}
	inquiries := []Inquiry{}
	err := s.store.SelectAll(ctx, f, &inquiries, InquiriesList, opts)
	return inquiries, err
}

func (s *store) Board(ctx context.Context, f *InquiryFilter) ([]Inquiry, error) {
	if f == nil {
		f = &InquiryFilter{}
	}
	inquiries := []Inquiry{}
	err := s.store.SelectAll(ctx, f, &inquiries, InquiriesBoard, all())
	return inquiries, err
}

func (s *store) UpdateInquiry(ctx context.Context, i *Inquiry) error {
	return s.store.Update(ctx, i)
}

func (s *store) LatestInquiryByPhone(ctx context.Context, phone string) (*Inquiry, error) {
	i := &Inquiry{
		Phone: phone,
	}
	return i, s.store.Select(ctx, i, InquiriesGetLatestByPhone)
}

/*
MoveInquiry is a board drag. Everything at or below position in the target column moves down one,
then the inquiry takes the slot. The shifted rows are written outside of the table config so their
cached copies are dropped once the transaction is in.
*/
func (s *store) MoveInquiry(ctx context.Context, id int64, stage string, position int) (*Inquiry, error) {
	if position < 0 {
		position = 0
	}

	tx, err := s.store.TXBegin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.TXRollback()

	i := &Inquiry{
		InquiryID: id,
	}
	// lock the row so two drags of the same card don't interleave
	if err := sqlx.GetContext(ctx, tx.Tx(), i, "SELECT * FROM inquiries WHERE inquiry_id=$1 FOR UPDATE", id); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	shifted := []Inquiry{}
	if err := sqlx.SelectContext(ctx, tx.Tx(), &shifted, inquiriesShiftColumn, stage, position, id); err != nil {
		return nil, err
	}

	i.Stage = stage
	i.Position = position
	if err := tx.TXUpdate(ctx, i); err != nil {
		return nil, err
	}

	if err := tx.TXEnd(ctx); err != nil {
		return nil, err
	}

	if len(shifted) > 0 {
		objs := make([]interface{}, 0, len(shifted))
		for idx := range shifted {
			objs = append(objs, &shifted[idx])
		}
		if err := s.store.DeleteKeys(ctx, objs...); err != nil {
			// the move is committed; stale positions only affect the cached copies
			s.log.WithError(err).Warn("drop shifted inquiry keys")
		}
	}

	return i, nil
}

// SetInquiryCRMContact sets the contact id on the locked current row; the other columns stay as they are
func (s *store) SetInquiryCRMContact(ctx context.Context, id int64, contactID string) (*Inquiry, error) {
	tx, err := s.store.TXBegin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.TXRollback()

	i := &Inquiry{}
	if err := sqlx.GetContext(ctx, tx.Tx(), i, "SELECT * FROM inquiries WHERE inquiry_id=$1 FOR UPDATE", id); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	i.CRMContactID = contactID
	if err := tx.TXUpdate(ctx, i); err != nil {
		return nil, err
	}

	if err := tx.TXEnd(ctx); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *store) CreateCreditApplication(ctx context.Context, i *Inquiry, app *CreditApplication) error {
	tx, err := s.store.TXBegin(ctx)
	if err != nil {
		return err
	}
	defer tx.TXRollback()

	if err := tx.TXInsert(ctx, i); err != nil {
		return err
	}

	app.InquiryID = i.InquiryID
	if err := tx.TXInsert(ctx, app); err != nil {
		return mapErr(err)
	}

	return tx.TXEnd(ctx)
}

func (s *store) CreditApplicationForInquiry(ctx context.Context, inquiryID int64) (*CreditApplication, error) {
	app := &CreditApplication{
		InquiryID: inquiryID,
	}
	return app, s.store.Select(ctx, app, CreditApplicationsGetByInquiryID)
}

func (s *store) AddActivity(ctx context.Context, a *LeadActivity) error {
	return s.store.Insert(ctx, a)
}

func (s *store) ActivitiesForInquiry(ctx context.Context, inquiryID int64, opts *storage.SelectOptions) ([]LeadActivity, error) {
	a := &LeadActivity{
		InquiryID: inquiryID,
	}

	activities := []LeadActivity{}
	err := s.store.SelectAll(ctx, a, &activities, ActivitiesGetByInquiryID, opts)
	return activities, err
}
