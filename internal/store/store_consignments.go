package store

import (
	"context"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"
	"github.com/lib/pq"
)

func (s *store) CreateConsignment(ctx context.Context, c *Consignment) error {
	return mapErr(s.store.Insert(ctx, c))
}

func (s *store) GetConsignment(ctx context.Context, id int64) (*Consignment, error) {
	c := &Consignment{
		ConsignmentID: id,
	}
	return c, s.store.Select(ctx, c, ConsignmentsGetByID)
}

func (s *store) ListConsignments(ctx context.Context, f *ConsignmentFilter, opts *storage.SelectOptions) ([]Consignment, error) {
	if f == nil {
		f = &ConsignmentFilter{}
	}
	consignments := []Consignment{}
	err := s.store.SelectAll(ctx, f, &consignments, ConsignmentsList, opts)
	return consignments, err
}

func (s *store) ConsignmentsByOwnerPhone(ctx context.Context, phone string) ([]Consignment, error) {
	c := &Consignment{
		OwnerPhone: phone,
	}

	consignments := []Consignment{}
	err := s.store.SelectAll(ctx, c, &consignments, ConsignmentsGetByOwnerPhone, all())
	return consignments, err
}

func (s *store) UpdateConsignment(ctx context.Context, c *Consignment) error {
	old, err := s.GetConsignment(ctx, c.ConsignmentID)
	if err != nil {
		return err
	}
	if old.OwnerPhone != c.OwnerPhone {
		// out of the old owner's list; the new owner's list is rebuilt in order on the next read
		if err := s.store.DeleteKeys(ctx, old); err != nil {
			return err
		}
		if err := s.store.DeleteQueryKey(ctx, c, ConsignmentsGetByOwnerPhone); err != nil {
			return err
		}
	}

	return mapErr(s.store.Update(ctx, c))
}

func (s *store) SaveConsignmentVehicle(ctx context.Context, c *Consignment, v *Vehicle) error {
	tx, err := s.store.TXBegin(ctx)
	if err != nil {
		return err
	}
	defer tx.TXRollback()

	if v.Photos == nil {
		v.Photos = pq.StringArray{}
	}
	v.ConsignmentID = &c.ConsignmentID

	if v.VehicleID == 0 {
		err = tx.TXInsert(ctx, v)
	} else {
		err = tx.TXUpdate(ctx, v)
	}
	if err != nil {
		return mapErr(err)
	}

	c.VehicleID = &v.VehicleID
	if err := tx.TXUpdate(ctx, c); err != nil {
		return mapErr(err)
	}

	return tx.TXEnd(ctx)
}

func (s *store) AddDocument(ctx context.Context, d *ConsignmentDocument) error {
	return s.store.Insert(ctx, d)
}

func (s *store) GetDocument(ctx context.Context, id int64) (*ConsignmentDocument, error) {
	d := &ConsignmentDocument{
		DocumentID: id,
	}
	return d, s.store.Select(ctx, d, DocumentsGetByID)
}

func (s *store) DocumentsForConsignment(ctx context.Context, consignmentID int64) ([]ConsignmentDocument, error) {
	d := &ConsignmentDocument{
		ConsignmentID: consignmentID,
	}

	docs := []ConsignmentDocument{}
	err := s.store.SelectAll(ctx, d, &docs, DocumentsGetByConsignmentID, all())
	return docs, err
}

func (s *store) DeleteDocument(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, &ConsignmentDocument{DocumentID: id})
}
