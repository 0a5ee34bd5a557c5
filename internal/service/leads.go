package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/crm"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/pipeline"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
	"github.com/sirupsen/logrus"
)

// LeadDetail is a lead with everything recorded against it
type LeadDetail struct {
	*store.Inquiry
	CreditApplication *store.CreditApplication `json:"credit_application,omitempty"`
	Activities        []store.LeadActivity     `json:"activities"`
}

type LeadQuery struct {
	Stage string `json:"stage" validate:"omitempty,oneof=new contacted qualified negotiating sold lost"`
	Kind  string `json:"kind" validate:"omitempty,oneof=inquiry credit_application test_drive trade_in"`
}

func (s *Service) ListLeads(ctx context.Context, q LeadQuery, page Page) ([]store.Inquiry, error) {
	return s.store.ListInquiries(ctx, &store.InquiryFilter{Stage: q.Stage, Kind: q.Kind}, page.options())
}

func (s *Service) GetLead(ctx context.Context, id int64) (*LeadDetail, error) {
	i, err := s.store.GetInquiry(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &LeadDetail{Inquiry: i}
	if i.Kind == store.InquiryKindCreditApplication {
		app, err := s.store.CreditApplicationForInquiry(ctx, id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		d.CreditApplication = app
	}

	d.Activities, err = s.store.ActivitiesForInquiry(ctx, id, Page{}.options())
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Board is the pipeline: every stage in order, each column ordered by position
func (s *Service) Board(ctx context.Context, kind string) ([]pipeline.Column, error) {
	leads, err := s.store.Board(ctx, &store.InquiryFilter{Kind: kind})
	if err != nil {
		return nil, err
	}
	return pipeline.Board(leads), nil
}

// MoveLead places the lead at position in a stage column and records the stage change
func (s *Service) MoveLead(ctx context.Context, id int64, req MoveLeadRequest, actor *int64) (*store.Inquiry, error) {
	cur, err := s.store.GetInquiry(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := pipeline.StageTransition(cur.Stage, req.Stage); err != nil {
		return nil, err
	}

	i, err := s.store.MoveInquiry(ctx, id, req.Stage, req.Position)
	if err != nil {
		return nil, err
	}

	if cur.Stage != i.Stage {
		s.activity(ctx, id, store.ActivityStageChange, fmt.Sprintf("%s → %s", cur.Stage, i.Stage), actor)
	}
	return i, nil
}

// AssignLead hands the lead to an active user; a nil user unassigns it
func (s *Service) AssignLead(ctx context.Context, id int64, req AssignLeadRequest, actor *int64) (*store.Inquiry, error) {
	i, err := s.store.GetInquiry(ctx, id)
	if err != nil {
		return nil, err
	}

	body := "unassigned"
	if req.UserID != nil {
		u, err := s.store.GetUserByID(ctx, *req.UserID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !u.Active) {
			return nil, validation.FieldError("user_id", "must be an active user")
		}
		if err != nil {
			return nil, err
		}
		body = "assigned to " + u.Name
	}

	i.AssignedUserID = req.UserID
	if err := s.store.UpdateInquiry(ctx, i); err != nil {
		return nil, err
	}
	s.activity(ctx, id, store.ActivityAssignment, body, actor)
	return i, nil
}

// AddLeadNote records a note, mirrored to the CRM contact when there is one
func (s *Service) AddLeadNote(ctx context.Context, id int64, req NoteRequest, actor *int64) (*store.LeadActivity, error) {
	i, err := s.store.GetInquiry(ctx, id)
	if err != nil {
		return nil, err
	}

	a := &store.LeadActivity{
		InquiryID: id,
		Kind:      store.ActivityNote,
		Body:      req.Body,
		UserID:    actor,
	}
	if err := s.store.AddActivity(ctx, a); err != nil {
		return nil, err
	}

	if i.CRMContactID != "" && s.crmEnabled() {
		contactID := i.CRMContactID
		s.goBackground(ctx, "crm-note", func(ctx context.Context) error {
			return s.crm.AddNote(ctx, contactID, req.Body)
		})
	}
	return a, nil
}

// SyncLeadToCRM pushes the lead to the CRM now and reports the failure instead of logging it
func (s *Service) SyncLeadToCRM(ctx context.Context, id int64, actor *int64) (*store.Inquiry, error) {
	if !s.crmEnabled() {
		return nil, ErrUnavailable
	}
	i, err := s.store.GetInquiry(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.syncLead(ctx, i, actor); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Service) syncLeadLater(ctx context.Context, i *store.Inquiry) {
	if !s.crmEnabled() {
		return
	}
	lead := *i
	s.goBackground(ctx, "crm-sync", func(ctx context.Context) error {
		return s.syncLead(ctx, &lead, nil)
	})
}

func (s *Service) syncLead(ctx context.Context, i *store.Inquiry, actor *int64) error {
	id, err := s.crmUpsert(ctx, i.Name, i.Email, i.Phone, i.Kind)
	if err != nil {
		return err
	}

	if i.CRMContactID != id {
		// the lead may have moved while the CRM call ran; only the contact id is ours to write
		updated, err := s.store.SetInquiryCRMContact(ctx, i.InquiryID, id)
		if err != nil {
			return fmt.Errorf("save crm contact id: %w", err)
		}
		*i = *updated
	}
	s.activity(ctx, i.InquiryID, store.ActivityCRMSync, "synced to CRM contact "+id, actor)
	return nil
}

func (s *Service) crmEnabled() bool {
	return s.crm != nil && s.crm.Enabled()
}

func (s *Service) crmUpsert(ctx context.Context, name, email, phone, tag string) (string, error) {
	if !s.crmEnabled() {
		return "", nil
	}
	id, err := s.crm.UpsertContact(ctx, crm.Contact{
		Name:   name,
		Email:  email,
		Phone:  phone,
		Source: s.dealershipName(ctx) + " website",
		Tags:   []string{tag},
	})
	if err != nil {
		return "", fmt.Errorf("crm upsert: %w", err)
	}
	return id, nil
}

// activity records a lead event; the event itself already happened, so a failure is only logged
func (s *Service) activity(ctx context.Context, inquiryID int64, kind, body string, actor *int64) {
	a := &store.LeadActivity{
		InquiryID: inquiryID,
		Kind:      kind,
		Body:      body,
		UserID:    actor,
	}
	if err := s.store.AddActivity(ctx, a); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"inquiry_id": inquiryID, "kind": kind}).Warn("record lead activity")
	}
}
