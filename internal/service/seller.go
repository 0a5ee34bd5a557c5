package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/auth"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/pipeline"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/sms"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

const verifyCounterPrefix = "seller_verify:"

// SellerConsignment is a consignment as its owner sees it in the portal
type SellerConsignment struct {
	*store.Consignment
	Payout    pipeline.Payout             `json:"payout"`
	Documents []store.ConsignmentDocument `json:"documents"`
}

// StartSellerVerification texts a code to an owner's phone.
// A phone with no consignment gets the same answer and no text.
func (s *Service) StartSellerVerification(ctx context.Context, req VerifyStartRequest) error {
	if s.sms == nil || !s.sms.Configured() {
		return ErrUnavailable
	}
	phone, err := validation.NormalizePhone(req.Phone)
	if err != nil {
		return validation.FieldError("phone", "must be a valid phone number")
	}

	if !s.verifyLimiter.Allow(phone) {
		return ErrRateLimited
	}
	if err := s.countVerification(ctx, phone); err != nil {
		return err
	}

	cs, err := s.store.ConsignmentsByOwnerPhone(ctx, phone)
	if err != nil {
		return err
	}
	if len(cs) == 0 {
		s.log.WithField("phone", phone).Info("verification requested for a phone with no consignments")
		return nil
	}

	if err := s.sms.StartVerification(ctx, phone); err != nil {
		return fmt.Errorf("start verification: %w", err)
	}
	return nil
}

// countVerification allows verifyPerHour codes per phone in a fixed hour window
func (s *Service) countVerification(ctx context.Context, phone string) error {
	if s.redis == nil {
		return nil
	}
	key := verifyCounterPrefix + phone

	n, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		// the in-memory limiter still applies
		s.log.WithError(err).Warn("count seller verification")
		return nil
	}
	if n == 1 {
		if err := s.redis.Expire(ctx, key, time.Hour).Err(); err != nil {
			s.log.WithError(err).Warn("expire seller verification counter")
		}
	}
	if n > int64(s.verifyPerHour) {
		return ErrRateLimited
	}
	return nil
}

// CheckSellerVerification trades a valid code for a seller session token
func (s *Service) CheckSellerVerification(ctx context.Context, req VerifyCheckRequest) (string, error) {
	if s.sms == nil || !s.sms.Configured() {
		return "", ErrUnavailable
	}
	phone, err := validation.NormalizePhone(req.Phone)
	if err != nil {
		return "", validation.FieldError("phone", "must be a valid phone number")
	}

	ok, err := s.sms.CheckVerification(ctx, phone, req.Code)
	if errors.Is(err, sms.ErrNotConfigured) {
		return "", ErrUnavailable
	}
	if err != nil {
		return "", fmt.Errorf("check verification: %w", err)
	}
	if !ok {
		return "", ErrVerificationFailed
	}

	return s.sessions.Create(ctx, &auth.Session{
		Kind:      auth.KindSeller,
		Phone:     phone,
		CreatedAt: s.now().UTC(),
	})
}

// SellerConsignments lists the verified phone's consignments, newest first, with payout estimates
func (s *Service) SellerConsignments(ctx context.Context, phone string) ([]SellerConsignment, error) {
	cs, err := s.store.ConsignmentsByOwnerPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	terms := s.terms(ctx)
	out := make([]SellerConsignment, 0, len(cs))
	for i := range cs {
		c := &cs[i]
		docs, err := s.store.DocumentsForConsignment(ctx, c.ConsignmentID)
		if err != nil {
			return nil, err
		}
		out = append(out, SellerConsignment{
			Consignment: c,
			Payout:      pipeline.EstimatePayout(c, terms),
			Documents:   docs,
		})
	}
	return out, nil
}

func (s *Service) SellerLogout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}
