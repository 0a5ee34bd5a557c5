package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/api"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/auth"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/config"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/crm"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/migrations"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/push"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/service"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/sms"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 15 * time.Second
	pruneInterval   = 5 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logrus.NewEntry(logrus.StandardLogger())
	if cfg.TwilioEnabled() && !cfg.Twilio.ValidateWebhooks {
		log.Warn("twilio webhook signatures are not checked; anyone can post inbound texts")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	st, err := newStore(cfg, c, log)
	if err != nil {
		return err
	}

	migrator, err := migrations.New(c.write.DB)
	if err != nil {
		return err
	}

	sessions := auth.NewManager(&auth.Config{
		Redis:        c.redis,
		TTL:          cfg.Session.TTL,
		AdminCookie:  cfg.Session.AdminCookie,
		SellerCookie: cfg.Session.SellerCookie,
		Secure:       cfg.Server.CookieSecure,
		Unauthorized: api.Unauthorized,
	})

	svc := service.New(&service.Config{
		Store: st,
		SMS:   newSMS(cfg, log),
		Push: push.NewSender(&push.Config{
			VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
			Subject:         cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
			Concurrency:     cfg.Push.Concurrency,
			Logger:          log,
		}),
		CRM: crm.New(&crm.Config{
			Enabled:           cfg.CRM.Enabled,
			BaseURL:           cfg.CRM.BaseURL,
			APIKey:            cfg.CRM.APIKey,
			LocationID:        cfg.CRM.LocationID,
			RequestsPerSecond: cfg.CRM.RequestsPerSecond,
			Timeout:           cfg.CRM.Timeout,
			Logger:            log,
		}),
		Sessions: sessions,
		Redis:    c.redis,
		SchemaVersion: func(ctx context.Context) (int64, int64, error) {
			current, err := migrator.Version(ctx)
			return current, migrator.Latest(), err
		},
		VerifyPerHour:     cfg.Seller.VerifyPerHour,
		WebhookConfigured: cfg.Twilio.ValidateWebhooks,
		PublicBaseURL:     cfg.Server.PublicBaseURL,
		Logger:            log,
	})

	server := api.New(&api.Config{
		Service:              svc,
		Sessions:             sessions,
		SMSWebhookURL:        cfg.Twilio.WebhookURL,
		PublicBaseURL:        cfg.Server.PublicBaseURL,
		TrustProxy:           cfg.Server.TrustProxy,
		PublicPostsPerMinute: cfg.Server.PublicPostsPerMinute,
		Logger:               log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go pruneLimiters(ctx, server, svc, log)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}
	if err := svc.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("background work did not finish")
	}
	log.Info("server shutdown complete")
	return nil
}

func newSMS(cfg *config.Config, log *logrus.Entry) sms.Provider {
	if !cfg.TwilioEnabled() {
		log.Warn("twilio is not configured; texts and seller verification are off")
		return sms.NewNoop(log)
	}
	return sms.NewTwilio(&sms.TwilioConfig{
		AccountSID:       cfg.Twilio.AccountSID,
		AuthToken:        cfg.Twilio.AuthToken,
		VerifyServiceSID: cfg.Twilio.VerifyServiceSID,
		FromNumber:       cfg.Twilio.FromNumber,
		Logger:           log,
	})
}

func pruneLimiters(ctx context.Context, server *api.Server, svc *service.Service, log *logrus.Entry) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ips, phones := server.PruneLimiters(), svc.PruneLimiters()
			if ips+phones > 0 {
				log.WithFields(logrus.Fields{"ips": ips, "phones": phones}).Debug("pruned idle limiters")
			}
		}
	}
}
