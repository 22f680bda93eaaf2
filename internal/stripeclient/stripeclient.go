package stripeclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"clubreg/entity"
	"clubreg/internal/config"
	"clubreg/lib/sl"
)

// Registry is the piece of the core the webhook path drives.
type Registry interface {
	ConfirmPayment(sessionID string) (*entity.Member, error)
}

// StripeClient collects the membership fee: it creates checkout sessions at
// registration and consumes completed-session webhook events.
type StripeClient struct {
	sc            *client.API
	webhookSecret string
	successUrl    string
	feeAmount     int64
	feeCurrency   string
	clubName      string
	registry      Registry
	log           *slog.Logger
	testMode      bool
}

func New(conf *config.Config, logger *slog.Logger) *StripeClient {
	if conf.Stripe.APIKey == "" {
		return nil
	}
	sc := &client.API{}
	sc.Init(conf.Stripe.APIKey, nil)
	return &StripeClient{
		sc:            sc,
		webhookSecret: conf.Stripe.WebhookSecret,
		successUrl:    conf.Stripe.SuccessURL,
		feeAmount:     conf.Membership.FeeAmount,
		feeCurrency:   conf.Membership.FeeCurrency,
		clubName:      conf.Membership.ClubName,
		testMode:      conf.Stripe.TestMode,
		log:           logger.With(sl.Module("stripe")),
	}
}

func (s *StripeClient) SetRegistry(registry Registry) {
	s.registry = registry
}

// CheckoutLink creates a checkout session for the membership fee of a newly
// registered applicant and returns the payment URL and session id.
func (s *StripeClient) CheckoutLink(member *entity.Member) (string, string, error) {
	if s.feeAmount <= 0 {
		return "", "", fmt.Errorf("membership fee is not configured")
	}
	if s.successUrl == "" {
		return "", "", fmt.Errorf("missing success url")
	}
	log := s.log.With(
		slog.String("membership_id", member.MembershipID),
		slog.Int64("amount", s.feeAmount),
		slog.String("currency", s.feeCurrency),
	)

	csParams := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.successUrl),
		ClientReferenceID: stripe.String(member.MembershipID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.feeCurrency),
					UnitAmount: stripe.Int64(s.feeAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%s annual membership", s.clubName)),
					},
				},
			},
		},
	}
	if member.Email != "" {
		csParams.CustomerEmail = stripe.String(member.Email)
	}
	csParams.SetIdempotencyKey(uuid.NewString())

	cs, err := s.sc.CheckoutSessions.New(csParams)
	if err != nil {
		err = s.parseErr(err)
		return "", "", fmt.Errorf("stripe checkout session: %w", err)
	}

	log.With(slog.String("session_id", cs.ID)).Info("checkout link created")
	return cs.URL, cs.ID, nil
}

// VerifySignature checks the Stripe-Signature header against the webhook
// secret. Test mode accepts mismatched signatures to ease local testing.
func (s *StripeClient) VerifySignature(payload []byte, header string, tolerance time.Duration) bool {
	secret := s.webhookSecret
	parts := strings.Split(header, ",")
	var ts, sig string
	for _, p := range parts {
		if strings.HasPrefix(p, "t=") {
			ts = strings.TrimPrefix(p, "t=")
		}
		if strings.HasPrefix(p, "v1=") {
			sig = strings.TrimPrefix(p, "v1=")
		}
	}
	if ts == "" || sig == "" {
		s.log.Warn("missing timestamp or signature in header")
		return false
	}

	tsInt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		s.log.With(sl.Err(err)).Warn("failed to parse timestamp")
		return false
	}

	eventTime := time.Unix(tsInt, 0)
	timeSince := time.Since(eventTime)
	if timeSince > tolerance {
		s.log.With(
			slog.Time("timestamp", eventTime),
			slog.Duration("age", timeSince),
			slog.Duration("tolerance", tolerance),
		).Warn("webhook timestamp too old")
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	isValid := hmac.Equal([]byte(expected), []byte(sig))
	if !isValid {
		s.log.With(
			sl.Secret("secret", secret),
		).Warn("signature mismatch")
		if s.testMode {
			return true
		}
	}
	return isValid
}

// HandleEvent routes a verified webhook event. Only completed checkout
// sessions matter to the membership workflow.
func (s *StripeClient) HandleEvent(evt *stripe.Event) {
	switch evt.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		s.handleCheckoutCompleted(evt)
	default:
		s.log.With(slog.Any("event_type", evt.Type)).Debug("ignoring event")
	}
}

func (s *StripeClient) handleCheckoutCompleted(evt *stripe.Event) {
	sessionID := evt.GetObjectValue("id")
	log := s.log.With(
		slog.Any("event_type", evt.Type),
		slog.String("event_id", evt.ID),
		slog.String("session_id", sessionID),
	)
	if s.registry == nil {
		log.Error("registry not connected")
		return
	}

	member, err := s.registry.ConfirmPayment(sessionID)
	if err != nil {
		// replayed deliveries or sessions for already-confirmed records
		log.With(sl.Err(err)).Warn("no pending record for session")
		return
	}
	log.With(
		slog.String("membership_id", member.MembershipID),
	).Info("payment confirmed")
}
