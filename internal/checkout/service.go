package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mindcare/checkout-api/internal/obs"
)

// SessionIDPlaceholder is substituted by the gateway with the created session id.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

const (
	defaultGatewayTimeout = 10 * time.Second
	defaultSuccessPath    = "/success.html"
	defaultCancelPath     = "/cancel.html"
)

// State is a step of a single CreateSession call.
type State string

const (
	StateReceived            State = "received"
	StateValidated           State = "validated"
	StateGatewayCallInFlight State = "gateway_call_in_flight"
	StateSucceeded           State = "succeeded"
	StateFailed              State = "failed"
)

// Options is process-wide configuration, fixed at startup.
type Options struct {
	ClientURL      string
	FallbackOrigin string
	// GatewayTimeout bounds each gateway call.
	GatewayTimeout time.Duration
	SuccessPath    string
	CancelPath     string
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Gateway Gateway
	Options Options
	Tracer  trace.Tracer
}

// Service validates session requests and exchanges them for redirect URLs.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	gateway  Gateway
	opts     Options
	tracer   trace.Tracer
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Gateway == nil {
		return nil, errors.New("checkout: gateway is required")
	}
	opts := cfg.Options
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = defaultGatewayTimeout
	}
	if opts.SuccessPath == "" {
		opts.SuccessPath = defaultSuccessPath
	}
	if opts.CancelPath == "" {
		opts.CancelPath = defaultCancelPath
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("checkout.Service")
	}
	return &Service{
		gateway:  cfg.Gateway,
		opts:     opts,
		tracer:   tracer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Options returns the configuration the service was built with.
func (s *Service) Options() Options {
	return s.opts
}

// CreateSession validates req, resolves the return origin and asks the
// gateway for a checkout session. Validation failures never reach the gateway.
func (s *Service) CreateSession(ctx context.Context, req SessionRequest, requestOrigin string) (SessionResult, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.CreateSession")
	defer span.End()

	logger := zerolog.Ctx(ctx)
	transition := func(state State) {
		span.AddEvent(string(state))
	}
	transition(StateReceived)

	// Labelled "unknown" until the request has been validated.
	mode := Mode("unknown")
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("checkout.mode", string(mode)),
			attribute.String("checkout.result", result),
		)
		if obs.CheckoutSessionTotal != nil {
			obs.CheckoutSessionTotal.WithLabelValues(string(mode), result).Inc()
		}
	}()

	req.PriceReference = strings.TrimSpace(req.PriceReference)
	req.Mode = Mode(strings.ToLower(strings.TrimSpace(string(req.Mode))))
	if err := s.validateRequest(req); err != nil {
		result = "invalid"
		transition(StateFailed)
		span.SetStatus(codes.Error, err.Error())
		return SessionResult{}, err
	}
	mode = req.Mode.OrDefault()
	transition(StateValidated)

	origin := ResolveReturnOrigin(s.opts.ClientURL, requestOrigin, s.opts.FallbackOrigin)
	params := GatewaySessionParams{
		LineItems:           []LineItem{{PriceReference: req.PriceReference, Quantity: 1}},
		Mode:                mode,
		SuccessURL:          fmt.Sprintf("%s%s?session_id=%s", origin, s.opts.SuccessPath, SessionIDPlaceholder),
		CancelURL:           origin + s.opts.CancelPath,
		AllowPromotionCodes: true,
		AutomaticTax:        true,
	}
	span.SetAttributes(
		attribute.String("checkout.price_reference", req.PriceReference),
		attribute.String("checkout.return_origin", origin),
	)

	transition(StateGatewayCallInFlight)
	session, err := s.callGateway(ctx, params)
	if err != nil {
		result = "gateway_error"
		if hasCode(err, CodeGatewayTimeout) {
			result = "timeout"
		}
		transition(StateFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(errors.Unwrap(err)).
			Str("price_reference", req.PriceReference).
			Str("mode", string(mode)).
			Msg("create checkout session")
		return SessionResult{}, err
	}

	result = "success"
	transition(StateSucceeded)
	span.SetAttributes(attribute.String("checkout.session_id", session.ID))
	logger.Info().
		Str("session_id", session.ID).
		Str("price_reference", req.PriceReference).
		Str("mode", string(mode)).
		Msg("checkout session created")
	return SessionResult{RedirectURL: session.URL}, nil
}

func (s *Service) callGateway(ctx context.Context, params GatewaySessionParams) (GatewaySession, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.GatewayTimeout)
	defer cancel()

	start := time.Now()
	session, err := s.gateway.CreateCheckoutSession(callCtx, params)
	outcome := "success"
	defer func() {
		if obs.GatewayCallDuration != nil {
			obs.GatewayCallDuration.WithLabelValues(outcome).Observe(obs.DurationMillis(time.Since(start)))
		}
	}()

	switch {
	case err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		outcome = "timeout"
		return GatewaySession{}, TimeoutError(err)
	case err != nil:
		outcome = "error"
		return GatewaySession{}, GatewayError(err)
	case strings.TrimSpace(session.URL) == "":
		outcome = "error"
		return GatewaySession{}, GatewayError(errors.New(msgNoRedirect))
	}
	return session, nil
}

func (s *Service) validateRequest(req SessionRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "PriceReference":
			return ValidationError(msgMissingPrice)
		case "Mode":
			return ValidationError(msgInvalidMode)
		}
	}
	return ValidationError(err.Error())
}
