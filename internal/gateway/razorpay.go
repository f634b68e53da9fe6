// Package gateway talks to the external payment provider. Calls go through a circuit
// breaker so a failing provider is not hammered by webhook retries.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var ErrUnavailable = errors.New("payment gateway unavailable")

// minor units per major unit for every currency the provider accepts here
var minorUnits = decimal.NewFromInt(100)

// API is the subset of the provider SDK in use.
type API interface {
	CreateOrder(data map[string]interface{}) (map[string]interface{}, error)
	FetchOrder(orderID string) (map[string]interface{}, error)
	FetchPayment(paymentID string) (map[string]interface{}, error)
}

type razorpayAPI struct {
	client *razorpay.Client
}

func NewRazorpayAPI(keyID, keySecret string) API {
	return &razorpayAPI{client: razorpay.NewClient(keyID, keySecret)}
}

func (r *razorpayAPI) CreateOrder(data map[string]interface{}) (map[string]interface{}, error) {
	return r.client.Order.Create(data, nil)
}

func (r *razorpayAPI) FetchOrder(orderID string) (map[string]interface{}, error) {
	return r.client.Order.Fetch(orderID, nil, nil)
}

func (r *razorpayAPI) FetchPayment(paymentID string) (map[string]interface{}, error) {
	return r.client.Payment.Fetch(paymentID, nil, nil)
}

// Checkout is the payable reference handed back to the customer.
type Checkout struct {
	Reference string `json:"reference"`
	InitPoint string `json:"init_point"`
}

// PaymentInfo is what the provider reports about an external payment.
type PaymentInfo struct {
	ExternalReference string
	StatusCode        string
	Amount            decimal.Decimal
	CurrencyCode      string
	Method            string
}

type Config struct {
	CheckoutURL   string
	WebhookSecret string
	MaxFailures   uint32
	OpenTimeout   time.Duration
}

type Gateway struct {
	api     API
	breaker *gobreaker.CircuitBreaker
	cfg     Config
	log     *zap.Logger
}

func New(api API, cfg Config, log *zap.Logger) *Gateway {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	settings := gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Gateway{
		api:     api,
		breaker: gobreaker.NewCircuitBreaker(settings),
		cfg:     cfg,
		log:     log,
	}
}

func (g *Gateway) call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return res.(map[string]interface{}), nil
}

// CreateCheckout opens a provider order for the booking total. The booking id travels as
// the order receipt and in the notes so notifications can be traced back to it.
func (g *Gateway) CreateCheckout(ctx context.Context, bookingID string, amount decimal.Decimal, currency string) (*Checkout, error) {
	data := map[string]interface{}{
		"amount":   amount.Mul(minorUnits).Round(0).IntPart(),
		"currency": strings.ToUpper(currency),
		"receipt":  bookingID,
		"notes":    map[string]interface{}{"booking_id": bookingID},
	}

	order, err := g.call(ctx, func() (map[string]interface{}, error) { return g.api.CreateOrder(data) })
	if err != nil {
		return nil, fmt.Errorf("create checkout for booking %s: %w", bookingID, err)
	}

	orderID, _ := order["id"].(string)
	if orderID == "" {
		return nil, fmt.Errorf("create checkout for booking %s: provider returned no order id", bookingID)
	}

	initPoint := orderID
	if g.cfg.CheckoutURL != "" {
		initPoint = g.cfg.CheckoutURL + "?order_id=" + orderID
	}
	g.log.Info("checkout created", zap.String("booking_id", bookingID), zap.String("order_id", orderID))
	return &Checkout{Reference: orderID, InitPoint: initPoint}, nil
}

// LookupPayment resolves an external payment id into its booking reference and status.
func (g *Gateway) LookupPayment(ctx context.Context, externalPaymentID string) (*PaymentInfo, error) {
	payment, err := g.call(ctx, func() (map[string]interface{}, error) { return g.api.FetchPayment(externalPaymentID) })
	if err != nil {
		return nil, fmt.Errorf("fetch payment %s: %w", externalPaymentID, err)
	}

	info := &PaymentInfo{
		StatusCode:   stringField(payment, "status"),
		CurrencyCode: strings.ToUpper(stringField(payment, "currency")),
		Method:       stringField(payment, "method"),
	}
	if minor, ok := payment["amount"].(float64); ok {
		info.Amount = decimal.NewFromFloat(minor).Div(minorUnits)
	}
	if notes, ok := payment["notes"].(map[string]interface{}); ok {
		info.ExternalReference = stringField(notes, "booking_id")
	}

	if info.ExternalReference == "" {
		if orderID := stringField(payment, "order_id"); orderID != "" {
			order, err := g.call(ctx, func() (map[string]interface{}, error) { return g.api.FetchOrder(orderID) })
			if err != nil {
				return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
			}
			info.ExternalReference = stringField(order, "receipt")
		}
	}
	return info, nil
}

// VerifyWebhook checks the provider signature. Without a configured secret every body is accepted.
func (g *Gateway) VerifyWebhook(body []byte, signature string) bool {
	if g.cfg.WebhookSecret == "" {
		return true
	}
	if signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, g.cfg.WebhookSecret)
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
