package service

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/bookstore/internal/core/domain"
)

const (
	msgPaymentProcessed = "Payment processed successfully"
	msgPaymentDeclined  = "Payment declined by bank"
	msgCardExpired      = "Card expired"
)

// Gateway settles a charge. Implementations never return an error: a
// declined charge is a normal outcome.
type Gateway interface {
	Process(method domain.PaymentMethod, amount decimal.Decimal, card domain.CardDetails) GatewayResult
}

type GatewayResult struct {
	Status        domain.PaymentStatus
	TransactionID string
	Message       string
}

type TestCard struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

var (
	successCards = []TestCard{
		{Number: "4111111111111111", Message: msgPaymentProcessed},
		{Number: "5555555555554444", Message: msgPaymentProcessed},
	}
	declineCards = []TestCard{
		{Number: "4000000000000002", Message: msgPaymentDeclined},
		{Number: "4000000000000069", Message: msgCardExpired},
	}
)

type GatewayConfig struct {
	// SuccessRates maps payment method to the probability of success.
	SuccessRates map[string]float64
	DefaultRate  float64

	// Draw returns a uniform value in [0, 1). Defaults to math/rand/v2.
	Draw func() float64
}

// DefaultGatewayConfig returns the stock success table.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		SuccessRates: map[string]float64{
			string(domain.PaymentMethodCreditCard):     0.95,
			string(domain.PaymentMethodDebitCard):      0.93,
			string(domain.PaymentMethodPayPal):         0.98,
			string(domain.PaymentMethodBankTransfer):   0.99,
			string(domain.PaymentMethodCashOnDelivery): 1.0,
		},
		DefaultRate: 0.9,
	}
}

// MockGateway decides outcomes by a per-method success probability.
// Sandbox card numbers bypass the draw.
type MockGateway struct {
	rates       map[domain.PaymentMethod]float64
	defaultRate float64
	draw        func() float64
}

func NewMockGateway(cfg GatewayConfig) *MockGateway {
	rates := make(map[domain.PaymentMethod]float64, len(cfg.SuccessRates))
	for method, rate := range cfg.SuccessRates {
		rates[domain.PaymentMethod(strings.ToLower(method))] = rate
	}

	draw := cfg.Draw
	if draw == nil {
		draw = rand.Float64
	}

	return &MockGateway{
		rates:       rates,
		defaultRate: cfg.DefaultRate,
		draw:        draw,
	}
}

// Rate returns the success probability applied to method.
func (g *MockGateway) Rate(method domain.PaymentMethod) float64 {
	if rate, ok := g.rates[method]; ok {
		return rate
	}
	return g.defaultRate
}

func (g *MockGateway) Process(method domain.PaymentMethod, amount decimal.Decimal, card domain.CardDetails) GatewayResult {
	if method.IsCard() && card.Number != "" {
		for _, c := range successCards {
			if c.Number == card.Number {
				return completed()
			}
		}
		for _, c := range declineCards {
			if c.Number == card.Number {
				return GatewayResult{Status: domain.PaymentStatusFailed, Message: c.Message}
			}
		}
	}

	if g.draw() < g.Rate(method) {
		return completed()
	}
	return GatewayResult{Status: domain.PaymentStatusFailed, Message: msgPaymentDeclined}
}

// Info describes the sandbox for clients building against it.
func (g *MockGateway) Info() SandboxInfo {
	rates := make(map[domain.PaymentMethod]float64, len(domain.PaymentMethods))
	for _, m := range domain.PaymentMethods {
		rates[m] = g.Rate(m)
	}
	return SandboxInfo{
		SandboxMode:      true,
		SupportedMethods: domain.PaymentMethods,
		SuccessRates:     rates,
		DefaultRate:      g.defaultRate,
		SuccessCards:     successCards,
		DeclineCards:     declineCards,
	}
}

type SandboxInfo struct {
	SandboxMode      bool
	SupportedMethods []domain.PaymentMethod
	SuccessRates     map[domain.PaymentMethod]float64
	DefaultRate      float64
	SuccessCards     []TestCard
	DeclineCards     []TestCard
}

func completed() GatewayResult {
	return GatewayResult{
		Status:        domain.PaymentStatusCompleted,
		TransactionID: newTransactionID(),
		Message:       msgPaymentProcessed,
	}
}

// newTransactionID returns "TXN_" followed by 12 upper-case hex characters.
func newTransactionID() string {
	id := uuid.New()
	hex := strings.ReplaceAll(id.String(), "-", "")
	return "TXN_" + strings.ToUpper(hex[:12])
}
