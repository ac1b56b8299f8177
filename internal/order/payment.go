package order

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront-replica/internal/domain"
)

// paymentRef fabricates a gateway-style reference for the chosen method.
// Payments are mocked end to end: the reference is displayed to the user but
// never charged.
func paymentRef(method domain.PaymentMethod) string {
	switch method {
	case domain.PaymentPix:
		return "PIX-" + strings.ToUpper(uuid.NewString()[:13])
	case domain.PaymentBoleto:
		return boletoLine()
	default:
		return "CARD-" + strings.ToUpper(uuid.NewString()[:8])
	}
}

// boletoLine builds a 47-digit boleto-style digit line.
func boletoLine() string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var b strings.Builder
	for i := 0; i < 47; i++ {
		fmt.Fprintf(&b, "%d", rng.Intn(10))
	}
	return b.String()
}
