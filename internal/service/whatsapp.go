package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/utidosgames/storefront/internal/coins"
	"github.com/utidosgames/storefront/internal/models"
)

const whatsAppBase = "https://wa.me/"

// WhatsAppURL builds a click-to-chat link for phone with text prefilled.
// Everything but digits is dropped from phone.
func WhatsAppURL(phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return whatsAppBase + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// OrderMessage renders the order summary sent to the store over WhatsApp.
func OrderMessage(storeName string, o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá! Quero finalizar meu pedido na %s.\n", storeName)
	fmt.Fprintf(&b, "Pedido: %s\n\n", o.ID)
	for _, it := range o.Items {
		name := it.Name
		if it.Platform != "" {
			name += " (" + it.Platform + ")"
		}
		fmt.Fprintf(&b, "%dx %s - %s\n", it.Quantity, name, coins.FormatReais(it.LineTotalCents))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", coins.FormatReais(o.SubtotalCents))
	if o.CoinsUsed > 0 {
		fmt.Fprintf(&b, "Desconto UTI Coins (%d): -%s\n", o.CoinsUsed, coins.FormatReais(o.DiscountCents))
	}
	if o.ProApplied {
		b.WriteString("Preços UTI PRO aplicados\n")
	}
	fmt.Fprintf(&b, "Total: %s", coins.FormatReais(o.TotalCents))
	return b.String()
}
