// internal/domain/checkout/message.go
package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/elegant-store/storefront/internal/domain/cart"
)

// Message renders the order as the WhatsApp text sent to the store
func Message(form Form, lines []cart.Line, subtotal, deliveryFee float64) string {
	var b strings.Builder

	b.WriteString("Hello, I would like to place a new order:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", form.Name)
	fmt.Fprintf(&b, "Phone: %s\n", form.Phone)
	fmt.Fprintf(&b, "Emirate: %s\n\n", form.Emirate)

	b.WriteString("Order details:\n")
	for _, line := range lines {
		fmt.Fprintf(&b, "- %s (%d × %s AED) = %s AED\n",
			line.Name, line.Qty, cart.FormatAmount(line.PriceValue()), cart.FormatAmount(line.Value()))
	}

	fmt.Fprintf(&b, "\nSubtotal: %s AED\n", cart.FormatAmount(subtotal))
	fmt.Fprintf(&b, "Delivery fee: %s AED\n", cart.FormatAmount(deliveryFee))
	fmt.Fprintf(&b, "Total: %s AED\n\n", cart.FormatAmount(subtotal+deliveryFee))
	b.WriteString("Thank you!")

	return b.String()
}

// componentEscaper turns url.QueryEscape output into the browser's
// encodeURIComponent form: spaces as %20 and !'()* left as they are
var componentEscaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// WhatsAppURL links to a chat with number prefilled with message
func WhatsAppURL(number, message string) string {
	text := componentEscaper.Replace(url.QueryEscape(message))
	return fmt.Sprintf("https://wa.me/%s?text=%s", number, text)
}
