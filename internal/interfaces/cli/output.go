// internal/interfaces/cli/output.go
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elegant-store/storefront/internal/domain/cart"
	"github.com/elegant-store/storefront/internal/domain/catalog"
	"github.com/elegant-store/storefront/internal/domain/consent"
)

// printer writes command results as text or JSON
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(opts *RootOptions, w io.Writer) *printer {
	return &printer{format: opts.Format, w: w}
}

func (p *printer) json() bool {
	return p.format == "json"
}

// emit writes v as indented JSON in json mode, otherwise calls text
func (p *printer) emit(v any, text func(w io.Writer)) error {
	if p.json() {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(p.w)
	return nil
}

func printProducts(w io.Writer, products []catalog.Product, currency string) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products found.")
		return
	}
	for _, p := range products {
		fmt.Fprintf(w, "%3d  %-36s %10s %s\n", p.ID, p.Name, cart.FormatAmount(p.PriceValue()), currency)
	}
}

func printCart(w io.Writer, lines []cart.Line, totals cart.Totals, currency string) {
	if len(lines) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}
	for _, l := range lines {
		fmt.Fprintf(w, "%3d  %-36s x%-3d %10s %s\n", l.ID, l.Name, l.Qty, cart.FormatAmount(l.Value()), currency)
	}
	fmt.Fprintf(w, "%d item(s), total %s %s\n", totals.TotalQuantity, cart.FormatAmount(totals.SubTotal), currency)
}

func printConsent(w io.Writer, state consent.State) {
	if !state.Decided {
		fmt.Fprintln(w, "No cookie choice saved yet. Run `storefront consent accept-all`, `accept-necessary` or `save`.")
		return
	}
	p := state.Preferences
	fmt.Fprintf(w, "necessary:   %s\nanalytics:   %s\nmarketing:   %s\npreferences: %s\n",
		onOff(p.Necessary), onOff(p.Analytics), onOff(p.Marketing), onOff(p.Preferences))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	return prefix + strings.Join(lines, "\n"+prefix)
}
