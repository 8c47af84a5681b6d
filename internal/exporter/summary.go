package exporter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fedspend/fedspend/internal/spending"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// summaryAwards is how many awards the summary table shows.
const summaryAwards = 3

var dollarPrinter = message.NewPrinter(language.AmericanEnglish)

// Summary renders a console digest of the page: the total number of matching
// awards, the page position, the record count, and a table of the first few
// awards with their recipient, amount, awarding agency and type.
func Summary(page spending.Page) string {
	var b strings.Builder

	meta := page.Meta()
	fmt.Fprintf(&b, "Total awards found: %d\n", meta.Total)
	if meta.Page > 0 {
		fmt.Fprintf(&b, "Page: %d\n", meta.Page)
	}
	fmt.Fprintf(&b, "Records in this page: %d\n", len(page.Results))

	if len(page.Results) == 0 {
		return b.String()
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Recipient", "Amount", "Agency", "Type"})
	for i, award := range page.Results {
		if i >= summaryAwards {
			break
		}
		t.AppendRow(table.Row{
			cellOrNA(award, "Recipient Name"),
			dollars(award),
			cellOrNA(award, "Awarding Agency"),
			cellOrNA(award, "Award Type"),
		})
	}
	b.WriteString(t.Render())
	b.WriteByte('\n')

	return b.String()
}

func cellOrNA(award spending.Award, field string) string {
	if v := award.Cell(field); v != "" {
		return v
	}
	return "N/A"
}

// dollars renders the award amount as grouped dollars. A missing amount
// renders as zero; an amount that is not a number is shown as-is, since
// upstream fields are not guaranteed a type.
func dollars(award spending.Award) string {
	cell := award.Cell("Award Amount")
	if cell == "" {
		return "$0.00"
	}

	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return cell
	}
	return dollarPrinter.Sprintf("$%.2f", v)
}
