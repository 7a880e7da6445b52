// Package ticketpdf renders the tickets of an order as a PDF, one page per
// ticket, each carrying a QR code of the ticket's opaque token.
package ticketpdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/pull-events/pull-api/internal/service"
)

// ErrNoTickets is returned when there is nothing to render.
var ErrNoTickets = errors.New("ticketpdf: no tickets")

const qrSize = 512 // px

// Render writes a PDF with one page per ticket to w.
func Render(w io.Writer, tickets []service.TicketInfo) error {
	doc, err := build(tickets)
	if err != nil {
		return err
	}
	return doc.Output(w)
}

func build(tickets []service.TicketInfo) (*fpdf.Fpdf, error) {
	if len(tickets) == 0 {
		return nil, ErrNoTickets
	}
	doc := fpdf.New("P", "mm", "A5", "")
	doc.SetTitle("Tickets", true)
	doc.SetAutoPageBreak(false, 0)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	for i, t := range tickets {
		png, err := qrcode.Encode(t.QRToken, qrcode.Medium, qrSize)
		if err != nil {
			return nil, fmt.Errorf("ticketpdf: qr for ticket %d: %w", i+1, err)
		}
		doc.AddPage()
		pageW, _ := doc.GetPageSize()

		doc.SetFont("Helvetica", "B", 18)
		doc.CellFormat(0, 12, tr(t.EventName), "", 1, "C", false, 0, "")

		doc.SetFont("Helvetica", "", 12)
		when := t.EventDate
		if t.StartTime != nil && *t.StartTime != "" {
			when += " " + *t.StartTime
		}
		doc.CellFormat(0, 8, when, "", 1, "C", false, 0, "")
		doc.CellFormat(0, 8, tr(t.TicketType), "", 1, "C", false, 0, "")
		doc.Ln(4)

		name := fmt.Sprintf("qr-%d", i)
		doc.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
		const side = 80.0
		doc.ImageOptions(name, (pageW-side)/2, doc.GetY(), side, side, true, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		doc.Ln(6)

		doc.SetFont("Helvetica", "B", 12)
		doc.CellFormat(0, 8, tr(t.OwnerFullName), "", 1, "C", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.CellFormat(0, 6, tr(t.OwnerEmail), "", 1, "C", false, 0, "")
		doc.SetFont("Helvetica", "", 8)
		doc.CellFormat(0, 6, fmt.Sprintf("Ticket %d of %d", i+1, len(tickets)), "", 1, "C", false, 0, "")
		if b := benefits(t); b != "" {
			doc.MultiCell(0, 5, tr(b), "", "C", false)
		}
	}
	if doc.Err() {
		return nil, fmt.Errorf("ticketpdf: %w", doc.Error())
	}
	return doc, nil
}

// benefits renders a JSON array of strings as a comma separated line.
func benefits(t service.TicketInfo) string {
	s := strings.TrimSpace(string(t.Benefits))
	if s == "" || s == "null" || s == "[]" {
		return ""
	}
	s = strings.Trim(s, "[]")
	s = strings.ReplaceAll(s, `"`, "")
	return strings.ReplaceAll(s, ",", ", ")
}
