package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// MilestoneData describes a patient reaching an attendance milestone.
type MilestoneData struct {
	AppName     string
	PatientName string
	Count       int
	TotalBill   string
	AmountPaid  string
	Date        string
}

var milestoneHTML = template.Must(template.New("milestone").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2563eb;">{{.PatientName}} reached {{.Count}} visits</h2>
    <p>Patient <strong>{{.PatientName}}</strong> has completed {{.Count}} days of attendance as of {{.Date}}.</p>
    <table style="border-collapse: collapse;">
        <tr><td style="padding: 4px 12px 4px 0;">Total bill</td><td><strong>{{.TotalBill}}</strong></td></tr>
        {{if .AmountPaid}}<tr><td style="padding: 4px 12px 4px 0;">Paid</td><td>{{.AmountPaid}}</td></tr>{{end}}
    </table>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">{{.AppName}}</p>
</body>
</html>`))

// BuildMilestoneEmail renders the staff notice for a reached milestone.
func BuildMilestoneEmail(to []string, data MilestoneData) (Message, error) {
	if data.AppName == "" {
		data.AppName = "Clinic Ledger"
	}

	var html bytes.Buffer
	if err := milestoneHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render milestone email: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Patient %s has completed %d days of attendance as of %s.\n\n", data.PatientName, data.Count, data.Date)
	fmt.Fprintf(&text, "Total bill: %s\n", data.TotalBill)
	if data.AmountPaid != "" {
		fmt.Fprintf(&text, "Paid: %s\n", data.AmountPaid)
	}
	fmt.Fprintf(&text, "\n%s\n", data.AppName)

	return Message{
		To:       to,
		Subject:  fmt.Sprintf("[%s] %s reached %d visits", data.AppName, data.PatientName, data.Count),
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
