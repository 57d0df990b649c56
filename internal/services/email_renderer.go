package services

import (
	"fmt"
	"html"
	"strings"

	"github.com/DrKat0m/GreenBucks/internal/models"
)

// RenderReminderRows renders one table row per transaction waiting for a receipt.
func RenderReminderRows(transactions []models.Transaction) string {
	var rows strings.Builder
	for _, t := range transactions {
		rows.WriteString(fmt.Sprintf(`
				<tr>
					<td style="padding: 6px 8px; border-bottom: 1px solid #eee;">%s</td>
					<td style="padding: 6px 8px; border-bottom: 1px solid #eee;">%s</td>
					<td style="padding: 6px 8px; border-bottom: 1px solid #eee; text-align: right;">$%s</td>
				</tr>`,
			html.EscapeString(t.Date),
			html.EscapeString(t.Merchant),
			t.Amount.Abs().StringFixed(2),
		))
	}
	return rows.String()
}

// RenderReminderBody renders the full HTML body for the receipt reminder email.
func RenderReminderBody(transactions []models.Transaction) string {
	return fmt.Sprintf(`
		<html>
		<body style="font-family: 'Segoe UI', sans-serif; color: #333; line-height: 1.6; background-color: #f4f4f4; margin: 0; padding: 20px;">
			<div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
				<div style="background-color: #107c10; padding: 20px; text-align: center; color: white;">
					<h2 style="margin: 0;">Receipts Wanted</h2>
				</div>
				<div style="padding: 20px;">
					<p>%d purchase(s) could not be scored without a receipt. Upload one to unlock eco cashback:</p>
					<table style="width: 100%%; border-collapse: collapse;">
						<tr>
							<th style="text-align: left; padding: 6px 8px;">Date</th>
							<th style="text-align: left; padding: 6px 8px;">Merchant</th>
							<th style="text-align: right; padding: 6px 8px;">Amount</th>
						</tr>
						%s
					</table>
				</div>
			</div>
		</body>
		</html>
	`, len(transactions), RenderReminderRows(transactions))
}
