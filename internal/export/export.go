// Package export renders the withdrawal claim record for operator download.
// It is a pure formatting transform over already-computed fields.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lockvest/investment-engine/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{
	"Client Name",
	"Scheme Name",
	"Principal",
	"Return Rate",
	"Expected Return",
	"Total Payout",
	"Applied At",
	"Withdraw Requested At",
	"Cleared At",
	"Wallet Address",
	"Status",
}

// WriteCSV renders the claim list as CSV.
func WriteCSV(w io.Writer, claims []*domain.WithdrawalClaim) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, claim := range claims {
		record := []string{
			claim.UserName,
			claim.SchemeName,
			claim.Amount.Sub(claim.ExpectedReturn).String(),
			claim.ReturnRate,
			claim.ExpectedReturn.String(),
			claim.Amount.String(),
			formatTime(&claim.AppliedAt),
			formatTime(&claim.RequestedAt),
			formatTime(claim.ClearedAt),
			claim.WalletAddress,
			statusLabel(claim.Status),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteText renders the claim list as one plain-text paragraph per claim.
func WriteText(w io.Writer, claims []*domain.WithdrawalClaim) error {
	lines := make([]string, 0, len(claims))
	for _, claim := range claims {
		lines = append(lines, fmt.Sprintf(
			"Client: %s, Scheme: %s, Principal: %s, Total Payout: %s, Applied: %s, Requested: %s, Cleared: %s, Wallet: %s, Status: %s",
			claim.UserName,
			claim.SchemeName,
			claim.Amount.Sub(claim.ExpectedReturn).String(),
			claim.Amount.String(),
			formatTime(&claim.AppliedAt),
			formatTime(&claim.RequestedAt),
			formatTime(claim.ClearedAt),
			claim.WalletAddress,
			statusLabel(claim.Status),
		))
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n\n"))
	return err
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.Format(timeLayout)
}

func statusLabel(status string) string {
	if status == domain.ClaimStatusCleared {
		return "Cleared"
	}
	return "Pending Approval"
}
