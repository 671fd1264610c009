package admin

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/handler"
)

// ReportsHandler handles admin report generation.
type ReportsHandler struct {
	pool *pgxpool.Pool
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(pool *pgxpool.Pool) *ReportsHandler {
	return &ReportsHandler{pool: pool}
}

// GetDashboardStats handles GET /admin/reports/dashboard.
func (h *ReportsHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	type stats struct {
		TotalSellers       int   `json:"total_sellers"`
		SettledPayments    int   `json:"settled_payments"`
		GrossVolume        int64 `json:"gross_volume"`
		PlatformRevenue    int64 `json:"platform_revenue"`
		PendingPayouts     int   `json:"pending_payouts"`
		ActiveNegotiations int   `json:"active_negotiations"`
	}

	var s stats

	h.pool.QueryRow(r.Context(), `SELECT COUNT(*) FROM wallets`).Scan(&s.TotalSellers)

	h.pool.QueryRow(r.Context(), `
		SELECT COUNT(*), COALESCE(SUM(amount)::bigint, 0)
		FROM payments WHERE settled = true`).Scan(&s.SettledPayments, &s.GrossVolume)

	// Commission rows are the wallet-less ledger entries.
	h.pool.QueryRow(r.Context(), `
		SELECT COALESCE(SUM(amount)::bigint, 0)
		FROM transactions WHERE wallet_id IS NULL AND category = 'platform_commission'`).Scan(&s.PlatformRevenue)

	h.pool.QueryRow(r.Context(), `
		SELECT COUNT(*) FROM payouts WHERE status = 'pending'`).Scan(&s.PendingPayouts)

	h.pool.QueryRow(r.Context(), `
		SELECT COUNT(*) FROM negotiations WHERE status = 'active'`).Scan(&s.ActiveNegotiations)

	handler.RespondJSON(w, http.StatusOK, s)
}

// GetLedgerReport handles GET /admin/reports/ledger.
func (h *ReportsHandler) GetLedgerReport(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "7 days"
	}

	rows, err := h.pool.Query(r.Context(), `
		SELECT direction, category, COUNT(*) as count, COALESCE(SUM(amount)::bigint, 0) as total
		FROM transactions
		WHERE created_at > now() - $1::interval
		GROUP BY direction, category ORDER BY count DESC`, period)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("query report", err))
		return
	}
	defer rows.Close()

	type ledgerSummary struct {
		Direction string `json:"direction"`
		Category  string `json:"category"`
		Count     int    `json:"count"`
		Total     int64  `json:"total"`
	}

	var summaries []ledgerSummary
	for rows.Next() {
		var s ledgerSummary
		if err := rows.Scan(&s.Direction, &s.Category, &s.Count, &s.Total); err != nil {
			handler.RespondError(w, domain.ErrInternal("scan report", err))
			return
		}
		summaries = append(summaries, s)
	}

	handler.RespondJSON(w, http.StatusOK, summaries)
}
