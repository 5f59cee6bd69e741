package ortex

import (
	"context"
	"errors"
	"testing"

	"github.com/ortex-financial/ortex-go/internal/testutil"
	"github.com/ortex-financial/ortex-go/pkg/apierr"
	"github.com/ortex-financial/ortex-go/pkg/client"
)

func newTestAPI(t *testing.T, mock *testutil.MockAPI) *API {
	t.Helper()

	cfg := client.DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = mock.URL()
	cfg.RequestsPerSecond = 0

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return NewAPI(c)
}

func TestGetShortInterest(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	rows := []map[string]any{
		{"date": "2024-12-17", "sharesOnLoan": 1000000, "utilization": 85.5},
	}
	mock.Respond("/NYSE/AMC/short_interest", testutil.Envelope(rows, 1.0, 1000.0))

	api := newTestAPI(t, mock)
	resp, err := api.GetShortInterest(context.Background(), "NYSE", "AMC", "", "")
	if err != nil {
		t.Fatalf("GetShortInterest failed: %v", err)
	}

	if len(resp.Rows) != 1 {
		t.Errorf("got %d rows, want 1", len(resp.Rows))
	}
	if resp.CreditsUsed != 1.0 {
		t.Errorf("CreditsUsed = %v, want 1.0", resp.CreditsUsed)
	}
}

func TestGetShortInterestNormalizesInput(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.Respond("/NYSE/AMC/short_interest", testutil.Envelope(nil, 1.0, 999.0))

	api := newTestAPI(t, mock)
	if _, err := api.GetShortInterest(context.Background(), " nyse ", "amc", "", ""); err != nil {
		t.Fatalf("GetShortInterest failed: %v", err)
	}

	if mock.Hits("/NYSE/AMC/short_interest") != 1 {
		t.Error("lowercase input was not normalized to the uppercase path")
	}
}

func TestGetShortInterestWithDates(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.Respond("/NYSE/AMC/short_interest", testutil.Envelope(nil, 1.0, 999.0))

	api := newTestAPI(t, mock)
	if _, err := api.GetShortInterest(context.Background(), "NYSE", "AMC", "2024-01-01", "2024-12-31"); err != nil {
		t.Fatalf("GetShortInterest failed: %v", err)
	}

	if got := mock.LastQuery["from_date"]; len(got) != 1 || got[0] != "2024-01-01" {
		t.Errorf("from_date = %v, want [2024-01-01]", got)
	}
	if got := mock.LastQuery["to_date"]; len(got) != 1 || got[0] != "2024-12-31" {
		t.Errorf("to_date = %v, want [2024-12-31]", got)
	}
}

func TestGetShortInterestRejectsBadDate(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	api := newTestAPI(t, mock)
	_, err := api.GetShortInterest(context.Background(), "NYSE", "AMC", "17/12/2024", "")
	if err == nil {
		t.Fatal("expected a validation error for a malformed date")
	}

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != apierr.KindValidation {
		t.Errorf("got %v, want a validation error", err)
	}
	if mock.Requests() != 0 {
		t.Errorf("server saw %d requests, want 0", mock.Requests())
	}
}

func TestStockEndpointPaths(t *testing.T) {
	tests := []struct {
		name string
		path string
		call func(ctx context.Context, api *API) error
	}{
		{
			name: "short availability",
			path: "/stock/NYSE/AMC/availability",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetShortAvailability(ctx, "NYSE", "AMC", "", "")
				return err
			},
		},
		{
			name: "cost to borrow all loans",
			path: "/stock/NYSE/AMC/ctb/all",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetCostToBorrow(ctx, "NYSE", "AMC", "", "", "")
				return err
			},
		},
		{
			name: "cost to borrow new loans",
			path: "/stock/NYSE/AMC/ctb/new",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetCostToBorrow(ctx, "NYSE", "AMC", LoanTypeNew, "", "")
				return err
			},
		},
		{
			name: "days to cover",
			path: "/stock/NYSE/AMC/dtc",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetDaysToCover(ctx, "NYSE", "AMC", "", "")
				return err
			},
		},
		{
			name: "closing prices",
			path: "/stock/NASDAQ/AAPL/closing_prices",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetPrice(ctx, "NASDAQ", "AAPL", "", "")
				return err
			},
		},
		{
			name: "close price alias",
			path: "/stock/NASDAQ/AAPL/closing_prices",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetClosePrice(ctx, "NASDAQ", "AAPL", "", "")
				return err
			},
		},
		{
			name: "free float",
			path: "/stock/NYSE/F/free_float",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetFreeFloat(ctx, "NYSE", "F", "2024-01-01", "")
				return err
			},
		},
		{
			name: "shares outstanding",
			path: "/stock/NYSE/F/free_float",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetSharesOutstanding(ctx, "NYSE", "F", "2024-01-01", "")
				return err
			},
		},
		{
			name: "eu open positions",
			path: "/stock/XETR/SAP/european_short_interest_filings/open_positions_at",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetEUShortPositions(ctx, "XETR", "SAP", "")
				return err
			},
		},
		{
			name: "eu positions in range",
			path: "/stock/XETR/SAP/european_short_interest_filings/positions_in_range",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetEUShortPositionsHistory(ctx, "XETR", "SAP", "2024-01-01", "")
				return err
			},
		},
		{
			name: "eu total open positions",
			path: "/stock/XETR/SAP/european_short_interest_filings/total_open_positions",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetEUShortTotal(ctx, "XETR", "SAP")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockAPI()
			defer mock.Close()
			mock.Respond(tt.path, testutil.Envelope(nil, 1.0, 999.0))

			api := newTestAPI(t, mock)
			if err := tt.call(context.Background(), api); err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if mock.Hits(tt.path) != 1 {
				t.Errorf("path %s served %d requests, want 1", tt.path, mock.Hits(tt.path))
			}
		})
	}
}

func TestGetCostToBorrowRejectsBadLoanType(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	api := newTestAPI(t, mock)
	_, err := api.GetCostToBorrow(context.Background(), "NYSE", "AMC", "open", "", "")

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != apierr.KindValidation {
		t.Errorf("got %v, want a validation error", err)
	}
	if mock.Requests() != 0 {
		t.Errorf("server saw %d requests, want 0", mock.Requests())
	}
}

func TestIndexEndpoints(t *testing.T) {
	tests := []struct {
		name string
		path string
		call func(ctx context.Context, api *API) error
	}{
		{
			name: "index short interest",
			path: "/index/short_interest",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetIndexShortInterest(ctx, "US-S 500", "", "")
				return err
			},
		},
		{
			name: "index availability",
			path: "/index/short_availability",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetIndexShortAvailability(ctx, "US-S 500", "", "")
				return err
			},
		},
		{
			name: "index cost to borrow",
			path: "/index/short_ctb",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetIndexCostToBorrow(ctx, "US-S 500", "", "")
				return err
			},
		},
		{
			name: "index days to cover",
			path: "/index/short_dtc",
			call: func(ctx context.Context, api *API) error {
				_, err := api.GetIndexDaysToCover(ctx, "US-S 500", "", "")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockAPI()
			defer mock.Close()
			mock.Respond(tt.path, testutil.Envelope(nil, 1.0, 999.0))

			api := newTestAPI(t, mock)
			if err := tt.call(context.Background(), api); err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if got := mock.LastQuery["index"]; len(got) != 1 || got[0] != "US-S 500" {
				t.Errorf("index query = %v, want [US-S 500]", got)
			}
		})
	}
}

func TestFundamentalsEndpoints(t *testing.T) {
	categories := []struct {
		category string
		call     func(ctx context.Context, api *API, e, tk, p string) error
	}{
		{"income", func(ctx context.Context, api *API, e, tk, p string) error {
			_, err := api.GetIncomeStatement(ctx, e, tk, p)
			return err
		}},
		{"balance", func(ctx context.Context, api *API, e, tk, p string) error {
			_, err := api.GetBalanceSheet(ctx, e, tk, p)
			return err
		}},
		{"cash", func(ctx context.Context, api *API, e, tk, p string) error {
			_, err := api.GetCashFlow(ctx, e, tk, p)
			return err
		}},
		{"ratios", func(ctx context.Context, api *API, e, tk, p string) error {
			_, err := api.GetFinancialRatios(ctx, e, tk, p)
			return err
		}},
		{"summary", func(ctx context.Context, api *API, e, tk, p string) error {
			_, err := api.GetFundamentalsSummary(ctx, e, tk, p)
			return err
		}},
		{"valuation", func(ctx context.Context, api *API, e, tk, p string) error {
			_, err := api.GetValuation(ctx, e, tk, p)
			return err
		}},
	}

	for _, tt := range categories {
		t.Run(tt.category, func(t *testing.T) {
			mock := testutil.NewMockAPI()
			defer mock.Close()

			path := "/stock/NYSE/F/fundamentals/" + tt.category
			data := map[string]any{"revenue": 50000000000.0}
			mock.Respond(path, testutil.FundamentalsEnvelope(data, "Test Company", "2024Q3", tt.category))

			api := newTestAPI(t, mock)
			if err := tt.call(context.Background(), api, "NYSE", "F", "2024Q3"); err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if mock.Hits(path) != 1 {
				t.Errorf("path %s served %d requests, want 1", path, mock.Hits(path))
			}
			if got := mock.LastQuery["period"]; len(got) != 1 || got[0] != "2024Q3" {
				t.Errorf("period query = %v, want [2024Q3]", got)
			}
		})
	}
}

func TestFundamentalsResponseFields(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	data := map[string]any{"revenue": 50000000000.0, "netIncome": 5000000000.0}
	mock.Respond("/stock/NYSE/F/fundamentals/income",
		testutil.FundamentalsEnvelope(data, "Test Company", "2024Q3", "income"))

	api := newTestAPI(t, mock)
	resp, err := api.GetIncomeStatement(context.Background(), "NYSE", "F", "2024Q3")
	if err != nil {
		t.Fatalf("GetIncomeStatement failed: %v", err)
	}

	if resp.Company != "Test Company" {
		t.Errorf("Company = %q, want %q", resp.Company, "Test Company")
	}
	if resp.Period != "2024Q3" {
		t.Errorf("Period = %q, want %q", resp.Period, "2024Q3")
	}
	if resp.Category != "income" {
		t.Errorf("Category = %q, want %q", resp.Category, "income")
	}
	if resp.Data["revenue"] != 50000000000.0 {
		t.Errorf("Data[revenue] = %v", resp.Data["revenue"])
	}
}

func TestMarketDataEndpoints(t *testing.T) {
	t.Run("earnings with dates", func(t *testing.T) {
		mock := testutil.NewMockAPI()
		defer mock.Close()
		mock.Respond("/earnings", testutil.Envelope(nil, 1.0, 999.0))

		api := newTestAPI(t, mock)
		if _, err := api.GetEarnings(context.Background(), "2024-12-01", "2024-12-31"); err != nil {
			t.Fatalf("GetEarnings failed: %v", err)
		}
		if got := mock.LastQuery["from_date"]; len(got) != 1 || got[0] != "2024-12-01" {
			t.Errorf("from_date = %v", got)
		}
	})

	t.Run("exchanges with country filter", func(t *testing.T) {
		mock := testutil.NewMockAPI()
		defer mock.Close()
		rows := []map[string]any{{"code": "NYSE", "name": "New York Stock Exchange"}}
		mock.Respond("/generics/exchanges", testutil.Envelope(rows, 1.0, 999.0))

		api := newTestAPI(t, mock)
		resp, err := api.GetExchanges(context.Background(), "United States")
		if err != nil {
			t.Fatalf("GetExchanges failed: %v", err)
		}
		if len(resp.Rows) != 1 {
			t.Errorf("got %d rows, want 1", len(resp.Rows))
		}
		if got := mock.LastQuery["country"]; len(got) != 1 || got[0] != "United States" {
			t.Errorf("country query = %v", got)
		}
	})

	t.Run("macro events", func(t *testing.T) {
		mock := testutil.NewMockAPI()
		defer mock.Close()
		mock.Respond("/macro_events", testutil.Envelope(nil, 1.0, 999.0))

		api := newTestAPI(t, mock)
		if _, err := api.GetMacroEvents(context.Background(), "US"); err != nil {
			t.Fatalf("GetMacroEvents failed: %v", err)
		}
		if got := mock.LastQuery["country"]; len(got) != 1 || got[0] != "US" {
			t.Errorf("country query = %v", got)
		}
	})
}
