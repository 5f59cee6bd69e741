package ortex

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ortex-financial/ortex-go/pkg/apierr"
	"github.com/ortex-financial/ortex-go/pkg/response"
)

// Loan types accepted by GetCostToBorrow.
const (
	LoanTypeAll = "all"
	LoanTypeNew = "new"
)

// dateRangeParams validates optional from/to dates and encodes them as
// from_date and to_date query parameters.
func dateRangeParams(fromDate, toDate string) (url.Values, error) {
	params := url.Values{}
	from, err := NormalizeDate(fromDate)
	if err != nil {
		return nil, err
	}
	if from != "" {
		params.Set("from_date", from)
	}
	to, err := NormalizeDate(toDate)
	if err != nil {
		return nil, err
	}
	if to != "" {
		params.Set("to_date", to)
	}
	return params, nil
}

func (a *API) stockRange(ctx context.Context, exchange, ticker, suffix, fromDate, toDate string) (*response.Response, error) {
	params, err := dateRangeParams(fromDate, toDate)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("stock/%s/%s/%s", NormalizeExchange(exchange), NormalizeTicker(ticker), suffix)
	return a.client.Get(ctx, path, params)
}

func (a *API) indexRange(ctx context.Context, index, suffix, fromDate, toDate string) (*response.Response, error) {
	params, err := dateRangeParams(fromDate, toDate)
	if err != nil {
		return nil, err
	}
	params.Set("index", index)
	return a.client.Get(ctx, "index/"+suffix, params)
}

// GetShortInterest returns short interest estimates for a stock. The from and
// to dates are optional and restrict the range when non-empty.
func (a *API) GetShortInterest(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	params, err := dateRangeParams(fromDate, toDate)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("%s/%s/short_interest", NormalizeExchange(exchange), NormalizeTicker(ticker))
	return a.client.Get(ctx, path, params)
}

// GetShortAvailability returns shares available to borrow for a stock.
func (a *API) GetShortAvailability(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	return a.stockRange(ctx, exchange, ticker, "availability", fromDate, toDate)
}

// GetCostToBorrow returns cost to borrow data for a stock. loanType selects
// between all open loans (LoanTypeAll) and newly opened loans (LoanTypeNew);
// an empty loanType defaults to all.
func (a *API) GetCostToBorrow(ctx context.Context, exchange, ticker, loanType, fromDate, toDate string) (*response.Response, error) {
	switch loanType {
	case "":
		loanType = LoanTypeAll
	case LoanTypeAll, LoanTypeNew:
	default:
		return nil, apierr.NewValidation(fmt.Sprintf("invalid loan type %q, expected %q or %q", loanType, LoanTypeAll, LoanTypeNew))
	}
	return a.stockRange(ctx, exchange, ticker, "ctb/"+loanType, fromDate, toDate)
}

// GetDaysToCover returns days to cover estimates for a stock.
func (a *API) GetDaysToCover(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	return a.stockRange(ctx, exchange, ticker, "dtc", fromDate, toDate)
}

// GetIndexShortInterest returns aggregated short interest for an index.
func (a *API) GetIndexShortInterest(ctx context.Context, index, fromDate, toDate string) (*response.Response, error) {
	return a.indexRange(ctx, index, "short_interest", fromDate, toDate)
}

// GetIndexShortAvailability returns aggregated availability for an index.
func (a *API) GetIndexShortAvailability(ctx context.Context, index, fromDate, toDate string) (*response.Response, error) {
	return a.indexRange(ctx, index, "short_availability", fromDate, toDate)
}

// GetIndexCostToBorrow returns aggregated cost to borrow for an index.
func (a *API) GetIndexCostToBorrow(ctx context.Context, index, fromDate, toDate string) (*response.Response, error) {
	return a.indexRange(ctx, index, "short_ctb", fromDate, toDate)
}

// GetIndexDaysToCover returns aggregated days to cover for an index.
func (a *API) GetIndexDaysToCover(ctx context.Context, index, fromDate, toDate string) (*response.Response, error) {
	return a.indexRange(ctx, index, "short_dtc", fromDate, toDate)
}

// GetPrice returns daily closing prices for a stock.
func (a *API) GetPrice(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	return a.stockRange(ctx, exchange, ticker, "closing_prices", fromDate, toDate)
}

// GetClosePrice is an alias for GetPrice.
func (a *API) GetClosePrice(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	return a.GetPrice(ctx, exchange, ticker, fromDate, toDate)
}

// GetFreeFloat returns free float history for a stock.
func (a *API) GetFreeFloat(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	return a.stockRange(ctx, exchange, ticker, "free_float", fromDate, toDate)
}

// GetSharesOutstanding returns shares outstanding history for a stock. The
// API serves it from the same dataset as free float.
func (a *API) GetSharesOutstanding(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	return a.stockRange(ctx, exchange, ticker, "free_float", fromDate, toDate)
}

func (a *API) fundamentals(ctx context.Context, exchange, ticker, category, period string) (*response.Response, error) {
	params := url.Values{}
	if period != "" {
		params.Set("period", period)
	}
	path := fmt.Sprintf("stock/%s/%s/fundamentals/%s", NormalizeExchange(exchange), NormalizeTicker(ticker), category)
	return a.client.Get(ctx, path, params)
}

// GetIncomeStatement returns income statement fundamentals for a period
// such as "2024Q3". An empty period returns the most recent report.
func (a *API) GetIncomeStatement(ctx context.Context, exchange, ticker, period string) (*response.Response, error) {
	return a.fundamentals(ctx, exchange, ticker, "income", period)
}

// GetBalanceSheet returns balance sheet fundamentals.
func (a *API) GetBalanceSheet(ctx context.Context, exchange, ticker, period string) (*response.Response, error) {
	return a.fundamentals(ctx, exchange, ticker, "balance", period)
}

// GetCashFlow returns cash flow statement fundamentals.
func (a *API) GetCashFlow(ctx context.Context, exchange, ticker, period string) (*response.Response, error) {
	return a.fundamentals(ctx, exchange, ticker, "cash", period)
}

// GetFinancialRatios returns financial ratio fundamentals.
func (a *API) GetFinancialRatios(ctx context.Context, exchange, ticker, period string) (*response.Response, error) {
	return a.fundamentals(ctx, exchange, ticker, "ratios", period)
}

// GetFundamentalsSummary returns summary fundamentals.
func (a *API) GetFundamentalsSummary(ctx context.Context, exchange, ticker, period string) (*response.Response, error) {
	return a.fundamentals(ctx, exchange, ticker, "summary", period)
}

// GetValuation returns valuation fundamentals.
func (a *API) GetValuation(ctx context.Context, exchange, ticker, period string) (*response.Response, error) {
	return a.fundamentals(ctx, exchange, ticker, "valuation", period)
}

// GetEUShortPositions returns disclosed EU short positions open at the given
// date, or the latest filings when date is empty.
func (a *API) GetEUShortPositions(ctx context.Context, exchange, ticker, date string) (*response.Response, error) {
	params := url.Values{}
	at, err := NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	if at != "" {
		params.Set("date", at)
	}
	path := fmt.Sprintf("stock/%s/%s/european_short_interest_filings/open_positions_at", NormalizeExchange(exchange), NormalizeTicker(ticker))
	return a.client.Get(ctx, path, params)
}

// GetEUShortPositionsHistory returns disclosed EU short positions filed
// within the date range.
func (a *API) GetEUShortPositionsHistory(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	return a.stockRange(ctx, exchange, ticker, "european_short_interest_filings/positions_in_range", fromDate, toDate)
}

// GetEUShortTotal returns the total disclosed EU short position for a stock.
func (a *API) GetEUShortTotal(ctx context.Context, exchange, ticker string) (*response.Response, error) {
	path := fmt.Sprintf("stock/%s/%s/european_short_interest_filings/total_open_positions", NormalizeExchange(exchange), NormalizeTicker(ticker))
	return a.client.Get(ctx, path, nil)
}

// GetEarnings returns upcoming earnings announcements, optionally bounded
// by from and to dates.
func (a *API) GetEarnings(ctx context.Context, fromDate, toDate string) (*response.Response, error) {
	params, err := dateRangeParams(fromDate, toDate)
	if err != nil {
		return nil, err
	}
	return a.client.Get(ctx, "earnings", params)
}

// GetExchanges returns the supported exchanges, optionally filtered by country.
func (a *API) GetExchanges(ctx context.Context, country string) (*response.Response, error) {
	params := url.Values{}
	if country != "" {
		params.Set("country", country)
	}
	return a.client.Get(ctx, "generics/exchanges", params)
}

// GetMacroEvents returns upcoming macroeconomic events for a country code.
func (a *API) GetMacroEvents(ctx context.Context, country string) (*response.Response, error) {
	params := url.Values{}
	if country != "" {
		params.Set("country", country)
	}
	return a.client.Get(ctx, "macro_events", params)
}

// Package-level variants of the API methods, backed by the default client.

func GetShortInterest(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetShortInterest(ctx, exchange, ticker, fromDate, toDate)
}

func GetShortAvailability(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetShortAvailability(ctx, exchange, ticker, fromDate, toDate)
}

func GetCostToBorrow(ctx context.Context, exchange, ticker, loanType, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetCostToBorrow(ctx, exchange, ticker, loanType, fromDate, toDate)
}

func GetDaysToCover(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetDaysToCover(ctx, exchange, ticker, fromDate, toDate)
}

func GetIndexShortInterest(ctx context.Context, index, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetIndexShortInterest(ctx, index, fromDate, toDate)
}

func GetIndexShortAvailability(ctx context.Context, index, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetIndexShortAvailability(ctx, index, fromDate, toDate)
}

func GetIndexCostToBorrow(ctx context.Context, index, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetIndexCostToBorrow(ctx, index, fromDate, toDate)
}

func GetIndexDaysToCover(ctx context.Context, index, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetIndexDaysToCover(ctx, index, fromDate, toDate)
}

func GetPrice(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetPrice(ctx, exchange, ticker, fromDate, toDate)
}

func GetClosePrice(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	return GetPrice(ctx, exchange, ticker, fromDate, toDate)
}

func GetFreeFloat(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetFreeFloat(ctx, exchange, ticker, fromDate, toDate)
}

func GetSharesOutstanding(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetSharesOutstanding(ctx, exchange, ticker, fromDate, toDate)
}

func GetIncomeStatement(ctx context.Context, exchange, ticker, period string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetIncomeStatement(ctx, exchange, ticker, period)
}

func GetBalanceSheet(ctx context.Context, exchange, ticker, period string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetBalanceSheet(ctx, exchange, ticker, period)
}

func GetCashFlow(ctx context.Context, exchange, ticker, period string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetCashFlow(ctx, exchange, ticker, period)
}

func GetFinancialRatios(ctx context.Context, exchange, ticker, period string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetFinancialRatios(ctx, exchange, ticker, period)
}

func GetFundamentalsSummary(ctx context.Context, exchange, ticker, period string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetFundamentalsSummary(ctx, exchange, ticker, period)
}

func GetValuation(ctx context.Context, exchange, ticker, period string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetValuation(ctx, exchange, ticker, period)
}

func GetEUShortPositions(ctx context.Context, exchange, ticker, date string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetEUShortPositions(ctx, exchange, ticker, date)
}

func GetEUShortPositionsHistory(ctx context.Context, exchange, ticker, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetEUShortPositionsHistory(ctx, exchange, ticker, fromDate, toDate)
}

func GetEUShortTotal(ctx context.Context, exchange, ticker string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetEUShortTotal(ctx, exchange, ticker)
}

func GetEarnings(ctx context.Context, fromDate, toDate string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetEarnings(ctx, fromDate, toDate)
}

func GetExchanges(ctx context.Context, country string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetExchanges(ctx, country)
}

func GetMacroEvents(ctx context.Context, country string) (*response.Response, error) {
	a, err := defaultAPI()
	if err != nil {
		return nil, err
	}
	return a.GetMacroEvents(ctx, country)
}
