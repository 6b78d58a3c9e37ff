package bench

// Endpoint describes one operation of the Finam TradeAPI surface the model
// is allowed to answer with.
type Endpoint struct {
	Method      string
	Path        string
	Description string
}

// Catalog is the fixed TradeAPI surface rendered into every prompt. Order is
// part of the prompt contract; do not reorder.
var Catalog = []Endpoint{
	{"GET", "/v1/exchanges", "list available exchanges"},
	{"GET", "/v1/assets", "list available instruments"},
	{"GET", "/v1/assets/{symbol}", "instrument details"},
	{"GET", "/v1/assets/{symbol}/params", "trading parameters for an instrument"},
	{"GET", "/v1/assets/{symbol}/schedule", "trading schedule for an instrument"},
	{"GET", "/v1/assets/{symbol}/options", "options chain for an underlying"},
	{"GET", "/v1/instruments/{symbol}/quotes/latest", "latest quote"},
	{"GET", "/v1/instruments/{symbol}/orderbook", "current order book"},
	{"GET", "/v1/instruments/{symbol}/trades/latest", "latest trades"},
	{"GET", "/v1/instruments/{symbol}/bars", "historical candles, timeframe via query"},
	{"GET", "/v1/accounts/{account_id}", "account information"},
	{"GET", "/v1/accounts/{account_id}/orders", "list orders for an account"},
	{"GET", "/v1/accounts/{account_id}/orders/{order_id}", "single order details"},
	{"GET", "/v1/accounts/{account_id}/trades", "account trade history"},
	{"GET", "/v1/accounts/{account_id}/transactions", "account transactions"},
	{"POST", "/v1/sessions", "open an auth session"},
	{"POST", "/v1/sessions/details", "session details"},
	{"POST", "/v1/accounts/{account_id}/orders", "place an order"},
	{"DELETE", "/v1/accounts/{account_id}/orders/{order_id}", "cancel an order"},
}

// Timeframes supported by the bars endpoint, rendered into the prompt so the
// model can fill query parameters.
var Timeframes = []string{
	"TIME_FRAME_M1", "TIME_FRAME_M5", "TIME_FRAME_M15", "TIME_FRAME_M30",
	"TIME_FRAME_H1", "TIME_FRAME_H4", "TIME_FRAME_D", "TIME_FRAME_W",
	"TIME_FRAME_MN",
}
