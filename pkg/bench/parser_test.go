package bench

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want ParsedAnswer
	}{
		{
			name: "plain answer",
			raw:  "GET /v1/assets",
			want: ParsedAnswer{Method: "GET", Path: "/v1/assets"},
		},
		{
			name: "answer inside prose",
			raw:  "Use GET /v1/instruments/SBER@MISX/quotes/latest to get the quote.",
			want: ParsedAnswer{Method: "GET", Path: "/v1/instruments/SBER@MISX/quotes/latest"},
		},
		{
			name: "lowercase method",
			raw:  "delete /v1/accounts/123/orders/456",
			want: ParsedAnswer{Method: "DELETE", Path: "/v1/accounts/123/orders/456"},
		},
		{
			name: "backticked answer",
			raw:  "The request is `POST /v1/sessions`.",
			want: ParsedAnswer{Method: "POST", Path: "/v1/sessions"},
		},
		{
			name: "first matching line wins",
			raw:  "Some preamble without an answer\nGET /v1/exchanges\nPOST /v1/sessions",
			want: ParsedAnswer{Method: "GET", Path: "/v1/exchanges"},
		},
		{
			name: "colon separator",
			raw:  "Answer: GET: /v1/assets/SBER@MISX/params",
			want: ParsedAnswer{Method: "GET", Path: "/v1/assets/SBER@MISX/params"},
		},
		{
			name: "duplicate slashes collapse",
			raw:  "GET //v1//assets",
			want: ParsedAnswer{Method: "GET", Path: "/v1/assets"},
		},
		{
			name: "query string survives",
			raw:  "GET /v1/instruments/SBER@MISX/bars?timeframe=TIME_FRAME_D",
			want: ParsedAnswer{Method: "GET", Path: "/v1/instruments/SBER@MISX/bars?timeframe=TIME_FRAME_D"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseFailures(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty answer", ""},
		{"no method", "/v1/assets is the endpoint"},
		{"method without path", "You should use GET here"},
		{"unknown verb", "FETCH /v1/assets"},
		{"bare slash", "GET /"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	first, err := Parse("The answer is `GET /v1/accounts/001/trades`.")
	require.NoError(t, err)

	second, err := Parse(first.Method + " " + first.Path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
