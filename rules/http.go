//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// RequestNoBody flags nil bodies on requests. http.NoBody states the intent
// and keeps ContentLength at zero for transports that inspect it.
func RequestNoBody(m dsl.Matcher) {
	m.Match(
		`http.NewRequest($method, $url, nil)`,
		`http.NewRequestWithContext($ctx, $method, $url, nil)`,
		`httptest.NewRequest($method, $url, nil)`,
	).
		Report("use http.NoBody instead of nil for requests without a body")
}

// RequestContext flags http.NewRequest in non-test code, where the request
// should carry the caller's context for cancellation.
func RequestContext(m dsl.Matcher) {
	m.Match(`http.NewRequest($*_)`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report("use http.NewRequestWithContext so the request is canceled with its caller")
}
