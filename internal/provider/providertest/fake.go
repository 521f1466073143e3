// Package providertest provides a scripted WalletProvider for tests.
package providertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mrz1836/swapdesk/internal/provider"
)

// Responder produces the result for one request. A returned error is passed
// to the caller unchanged.
type Responder func(params []any) (any, error)

// Call records one request made against the fake.
type Call struct {
	Method string
	Params []any
}

// Fake is an in-memory WalletProvider. Methods without a responder fail with
// an EIP-1193 4200 unsupported-method error.
type Fake struct {
	provider.Emitter

	mu         sync.Mutex
	responders map[string]Responder
	calls      []Call
}

// New creates an empty fake.
func New() *Fake {
	return &Fake{responders: make(map[string]Responder)}
}

// Handle registers r for method.
func (f *Fake) Handle(method string, r Responder) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responders[method] = r
	return f
}

// Respond makes method always return result.
func (f *Fake) Respond(method string, result any) *Fake {
	return f.Handle(method, func([]any) (any, error) { return result, nil })
}

// Fail makes method always return err.
func (f *Fake) Fail(method string, err error) *Fake {
	return f.Handle(method, func([]any) (any, error) { return nil, err })
}

// Reject makes method fail with a ProviderError carrying code.
func (f *Fake) Reject(method string, code int, message string) *Fake {
	return f.Fail(method, &provider.ProviderError{Code: code, Message: message})
}

// Request implements provider.WalletProvider.
func (f *Fake) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, Params: params})
	r, ok := f.responders[method]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !ok {
		return nil, &provider.ProviderError{
			Code:    provider.CodeUnsupportedMethod,
			Message: fmt.Sprintf("method %s not scripted", method),
		}
	}

	result, err := r(params)
	if err != nil {
		return nil, err
	}
	if raw, isRaw := result.(json.RawMessage); isRaw {
		return raw, nil
	}
	return json.Marshal(result)
}

// Calls returns every request made so far, in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the requests made for method.
func (f *Fake) CallsTo(method string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Methods returns the method of every request, in order.
func (f *Fake) Methods() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

// Sequence returns each item in turn, repeating the last one. Items that are
// errors are returned as errors.
func Sequence(items ...any) Responder {
	var mu sync.Mutex
	next := 0
	return func([]any) (any, error) {
		mu.Lock()
		defer mu.Unlock()

		if len(items) == 0 {
			return nil, nil
		}
		item := items[min(next, len(items)-1)]
		next++
		if err, ok := item.(error); ok {
			return nil, err
		}
		return item, nil
	}
}

var _ provider.WalletProvider = (*Fake)(nil)
