package server

import (
	"context"

	"httpwire/http"

	"github.com/pkg/errors"
)

type HandleFunc func(ctx context.Context, request *http.Request) *http.Response

// doHandle dispatches to the handler, converting panics and nil responses
// into errors so one bad handler cannot take the whole server down.
func doHandle(ctx context.Context, handle HandleFunc, request *http.Request) (res *http.Response, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.Errorf("handler panicked: %v", e)
		}
	}()

	res = handle(ctx, request)
	if res == nil {
		return nil, errors.New("nil response is forbidden")
	}

	return res, nil
}
