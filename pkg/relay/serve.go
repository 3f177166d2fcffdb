package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/entrhq/suzzy/pkg/page"
)

// Serve is the page-side handler: it decodes one command message, runs it
// against tab and encodes exactly one result message.
//
// Failures never escape as errors or panics; they become a result with
// success set to false.
func Serve(ctx context.Context, tab page.Tab, msg []byte) []byte {
	var env envelope
	res := func() (res Result) {
		defer func() {
			if p := recover(); p != nil {
				res = Result{Error: fmt.Sprintf("page handler panicked: %v", p)}
			}
		}()

		if err := json.Unmarshal(msg, &env); err != nil {
			return Result{Error: fmt.Sprintf("malformed command: %v", err)}
		}
		return dispatch(ctx, tab, env.Command)
	}()

	out, err := json.Marshal(reply{ID: env.ID, Result: res})
	if err != nil {
		out, _ = json.Marshal(reply{ID: env.ID, Result: Result{Error: err.Error()}})
	}
	return out
}

func dispatch(ctx context.Context, tab page.Tab, cmd Command) Result {
	switch cmd.Type {
	case TypeExtractContent:
		snap, err := tab.Extract(ctx)
		if err != nil {
			return Result{Error: err.Error()}
		}
		return Result{Success: true, Content: &snap}

	case TypeHighlightText:
		n, err := tab.Highlight(ctx, cmd.Text)
		if err != nil {
			return Result{Error: err.Error()}
		}
		return Result{Success: true, Matches: &n}

	case TypeNavigateToElement:
		err := tab.Navigate(ctx, cmd.Selector)
		switch {
		case errors.Is(err, page.ErrElementNotFound):
			return Result{Error: "Element not found"}
		case err != nil:
			return Result{Error: err.Error()}
		}
		return Result{Success: true}

	default:
		return Result{Error: fmt.Sprintf("unknown command type %q", cmd.Type)}
	}
}
