/*
	Helper functions for emitting structured logs to an api.Monitor.

	These cover the common lifecycle events of serving a want,
	and keep them formatted the same way wherever they're raised.
	Callers can of course also send their own log events raw; it is freetext.
*/
package log

import (
	"fmt"

	"github.com/warpfork/go-errcat"

	"github.com/polydawn/webodb/api"
	"github.com/polydawn/webodb/object"
)

func WantReceived(mon api.Monitor, q api.WantQuery) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Level: api.LogInfo,
			Msg:   fmt.Sprintf("resolving want %s", q),
			Detail: map[string]string{
				"base":  q.Base.String(),
				"mode":  string(q.Mode),
				"depth": fmt.Sprintf("%d", q.Depth),
			},
		},
	}
}

func Pushed(mon api.Monitor, obj object.Object) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Push: api.PushEvent(obj),
	}
}

func WantServed(mon api.Monitor, q api.WantQuery, pushed int) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Level: api.LogInfo,
			Msg:   fmt.Sprintf("served want %s: pushed %d objects", q, pushed),
			Detail: map[string]string{
				"base":   q.Base.String(),
				"pushed": fmt.Sprintf("%d", pushed),
			},
		},
	}
}

// Typically called with a `webodb.ErrNotFound` or `webodb.ErrTypeMismatch`.
func WantFailed(mon api.Monitor, q api.WantQuery, pushed int, err error) {
	if mon.Chan == nil {
		return
	}
	detail := map[string]string{
		"base":   q.Base.String(),
		"pushed": fmt.Sprintf("%d", pushed),
		"error":  err.Error(),
	}
	if e2, ok := err.(errcat.Error); ok {
		detail["category"] = fmt.Sprintf("%s", e2.Category())
		for k, v := range e2.Details() {
			detail[k] = v
		}
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Level:  api.LogError,
			Msg:    fmt.Sprintf("want %s failed after %d pushes: %s", q, pushed, err),
			Detail: detail,
		},
	}
}
