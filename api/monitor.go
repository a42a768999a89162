package api

import (
	"fmt"

	"github.com/warpfork/go-errcat"

	"github.com/polydawn/webodb/object"
)

/*
	Monitoring configuration structs, and message types used.
*/
type (
	/*
		Slot for the channel the caller wishes progress reports to be sent to.
	*/
	Monitor struct {
		// Channel to which events will be sent as the process proceeds.
		// The channel is *not* closed by the sender; the caller owns it.
		// A nil channel will disable all intermediate progress reporting.
		Chan chan<- Event
	}

	/*
		A "union" type of all the kinds of event that may be generated.

		The "Result" message is never sent to Monitor.Chan --
		its values are converted into the function returns --
		but *is* seen in the serial form emitted by the CLI.
	*/
	Event struct {
		Push   *Event_Push   `refmt:"push,omitempty"`
		Log    *Event_Log    `refmt:"log,omitempty"`
		Result *Event_Result `refmt:"result,omitempty"`
	}

	// One object was pushed.
	Event_Push struct {
		ID      string `refmt:"id"`
		Kind    string `refmt:"kind"`
		Summary string `refmt:"summary,omitempty"`
	}

	Event_Log struct {
		Level  LogLevel          `refmt:"lvl"`
		Msg    string            `refmt:"msg"`
		Detail map[string]string `refmt:"detail,omitempty"`
	}

	Event_Result struct {
		Pushed int    `refmt:"pushed"`
		Error  *Error `refmt:"error,omitempty"`
	}

	// Serializable form of an errcat error.
	Error struct {
		Category string            `refmt:"category"`
		Message  string            `refmt:"msg"`
		Details  map[string]string `refmt:"details,omitempty"`
	}
)

type LogLevel string

const (
	LogError = LogLevel("error")
	LogWarn  = LogLevel("warn")
	LogInfo  = LogLevel("info")
	LogDebug = LogLevel("debug")
)

// Describe a pushed object for humans and for the serial event stream.
func PushEvent(obj object.Object) *Event_Push {
	ev := &Event_Push{
		ID:   obj.ID().String(),
		Kind: obj.Kind().String(),
	}
	switch obj := obj.(type) {
	case *object.Commit:
		ev.Summary = obj.Summary()
	case *object.Tree:
		ev.Summary = fmt.Sprintf("%d entries", len(obj.Entries))
	case *object.Blob:
		ev.Summary = fmt.Sprintf("%d bytes", len(obj.Payload))
	}
	return ev
}

func (r *Event_Result) SetError(err error) {
	if err == nil {
		r.Error = nil
		return
	}
	r.Error = &Error{Message: err.Error()}
	if e2, ok := err.(errcat.Error); ok {
		r.Error.Category = fmt.Sprintf("%s", e2.Category())
		r.Error.Message = e2.Message()
		r.Error.Details = e2.Details()
	}
}
