/*
	A session answers one client's commands against one object store.

	Sessions hold no state between commands: each Want is resolved on its
	own, and objects pushed for an earlier Want may well be pushed again
	for a later one.  Skipping what a client already has is the job of
	whatever negotiation layer sits in front of this.
*/
package session

import (
	"context"
	"io"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/webodb"
	"github.com/polydawn/webodb/api"
	"github.com/polydawn/webodb/resolve"
	"github.com/polydawn/webodb/session/log"
	"github.com/polydawn/webodb/store"
)

type Session struct {
	store store.Store
}

func New(s store.Store) *Session {
	return &Session{store: s}
}

/*
	Translate a command into the lazy sequence of pushes that answers it.

	Nothing is looked up until the returned Pushes is pulled.

	May return errors of category:

	  - `webodb.ErrUsage` -- if the command carries no Want, or an invalid one
*/
func (s *Session) Handle(cmd api.ClientCommand) (*Pushes, error) {
	if cmd.Want == nil {
		return nil, Errorf(webodb.ErrUsage, "client command carries no want")
	}
	if err := cmd.Want.Validate(); err != nil {
		return nil, err
	}
	return &Pushes{
		query:    *cmd.Want,
		resolver: resolve.Resolve(*cmd.Want, s.store),
	}, nil
}

// A cursor over the ServerCommands answering one Want.
type Pushes struct {
	query    api.WantQuery
	resolver *resolve.Resolver
	count    int
}

/*
	Returns the next Push, or io.EOF once they're all sent.
	Errors are sticky, exactly as for `resolve.Resolver.Next`.
*/
func (p *Pushes) Next() (api.ServerCommand, error) {
	obj, err := p.resolver.Next()
	if err != nil {
		return api.ServerCommand{}, err
	}
	p.count++
	return api.ServerCommand{Push: obj}, nil
}

// How many pushes have been produced so far.
func (p *Pushes) Count() int {
	return p.count
}

/*
	Handle a command and pump every resulting push into `send`.

	The context is checked between pushes; there is no other cancellation point.
	Pushes and failures are reported to the monitor as they happen.
	An error from `send` stops the pump and is returned as-is.

	May return errors of category:

	  - `webodb.ErrUsage` -- if the command carries no Want, or an invalid one
	  - `webodb.ErrCancelled` -- if the context is done before the last push
	  - `webodb.ErrNotFound` and `webodb.ErrTypeMismatch` -- from resolution
*/
func (s *Session) Serve(
	ctx context.Context, // Long-running call.  Cancellable.
	cmd api.ClientCommand, // The command to answer.
	send func(api.ServerCommand) error, // Receives each push, in order.
	mon api.Monitor, // Optionally: callbacks for progress monitoring.
) error {
	pushes, err := s.Handle(cmd)
	if err != nil {
		return err
	}
	log.WantReceived(mon, pushes.query)
	for {
		if ctx.Err() != nil {
			err = Errorf(webodb.ErrCancelled, "cancelled after %d pushes: %s", pushes.Count(), ctx.Err())
			log.WantFailed(mon, pushes.query, pushes.Count(), err)
			return err
		}
		push, err := pushes.Next()
		if err == io.EOF {
			log.WantServed(mon, pushes.query, pushes.Count())
			return nil
		}
		if err != nil {
			log.WantFailed(mon, pushes.query, pushes.Count(), err)
			return err
		}
		log.Pushed(mon, push.Push)
		if err := send(push); err != nil {
			return err
		}
	}
}
