package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	. "github.com/warpfork/go-errcat"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/polydawn/webodb"
	"github.com/polydawn/webodb/api"
	"github.com/polydawn/webodb/config"
	"github.com/polydawn/webodb/object"
	"github.com/polydawn/webodb/pack"
	"github.com/polydawn/webodb/session"
	"github.com/polydawn/webodb/store/gitstore"
)

/*
	Output serialization formats
*/
const (
	FmtJson = "json"
	FmtDumb = "dumb"
	FmtPack = "pack"
)

type baseCLI struct {
	Repo           string        // Repository path
	Deadline       string        // Deadline time (RFC3339)
	Format         string        // Output format, eg. json
	ProgressEnable bool          // Emit monitor events to stderr yes/no
	Timeout        time.Duration // Timeout duration (exclusive with deadline) eg. "60s"
	WantCLI        struct {
		ObjectID string // Base object id, 40 hex chars
		Ancestry uint   // Generations of commit ancestry
		Tree     bool   // Peel a tree
		Blob     bool   // Peel a blob
	}
}

func configureWant(cli *baseCLI, appWant *kingpin.CmdClause) {
	appWant.Arg("id", "Base object id").
		Required().
		StringVar(&cli.WantCLI.ObjectID)
	appWant.Flag("ancestry", "Generations of commit ancestry to push along with the base commit").
		UintVar(&cli.WantCLI.Ancestry)
	appWant.Flag("tree", "Push the base tree and everything reachable from it").
		BoolVar(&cli.WantCLI.Tree)
	appWant.Flag("blob", "Push the base blob").
		BoolVar(&cli.WantCLI.Blob)
}

/*
	Blocks until a sigint is received or the context is done, then calls cancel.
*/
func CancelOnInterrupt(ctx context.Context, cancel context.CancelFunc) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	defer signal.Stop(signalChan)
	select {
	case <-signalChan:
	case <-ctx.Done():
	}
	cancel()
}

func main() {
	ctx := context.Background()
	exitCode := Main(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	os.Exit(int(exitCode))
}

func Main(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) webodb.ExitCode {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go CancelOnInterrupt(ctx, cancel)

	cli := baseCLI{}

	app := kingpin.New("webodb", "Object enumeration for content-addressed want queries")
	app.HelpFlag.Short('h')

	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	app.Flag("repo", "Repository to serve objects from").
		Default(config.GetRepoPath()).
		StringVar(&cli.Repo)
	app.Flag("deadline", "Deadline (RFC3339)").
		StringVar(&cli.Deadline)
	app.Flag("timeout", "Timeout for command").
		DurationVar(&cli.Timeout)
	app.Flag("format", "Output format").
		Default(FmtDumb).
		EnumVar(&cli.Format, FmtJson, FmtDumb, FmtPack)
	app.Flag("progress", "Emit progress events to stderr").
		BoolVar(&cli.ProgressEnable)

	appWant := app.Command("want", "push the objects a want query asks for")
	configureWant(&cli, appWant)

	var termErr error
	app.Terminate(func(status int) {
		termErr = fmt.Errorf("parsing error: %d", status)
	})
	cmd, err := app.Parse(args[1:])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return webodb.ExitUsage
	}
	if termErr != nil {
		fmt.Fprintln(stderr, termErr)
		return webodb.ExitUsage
	}
	switch cmd {
	case appWant.FullCommand():
		err = executeWant(ctx, cli, stdout, stderr)
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
	}
	return webodb.ExitCodeFor(err)
}

func executeWant(ctx context.Context, cli baseCLI, stdout, stderr io.Writer) error {
	query, err := parseWant(cli)
	if err != nil {
		return err
	}
	ctx, cancel, err := applyDeadline(ctx, cli)
	if err != nil {
		return err
	}
	defer cancel()
	cacheSize, err := config.GetObjectCacheSize()
	if err != nil {
		return err
	}
	st, err := gitstore.Open(cli.Repo, cacheSize)
	if err != nil {
		return err
	}

	mon, drained := startProgress(cli, stderr)
	defer drained()

	sess := session.New(st)
	cmd := api.WantCommand(query)
	switch cli.Format {
	case FmtPack:
		var ids []object.ID
		err = sess.Serve(ctx, cmd, func(sc api.ServerCommand) error {
			ids = append(ids, sc.Push.ID())
			return nil
		}, mon)
		if err != nil {
			return err
		}
		_, err = pack.Write(stdout, st.Storer(), ids)
		return err
	case FmtJson:
		marshaller := refmt.NewMarshallerAtlased(json.EncodeOptions{}, stdout, api.Atlas)
		emit := func(ev api.Event) error {
			if err := marshaller.Marshal(&ev); err != nil {
				return err
			}
			_, err := fmt.Fprintln(stdout)
			return err
		}
		result := &api.Event_Result{}
		err = sess.Serve(ctx, cmd, func(sc api.ServerCommand) error {
			result.Pushed++
			return emit(api.Event{Push: api.PushEvent(sc.Push)})
		}, mon)
		result.SetError(err)
		if err2 := emit(api.Event{Result: result}); err2 != nil && err == nil {
			err = err2
		}
		return err
	case FmtDumb:
		return sess.Serve(ctx, cmd, func(sc api.ServerCommand) error {
			ev := api.PushEvent(sc.Push)
			_, err := fmt.Fprintf(stdout, "%s %s %s\n", ev.Kind, ev.ID, ev.Summary)
			return err
		}, mon)
	default:
		panic(fmt.Errorf("webodb: invalid format %s", cli.Format))
	}
}

func parseWant(cli baseCLI) (api.WantQuery, error) {
	id, err := object.ParseID(cli.WantCLI.ObjectID)
	if err != nil {
		return api.WantQuery{}, err
	}
	w := cli.WantCLI
	switch {
	case w.Tree && w.Blob:
		return api.WantQuery{}, Errorf(webodb.ErrUsage, "--tree and --blob are exclusive")
	case (w.Tree || w.Blob) && w.Ancestry > 0:
		return api.WantQuery{}, Errorf(webodb.ErrUsage, "--ancestry only applies to commits")
	case w.Tree:
		return api.FromID(id).AsTreePeel(), nil
	case w.Blob:
		return api.FromID(id).AsBlobPeel(), nil
	default:
		return api.FromID(id).WithAncestry(w.Ancestry), nil
	}
}

func applyDeadline(ctx context.Context, cli baseCLI) (context.Context, context.CancelFunc, error) {
	switch {
	case cli.Deadline != "" && cli.Timeout != 0:
		return nil, nil, Errorf(webodb.ErrUsage, "--deadline and --timeout are exclusive")
	case cli.Deadline != "":
		deadline, err := time.Parse(time.RFC3339, cli.Deadline)
		if err != nil {
			return nil, nil, Errorf(webodb.ErrUsage, "invalid deadline: %s", err)
		}
		ctx, cancel := context.WithDeadline(ctx, deadline)
		return ctx, cancel, nil
	case cli.Timeout != 0:
		ctx, cancel := context.WithTimeout(ctx, cli.Timeout)
		return ctx, cancel, nil
	default:
		ctx, cancel := context.WithCancel(ctx)
		return ctx, cancel, nil
	}
}

/*
	If progress is enabled, returns a monitor whose events are printed to stderr
	in the output format, and a func that closes the channel and waits for the
	printer to finish.  Otherwise returns a disabled monitor and a no-op.
*/
func startProgress(cli baseCLI, stderr io.Writer) (api.Monitor, func()) {
	if !cli.ProgressEnable {
		return api.Monitor{}, func() {}
	}
	events := make(chan api.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		marshaller := refmt.NewMarshallerAtlased(json.EncodeOptions{}, stderr, api.Atlas)
		for ev := range events {
			switch {
			case cli.Format == FmtJson:
				if err := marshaller.Marshal(&ev); err != nil {
					panic(err)
				}
				fmt.Fprintln(stderr)
			case ev.Log != nil:
				fmt.Fprintf(stderr, "%s: %s\n", ev.Log.Level, ev.Log.Msg)
			case ev.Push != nil:
				fmt.Fprintf(stderr, "pushed %s %s\n", ev.Push.Kind, ev.Push.ID)
			}
		}
	}()
	return api.Monitor{Chan: events}, func() {
		close(events)
		<-done
	}
}
