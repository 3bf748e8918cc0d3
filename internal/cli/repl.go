package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"taste-haven-assistant/internal/assistant"
)

const replHelp = `commands:
  /clear               clear the chat history
  /reset               start a new session id
  /cancel <kind>       cancel the order or reservation collection
  /state               show both collections
  /help                show this help
  /quit                leave`

// REPL drives one in-process container from line-oriented input.
type REPL struct {
	in         io.Reader
	out        io.Writer
	dispatcher *assistant.Dispatcher
	state      *assistant.State
	notices    *assistant.NoticeQueue
	// prompt is printed before each read when input is a terminal.
	prompt bool
}

func NewREPL(d *assistant.Dispatcher, in io.Reader, out io.Writer, prompt bool, opts ...assistant.StateOption) *REPL {
	q := &assistant.NoticeQueue{}
	opts = append(opts, assistant.WithNotifier(q))
	return &REPL{
		in:         in,
		out:        out,
		dispatcher: d,
		state:      d.NewState(opts...),
		notices:    q,
		prompt:     prompt,
	}
}

func (r *REPL) State() *assistant.State { return r.state }

// Run reads until EOF, /quit or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	for _, m := range r.state.Messages() {
		r.printMessage(m)
	}
	sc := bufio.NewScanner(r.in)
	for {
		if r.prompt {
			fmt.Fprint(r.out, "you> ")
		}
		if !sc.Scan() {
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "/") {
			quit, err := r.command(strings.Fields(line))
			r.flushNotices()
			if err != nil {
				fmt.Fprintln(r.out, "error:", err)
			}
			if quit {
				return nil
			}
			continue
		}
		r.turn(ctx, line)
	}
}

func (r *REPL) turn(ctx context.Context, line string) {
	out, err := r.dispatcher.Dispatch(ctx, r.state, line)
	defer r.flushNotices()
	if errors.Is(err, assistant.ErrEmptyUtterance) {
		return
	}
	if err != nil {
		fmt.Fprintln(r.out, "error:", err)
		return
	}
	if out.Dropped {
		fmt.Fprintln(r.out, "(the restaurant did not answer, please send that again)")
		return
	}
	if out.Reply != nil {
		r.printMessage(*out.Reply)
	}
	if out.Completed != nil {
		fmt.Fprintf(r.out, "(%s collection complete)\n", strings.TrimSuffix(string(out.Route), "_turn"))
	}
}

func (r *REPL) command(fields []string) (quit bool, err error) {
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(r.out, replHelp)
	case "/clear":
		r.printMessage(r.state.ClearChat())
	case "/reset":
		fmt.Fprintln(r.out, "session:", r.state.ResetSession())
	case "/cancel":
		if len(fields) < 2 {
			return false, errors.New("usage: /cancel order|reservation")
		}
		kind, err := assistant.ParseKind(fields[1])
		if err != nil {
			return false, err
		}
		ok, err := r.state.CancelCollection(kind)
		if err != nil {
			return false, err
		}
		if ok {
			fmt.Fprintf(r.out, "%s collection cancelled\n", kind)
		} else {
			fmt.Fprintf(r.out, "no %s collection in progress\n", kind)
		}
	case "/state":
		snap := r.state.Snapshot()
		b, err := json.MarshalIndent(map[string]any{
			"session_id":  snap.SessionID,
			"order":       snap.Order,
			"reservation": snap.Reservation,
		}, "", "  ")
		if err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, string(b))
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", fields[0])
	}
	return false, nil
}

func (r *REPL) printMessage(m assistant.Message) {
	who := "assistant"
	if m.IsUser {
		who = "you"
	}
	fmt.Fprintf(r.out, "%s> %s\n", who, m.Content)
}

func (r *REPL) flushNotices() {
	for _, n := range r.notices.Drain() {
		fmt.Fprintf(r.out, "* %s\n", n)
	}
}
