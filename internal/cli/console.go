// Package cli implements the interactive console for `coldline run`: a
// fully local call simulation where the operator plays the external
// classifier, firing transitions by name against an in-memory
// telephony bridge and speech pipeline.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/coldline"
	"github.com/aretw0/coldline/internal/script"
	"github.com/aretw0/coldline/pkg/adapters/memory"
	"github.com/aretw0/coldline/pkg/domain"
)

const simulatedTarget = "+15550100000"

// Console drives a simulated call session from a terminal.
type Console struct {
	out     io.Writer
	in      *bufio.Scanner
	logger  *slog.Logger
	profile termenv.Profile
}

// NewConsole creates a console bound to the given streams.
func NewConsole(in io.Reader, out io.Writer, logger *slog.Logger) *Console {
	return &Console{
		out:     out,
		in:      bufio.NewScanner(in),
		logger:  logger,
		profile: termenv.ColorProfile(),
	}
}

// Run simulates a full call for the given persona script. It returns
// when the session reaches a terminal state or the input ends.
func (c *Console) Run(ctx context.Context, s *script.Script) error {
	engine, err := coldline.New(s, coldline.WithLogger(c.logger))
	if err != nil {
		return err
	}

	bridge := memory.NewBridge()
	pipeline := memory.NewPipeline()
	pipeline.OnUtterance = func(u memory.Utterance) {
		label := "agent"
		if u.Kind == memory.UtteranceGenerate {
			label = "agent*" // model-generated, shown as instructions
		}
		fmt.Fprintf(c.out, "%s %s\n", c.styled(label+":", "6"), u.Text)
	}

	metadata := fmt.Sprintf(`{"phone_number": %q}`, simulatedTarget)
	call, err := engine.StartCall(ctx, "console-session", metadata, bridge, pipeline)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s persona=%s target=%s\n\n",
		c.styled("call connected.", "2"), s.Persona, simulatedTarget)

	for !call.Ended() {
		c.printMenu(call)
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			call.Terminate(ctx)
			break
		}
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "q" {
			call.Terminate(ctx)
			break
		}

		name, params := parseCommand(line)
		if err := call.ApplyTransition(ctx, domain.TransitionName(name), params); err != nil {
			fmt.Fprintf(c.out, "%s %v\n", c.styled("rejected:", "1"), err)
		}
	}

	c.printSummary(call.Snapshot())
	return c.in.Err()
}

func (c *Console) printMenu(call *coldline.Call) {
	fmt.Fprintf(c.out, "\n%s %s\n", c.styled("phase:", "4"), call.Phase())
	for _, t := range call.Transitions() {
		var params []string
		for _, p := range t.Params {
			if p.Required {
				params = append(params, p.Name)
			} else {
				params = append(params, p.Name+"?")
			}
		}
		suffix := ""
		if len(params) > 0 {
			suffix = " (" + strings.Join(params, ", ") + ")"
		}
		fmt.Fprintf(c.out, "  %s%s\n", t.Name, suffix)
	}
}

func (c *Console) printSummary(rec *domain.CallRecord) {
	fmt.Fprintf(c.out, "\n%s outcome=%s interested=%v objections=%d\n",
		c.styled("call ended.", "2"), rec.Outcome, rec.State.Interested, len(rec.State.Objections))
	for k, v := range rec.State.Qualification {
		fmt.Fprintf(c.out, "  %s: %s\n", k, v)
	}
}

func (c *Console) styled(s, color string) string {
	return termenv.String(s).Foreground(c.profile.Color(color)).Bold().String()
}

// parseCommand splits "name key=value key=value". Values may contain
// spaces when quoted with double quotes.
func parseCommand(line string) (string, map[string]any) {
	fields := tokenize(line)
	if len(fields) == 0 {
		return "", nil
	}
	name := fields[0]
	params := make(map[string]any, len(fields)-1)
	for _, f := range fields[1:] {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		params[k] = strings.Trim(v, `"`)
	}
	return name, params
}

// tokenize splits on spaces, honoring double-quoted values.
func tokenize(line string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			current.WriteRune(r)
		case r == ' ' && !quoted:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
