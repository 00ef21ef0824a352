// Package cli runs an interactive conversion loop for debugging and trying
// out dictionaries.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/henkan/internal/logger"
	"github.com/bastiangx/henkan/pkg/converter"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	indexStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#797593", Dark: "#908caa"})
	textStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	costStyle  = lipgloss.NewStyle().Faint(true)
	posStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.AdaptiveColor{Light: "#907aa9", Dark: "#c4a7e7"})
)

// InputHandler reads one input per line and prints its candidates. Lines
// starting with ':' are commands:
//
//	:n 5     set the number of candidates
//	:r       toggle romaji input
//	:t       toggle token breakdown
//	:q       quit
type InputHandler struct {
	conv       *converter.Converter
	n          int
	romaji     bool
	showTokens bool
	in         io.Reader
	out        io.Writer
	log        *log.Logger
}

// NewInputHandler creates a handler over stdin/stdout.
func NewInputHandler(conv *converter.Converter, n int, romaji bool) *InputHandler {
	return NewInputHandlerWithIO(conv, n, romaji, os.Stdin, os.Stdout)
}

// NewInputHandlerWithIO creates a handler over arbitrary streams.
func NewInputHandlerWithIO(conv *converter.Converter, n int, romaji bool, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		conv:   conv,
		n:      converter.ClampN(n),
		romaji: romaji,
		in:     in,
		out:    out,
		log:    logger.New("cli"),
	}
}

// Start loops until the input ends or :q is read.
func (h *InputHandler) Start(ctx context.Context) error {
	fmt.Fprintln(h.out, "henkan CLI. Type kana or romaji and press Enter (:q to exit)")
	scanner := bufio.NewScanner(h.in)
	for {
		fmt.Fprint(h.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(h.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := h.command(line); quit {
				return nil
			}
			continue
		}
		h.handleInput(ctx, line)
	}
}

// command applies a ':' command and reports whether to quit.
func (h *InputHandler) command(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":q":
		return true
	case ":r":
		h.romaji = !h.romaji
		fmt.Fprintf(h.out, "romaji input: %v\n", h.romaji)
	case ":t":
		h.showTokens = !h.showTokens
		fmt.Fprintf(h.out, "tokens: %v\n", h.showTokens)
	case ":n":
		if len(fields) < 2 {
			fmt.Fprintf(h.out, "candidates: %d\n", h.n)
			break
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			h.log.Errorf("Invalid number: %s", fields[1])
			break
		}
		h.n = converter.ClampN(n)
		fmt.Fprintf(h.out, "candidates: %d\n", h.n)
	default:
		h.log.Errorf("Unknown command: %s", fields[0])
	}
	return false
}

func (h *InputHandler) handleInput(ctx context.Context, input string) {
	start := time.Now()
	var result *converter.Result
	var err error
	if h.romaji {
		result, err = h.conv.ConvertRomaji(ctx, input, h.n)
	} else {
		result, err = h.conv.Convert(ctx, input, h.n)
	}
	if err != nil {
		h.log.Errorf("Conversion failed for %q: %v", input, err)
		return
	}
	h.log.Debugf("Took [ %v ] for %q", time.Since(start), input)

	if result.Kana != input {
		fmt.Fprintf(h.out, "%s\n", costStyle.Render(result.Kana))
	}
	for i, c := range result.Candidates {
		fmt.Fprintf(h.out, "%s %s %s\n",
			indexStyle.Render(fmt.Sprintf("%2d.", i+1)),
			textStyle.Render(c.Text),
			costStyle.Render(fmt.Sprintf("(%d)", c.Cost)))
		if !h.showTokens {
			continue
		}
		for _, tok := range c.Tokens {
			fmt.Fprintf(h.out, "      %s/%s %s\n", tok.Surface, tok.Reading, posStyle.Render(tok.POSLabel))
		}
	}
}
