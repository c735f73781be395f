package approvalui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/AlexZinkM/wallet-guard/internal/approval"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// TerminalPrompter asks for consent and passwords on a terminal.
// Reads block until the user answers; they are not interrupted by ctx.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int

	mu sync.Mutex
}

// NewTerminalPrompter prompts on stdin/stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stderr,
		fd:  int(os.Stdin.Fd()),
	}
}

// NewPrompter prompts on arbitrary streams. Passwords are read as plain lines.
func NewPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		in:  bufio.NewReader(in),
		out: out,
		fd:  -1,
	}
}

func (p *TerminalPrompter) Confirm(ctx context.Context, req approval.ConfirmParams) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(p.out)
	bold.Fprintln(p.out, "Signature requested")
	fmt.Fprintf(p.out, "  %s %s\n", cyan.Sprint("Key:      "), req.Identity)
	fmt.Fprintf(p.out, "  %s %s\n", cyan.Sprint("Operation:"), req.Type)
	if req.Details.FunctionName != "" {
		fmt.Fprintf(p.out, "  %s %s\n", cyan.Sprint("Function: "), req.Details.FunctionName)
	}
	if req.Details.Address != "" {
		fmt.Fprintf(p.out, "  %s %s\n", cyan.Sprint("Address:  "), req.Details.Address)
	}
	if len(req.Details.Input) > 0 {
		fmt.Fprintf(p.out, "  %s %s\n", cyan.Sprint("Input:    "), string(req.Details.Input))
	}
	if req.Message != "" {
		fmt.Fprintf(p.out, "  %s %s\n", cyan.Sprint("Message:  "), req.Message)
	}
	fmt.Fprint(p.out, color.YellowString("Approve? [y/N]: "))

	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	}
	color.New(color.FgRed).Fprintln(p.out, "Declined")
	return false, nil
}

func (p *TerminalPrompter) Password(ctx context.Context, req approval.PasswordParams) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if req.Message != "" {
		color.New(color.FgRed).Fprintln(p.out, req.Message)
	}
	fmt.Fprintf(p.out, "Password for %s (empty to cancel): ", req.Identity)

	if p.fd >= 0 && term.IsTerminal(p.fd) {
		defer fmt.Fprintln(p.out)
		raw, err := term.ReadPassword(p.fd)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		defer clear(raw)
		return string(raw), nil
	}
	return p.readLine()
}

func (p *TerminalPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
