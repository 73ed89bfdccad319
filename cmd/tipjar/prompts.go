package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/sigweihq/tipjar/pkg/chains"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// errNoInput is returned when stdin closes during a prompt
var errNoInput = errors.New("no input")

// prompter reads answers from in and writes questions to out
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// line prints question and returns the trimmed answer
func (p *prompter) line(question string) (string, error) {
	fmt.Fprint(p.out, question)
	answer, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading input: %w", err)
		}
		if answer == "" {
			return "", errNoInput
		}
	}
	return strings.TrimSpace(answer), nil
}

// yesNo asks a [y/N] question
func (p *prompter) yesNo(question string) (bool, error) {
	answer, err := p.line(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// secret reads a value without echo when stdin is a terminal
func (p *prompter) secret(question string) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // fd fits in int
	if !term.IsTerminal(fd) {
		return p.line(question)
	}

	fmt.Fprint(p.out, question)
	value, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(string(value)), nil
}

// approve stands in for the wallet's confirmation popup
func (p *prompter) approve(_ context.Context, req chains.ApprovalRequest) (bool, error) {
	fmt.Fprintf(p.out, "\nWallet request from %s\n", short(req.From))
	return p.yesNo(fmt.Sprintf("  Sign and send %s %s to %s?", req.Amount, req.Symbol, short(req.To)))
}

// loadKey returns the private key from envVar, prompting when it is unset
func loadKey(p *prompter, envVar, question string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v, nil
	}
	key, err := p.secret(question)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("a private key is required (set %s)", envVar)
	}
	return key, nil
}

// short abbreviates an address for prompts
func short(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// describeError prefers the payer-facing message of wallet errors
func describeError(err error) string {
	if err == nil {
		return "unknown error"
	}
	var walletErr *chains.WalletError
	if errors.As(err, &walletErr) {
		return walletErr.UserMessage()
	}
	if errors.Is(err, utils.ErrInvalidAmount) {
		return "enter an amount greater than zero"
	}
	return err.Error()
}
