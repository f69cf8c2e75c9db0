// Package console reads operator input line by line and honors the exit sentinel.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrExitRequested is returned when the operator types the exit sentinel or
// input ends. It unwinds the current interactive flow.
var ErrExitRequested = errors.New("exit requested")

type Prompter struct {
	in   *bufio.Reader
	out  io.Writer
	exit string
}

func NewPrompter(in io.Reader, out io.Writer, exitSentinel string) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, exit: strings.TrimSpace(exitSentinel)}
}

func (p *Prompter) Out() io.Writer {
	return p.out
}

func (p *Prompter) ExitSentinel() string {
	return p.exit
}

func (p *Prompter) Println(a ...interface{}) {
	fmt.Fprintln(p.out, a...)
}

func (p *Prompter) Printf(format string, a ...interface{}) {
	fmt.Fprintf(p.out, format, a...)
}

// Ask prints prompt and returns the trimmed line.
func (p *Prompter) Ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			fmt.Fprintln(p.out)
			return "", ErrExitRequested
		}
		return "", err
	}
	line = strings.TrimSpace(line)
	if p.exit != "" && strings.EqualFold(line, p.exit) {
		return "", ErrExitRequested
	}
	return line, nil
}

// AskValid repeats prompt until accept returns nil, printing each rejection.
func (p *Prompter) AskValid(prompt string, accept func(string) error) (string, error) {
	for {
		line, err := p.Ask(prompt)
		if err != nil {
			return "", err
		}
		if err := accept(line); err != nil {
			fmt.Fprintf(p.out, "  Invalid input: %v\n", err)
			continue
		}
		return line, nil
	}
}

// AskInt reads an integer in [min, max].
func (p *Prompter) AskInt(prompt string, min, max int) (int, error) {
	var n int
	_, err := p.AskValid(prompt, func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("enter a whole number")
		}
		if v < min || v > max {
			return fmt.Errorf("enter a number between %d and %d", min, max)
		}
		n = v
		return nil
	})
	return n, err
}

// AskFloat reads a number and passes it to accept, which may reject it.
func (p *Prompter) AskFloat(prompt string, accept func(float64) error) (float64, error) {
	var f float64
	_, err := p.AskValid(prompt, func(s string) error {
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return fmt.Errorf("enter a number")
		}
		if accept != nil {
			if err := accept(v); err != nil {
				return err
			}
		}
		f = v
		return nil
	})
	return f, err
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	var yes bool
	_, err := p.AskValid(prompt+" (y/n): ", func(s string) error {
		switch strings.ToLower(s) {
		case "y", "yes":
			yes = true
		case "n", "no":
			yes = false
		default:
			return fmt.Errorf("answer y or n")
		}
		return nil
	})
	return yes, err
}

// Choose prints a numbered menu and returns the zero-based index picked.
func (p *Prompter) Choose(title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no options to choose from")
	}
	fmt.Fprintln(p.out, title)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}
	n, err := p.AskInt("> ", 1, len(options))
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}
