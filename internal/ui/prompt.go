package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	hintStyle  = lipgloss.NewStyle().Faint(true)
	retryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
)

// Prompt asks yes/no questions on a line-based terminal
type Prompt struct {
	r *bufio.Reader
	w io.Writer
}

// NewPrompt reads answers from r and writes questions to w
func NewPrompt(r io.Reader, w io.Writer) *Prompt {
	return &Prompt{
		r: bufio.NewReader(r),
		w: w,
	}
}

// Confirm asks until the answer is one of y, yes, n or no. Running out of
// input counts as no.
func (p *Prompt) Confirm(question string) (bool, error) {
	for {
		fmt.Fprintf(p.w, "%s %s: ", question, hintStyle.Render("([y]es/[n]o)"))

		line, err := p.r.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}

		if err != nil {
			fmt.Fprintln(p.w)
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, err
		}

		fmt.Fprintln(p.w, retryStyle.Render("Please, choose [y]es or [n]o"))
	}
}
