package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cryfox/vaultcore/internal/common"
	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// ErrPasswordMismatch is returned when a confirmation differs from the first
// entry.
var ErrPasswordMismatch = errors.New("passwords do not match")

// GetSimpleText prints a prompt to w and reads a single line of input from
// reader. The line is trimmed. If EOF occurs after some input was read, the
// partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints a prompt to w and reads a password from the terminal
// without echo. The caller wipes the returned slice.
func GetPassword(prompt string, w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func Confirm(reader *bufio.Reader, prompt string, w io.Writer) (bool, error) {
	answer, err := GetSimpleText(reader, prompt+" [y/N]", w)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// readSecret reads a password without echo on a terminal and as a plain
// line otherwise. Only the line terminator is stripped.
func (a *App) readSecret(prompt string) ([]byte, error) {
	if isTerminal(int(os.Stdin.Fd())) {
		return GetPassword(prompt, a.out)
	}

	if _, err := fmt.Fprint(a.out, prompt+": "); err != nil {
		return nil, err
	}
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

// readNewSecret reads a password twice and fails when the entries differ.
func (a *App) readNewSecret(prompt string) ([]byte, error) {
	first, err := a.readSecret(prompt)
	if err != nil {
		return nil, err
	}
	second, err := a.readSecret("Repeat " + strings.ToLower(prompt))
	if err != nil {
		common.WipeByteArray(first)
		return nil, err
	}
	defer common.WipeByteArray(second)

	if string(first) != string(second) {
		common.WipeByteArray(first)
		return nil, ErrPasswordMismatch
	}
	return first, nil
}
