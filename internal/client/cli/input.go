package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// promptLine prints "label: " and reads one line, trimmed.
func promptLine(scanner *bufio.Scanner, w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// promptDefault is promptLine with a default used when the input is empty.
func promptDefault(scanner *bufio.Scanner, w io.Writer, label, def string) (string, error) {
	display := label
	if def != "" {
		display = fmt.Sprintf("%s [%s]", label, def)
	}
	text, err := promptLine(scanner, w, display)
	if err != nil {
		return "", err
	}
	if text == "" {
		return def, nil
	}
	return text, nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, "Password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// promptMinutes asks until it gets a duration on the 5..240 grid.
func promptMinutes(scanner *bufio.Scanner, w io.Writer) (int, error) {
	for {
		text, err := promptLine(scanner, w, "Minutes (5-240, steps of 5)")
		if err != nil {
			return 0, err
		}
		minutes, err := strconv.Atoi(text)
		if err != nil || !validMinutes(minutes) {
			fmt.Fprintln(w, "enter a multiple of 5 between 5 and 240")
			continue
		}
		return minutes, nil
	}
}

// validMinutes reports whether m sits on the entry form's duration grid.
func validMinutes(m int) bool {
	return m >= 5 && m <= 240 && m%5 == 0
}
