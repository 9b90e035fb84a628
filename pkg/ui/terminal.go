package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ASCII logo for the application
const ASCIILogo = `
    ██╗ ██████╗  ██████╗ █████╗ ███╗   ██╗ ██████╗███████╗██╗
    ██║██╔════╝ ██╔════╝██╔══██╗████╗  ██║██╔════╝██╔════╝██║
    ██║██║  ███╗██║     ███████║██╔██╗ ██║██║     █████╗  ██║
    ██║██║   ██║██║     ██╔══██║██║╚██╗██║██║     ██╔══╝  ██║
    ██║╚██████╔╝╚██████╗██║  ██║██║ ╚████║╚██████╗███████╗███████╗
    ╚═╝ ╚═════╝  ╚═════╝╚═╝  ╚═╝╚═╝  ╚═══╝ ╚═════╝╚══════╝╚══════╝
             pending follow request canceller
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	fmt.Print(Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Red(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Println(Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Yellow(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Println(Magenta(msg))
}

// ErrNotInteractive is returned when a confirmation is needed but stdin is
// not a terminal
var ErrNotInteractive = errors.New("confirmation required but stdin is not a terminal (use --yes)")

// IsInteractive reports whether stdin is attached to a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Confirm asks a yes/no question on out and reads the answer from in.
// Only "y" and "yes" count as consent; end of input means no.
func Confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s %s ", Yellow(question), Dim("(y/n)"))

	reader := bufio.NewReader(in)
	answer, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ConfirmStdin asks on the terminal, refusing when stdin is not interactive
func ConfirmStdin(question string) (bool, error) {
	if !IsInteractive() {
		return false, ErrNotInteractive
	}
	return Confirm(os.Stdin, os.Stdout, question)
}
