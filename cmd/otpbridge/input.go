package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dmitrymomot/otpbridge/pkg/totp"
)

// readPassword is swapped in tests to avoid touching the terminal.
var readPassword = term.ReadPassword

// readKey reads a TOTP key from the terminal without echo, or as the first
// line of a redirected stdin, and checks that it parses.
func readKey(cmd *cobra.Command) (string, error) {
	raw, err := readSecretLine(cmd)
	if err != nil {
		return "", err
	}
	if _, ok := totp.ParseKey(raw); !ok {
		return "", totp.ErrInvalidKeyFormat
	}
	return raw, nil
}

func readSecretLine(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "TOTP key: ")
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
