package commands

import (
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tauraamui/framerelay/pkg/bus"
	"github.com/tauraamui/framerelay/pkg/config"
	"github.com/tauraamui/framerelay/pkg/log"
	"github.com/tauraamui/xerror"
	"golang.org/x/term"
)

var tokenSubject string

var passwordPromptReader = func(w io.Writer, prompt string) (string, error) {
	fmt.Fprintf(w, "Enter %s: ", prompt)
	valueBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(w, "")
	return string(valueBytes), nil
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for connecting to a secured bus",
		Long: `Sign a bearer token with the configured bus secret.

If no secret is configured the secret is read from the terminal.`,
		Args: cobra.NoArgs,
		RunE: runToken,
	}

	cmd.Flags().StringVarP(&tokenSubject, "subject", "s", "video_subscriber", "subject the token is issued to")
	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	secret, err := resolveSecret(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	token, err := bus.GenToken(secret, tokenSubject)
	if err != nil {
		return xerror.Errorf("unable to sign token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func resolveSecret(prompt io.Writer) (string, error) {
	values, err := config.DefaultResolver().Resolve()
	if err != nil {
		log.Warn("Unable to resolve config: %v", err)
	}
	if err == nil && len(values.Bus.Secret) > 0 {
		return values.Bus.Secret, nil
	}

	secret, err := passwordPromptReader(prompt, "bus secret")
	if err != nil {
		return "", xerror.Errorf("unable to read bus secret: %w", err)
	}
	secret = strings.TrimSpace(secret)
	if len(secret) == 0 {
		return "", xerror.New("bus secret must not be empty")
	}
	return secret, nil
}
