package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/config"
	"github.com/weiawesome/wes-support-chat/pkg/jwt"
)

const issueTokenCommand = "issue-token"

// issueToken mints a bearer token for the operator endpoints, signed with the
// configured admin secret, and writes it to out.
func issueToken(cfg config.AdminConfig, args []string, out io.Writer) error {
	flagSet := pflag.NewFlagSet(issueTokenCommand, pflag.ContinueOnError)
	flagSet.SetOutput(out)
	subject := flagSet.StringP("subject", "s", "", "operator id, recorded on resolved cases")
	roles := flagSet.StringSlice("role", []string{jwt.RoleOperator}, "roles granted by the token")
	ttl := flagSet.Duration("ttl", cfg.TokenTTL, "token lifetime")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return errors.New("--subject is required")
	}

	manager, err := jwt.NewManager(cfg.JWTSecret, cfg.Issuer, *ttl)
	if err != nil {
		return fmt.Errorf("admin.jwt_secret must be set: %w", err)
	}
	token, expiresAt, err := manager.GenerateToken(*subject, *roles)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	_, err = fmt.Fprintf(out, "%s\n# expires %s\n", token, expiresAt.UTC().Format("2006-01-02T15:04:05Z"))
	return err
}
