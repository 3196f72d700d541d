package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmentor/internal/config"
	"github.com/abhisek/quizmentor/internal/httpapi"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue a bearer token for the JSON API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || userID <= 0 {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		if err := cfg.ValidateHTTP(); err != nil {
			return err
		}

		ttl, _ := cmd.Flags().GetDuration("ttl")
		tok, err := httpapi.NewAuthenticator(cfg.HTTP.JWTSecret).Issue(userID, ttl)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}
