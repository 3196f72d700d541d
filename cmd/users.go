package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		users, err := st.Users().List(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No registered users.")
			return nil
		}
		fmt.Printf("%-12s  %-8s  %-19s  %s\n", "ID", "Role", "Registered", "Name")
		fmt.Println(strings.Repeat("─", 70))
		for _, u := range users {
			fmt.Printf("%-12d  %-8s  %-19s  %s\n",
				u.ID, u.Role, u.CreatedAt.Local().Format("2006-01-02 15:04:05"), u.FullName)
		}
		return nil
	},
}
