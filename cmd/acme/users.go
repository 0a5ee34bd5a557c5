package main

import (
	"fmt"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/service"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage back office users",
}

var newUser service.UserRequest

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a back office user, e.g. the first admin",
	RunE:  runUsersCreate,
}

func init() {
	f := usersCreateCmd.Flags()
	f.StringVar(&newUser.Email, "email", "", "sign-in email")
	f.StringVar(&newUser.Name, "name", "", "display name")
	f.StringVar(&newUser.Role, "role", "admin", "admin or staff")
	f.StringVar(&newUser.Password, "password", "", "password, at least 10 characters")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("name")
	_ = usersCreateCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersCreateCmd)
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	if err := validation.Struct(newUser); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logrus.NewEntry(logrus.StandardLogger())

	c, err := connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	st, err := newStore(cfg, c, log)
	if err != nil {
		return err
	}

	svc := service.New(&service.Config{Store: st, Redis: c.redis, Logger: log})
	u, err := svc.CreateUser(cmd.Context(), newUser)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s user %d <%s>\n", u.Role, u.UserID, u.Email)
	return nil
}
