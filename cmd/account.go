package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/awwal/internal/ui/theme"
)

var errNoPassword = errors.New("password required: pass --password or set AWWAL_PASSWORD")

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and merge your account's progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFrom(cmd)
		if err != nil {
			return err
		}

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.auth.Login(cmd.Context(), args[0], password); err != nil {
			return errors.New(e.auth.Err())
		}
		e.svc.Wait()

		greet(e.auth.User().Email, e.auth.User().Name)
		printSynced(e.svc.Stats().TotalLessonsCompleted, e.svc.Stats().StreakDays)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFrom(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.auth.Register(cmd.Context(), args[0], password, name); err != nil {
			return errors.New(e.auth.Err())
		}
		e.svc.Wait()

		greet(e.auth.User().Email, e.auth.User().Name)
		printSynced(e.svc.Stats().TotalLessonsCompleted, e.svc.Stats().StreakDays)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear progress stored on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.auth.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
		fmt.Println("Signed out. Local progress cleared.")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().String("password", "", "Account password (or set AWWAL_PASSWORD)")
	}
	registerCmd.Flags().String("name", "", "Display name (optional)")
}

func passwordFrom(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}
	if p := os.Getenv("AWWAL_PASSWORD"); p != "" {
		return p, nil
	}
	return "", errNoPassword
}

func greet(email string, name *string) {
	who := email
	if name != nil && *name != "" {
		who = *name
	}
	fmt.Printf("%s Signed in as %s\n", theme.Ok.Render("✓"), theme.Value.Render(who))
}

func printSynced(total, streak int) {
	fmt.Printf("%s %d\n", theme.Label.Render("Lessons completed"), total)
	fmt.Printf("%s %s\n", theme.Label.Render("Streak"), theme.Streak.Render(dayCount(streak)))
}
