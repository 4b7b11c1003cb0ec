package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"spendwise/internal/core"
	"spendwise/internal/services"
	"spendwise/internal/session"
)

func cmdRegister(e *env, args []string) error {
	fs := e.flags("register")
	username := fs.String("user", "", "Username")
	password := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	form := services.RegisterForm{Username: *username, Password: *password, Confirm: *password}
	var err error
	if form.Username == "" {
		if form.Username, err = e.prompt("Username: "); err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
	}
	if form.Password == "" {
		if form.Password, err = e.readPassword("Password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if form.Confirm, err = e.readPassword("Confirm password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	user, err := call(e, func(ctx context.Context) (core.User, error) {
		return e.app.Auth.Register(ctx, form)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}

func cmdLogin(e *env, args []string) error {
	fs := e.flags("login")
	username := fs.String("user", "", "Username")
	password := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	form := services.LoginForm{Username: *username, Password: *password}
	var err error
	if form.Username == "" {
		if form.Username, err = e.prompt("Username: "); err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
	}
	if form.Password == "" {
		if form.Password, err = e.readPassword("Password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	user, err := call(e, func(ctx context.Context) (core.User, error) {
		return e.app.Auth.Login(ctx, form)
	})
	if err != nil {
		return err
	}

	err = e.app.Sessions.Save(session.Session{
		UserID:   user.ID,
		Username: user.Username,
		LoggedIn: true,
		IssuedAt: e.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	fmt.Fprintf(e.stdout, "Logged in as %s\n", user.Username)
	return nil
}

func cmdLogout(e *env, _ []string) error {
	if err := e.app.Sessions.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, "Logged out")
	return nil
}

func cmdWhoami(e *env, _ []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "%s (id %d), signed in %s\n", s.Username, s.UserID, s.IssuedAt.Format("2006-01-02 15:04"))
	return nil
}

func cmdAdminDeleteUser(e *env, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: admin deluser <user-id> -yes")
	}
	id, err := parseID("user id", args[0])
	if err != nil {
		return err
	}
	fs := e.flags("admin deluser")
	yes := fs.Bool("yes", false, "Confirm deletion of the user and all their data")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to delete user " + strconv.FormatInt(id, 10) + " without -yes")
	}

	_, err = call(e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.app.Repos.Users.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "User %d and all their data deleted\n", id)
	return nil
}
