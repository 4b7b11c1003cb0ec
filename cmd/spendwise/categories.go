package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"spendwise/internal/core"
)

// ownedCategory loads a category of the signed-in user. Other users'
// categories are reported as not found.
func ownedCategory(e *env, userID, id int64) (core.Category, error) {
	c, err := call(e, func(ctx context.Context) (core.Category, error) {
		return e.app.Repos.Categories.Get(ctx, id)
	})
	if err != nil {
		return core.Category{}, err
	}
	if c.UserID != userID {
		return core.Category{}, fmt.Errorf("%w: category %d", core.ErrNotFound, id)
	}
	return c, nil
}

func cmdCategoryAdd(e *env, args []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("usage: category add <name>")
	}
	name := strings.Join(args, " ")

	id, err := call(e, func(ctx context.Context) (int64, error) {
		return e.app.Repos.Categories.Add(ctx, core.Category{Name: name, UserID: s.UserID})
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Category %q created with ID %d\n", strings.TrimSpace(name), id)
	return nil
}

func cmdCategoryList(e *env, _ []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	cats, err := call(e, func(ctx context.Context) ([]core.Category, error) {
		return e.app.Repos.Categories.List(ctx, s.UserID)
	})
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		fmt.Fprintln(e.stdout, "No categories")
		return nil
	}

	w := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, c := range cats {
		fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Name)
	}
	return w.Flush()
}

func cmdCategoryRename(e *env, args []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errors.New("usage: category rename <id> <name>")
	}
	id, err := parseID("category id", args[0])
	if err != nil {
		return err
	}
	c, err := ownedCategory(e, s.UserID, id)
	if err != nil {
		return err
	}
	c.Name = strings.Join(args[1:], " ")

	_, err = call(e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.app.Repos.Categories.Update(ctx, c)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Category %d renamed to %q\n", id, strings.TrimSpace(c.Name))
	return nil
}

func cmdCategoryRemove(e *env, args []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: category rm <id>")
	}
	id, err := parseID("category id", args[0])
	if err != nil {
		return err
	}
	if _, err := ownedCategory(e, s.UserID, id); err != nil {
		return err
	}

	_, err = call(e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.app.Repos.Categories.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Category %d and its expenses deleted\n", id)
	return nil
}
