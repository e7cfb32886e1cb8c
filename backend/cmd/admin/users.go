package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"instaclone/backend/internal/models"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List every user with follow and post counts",
	RunE:  listUsers,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show node counts in the social graph",
	RunE:  showStats,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(statsCmd)
}

func listUsers(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	b, err := connect(ctx, false)
	if err != nil {
		return err
	}
	defer b.release()

	users, err := b.graph.ListUsers(ctx, "")
	if err != nil {
		return err
	}

	if len(users) == 0 {
		color.Yellow("No users yet. Run `admin seed` to create some.")
		return nil
	}

	renderUsers(os.Stdout, users)
	return nil
}

// renderUsers writes one row per user
func renderUsers(w io.Writer, users []models.User) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Username", "Email", "Followers", "Following", "Posts", "Joined"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, u := range users {
		table.Append([]string{
			u.Username,
			u.Email,
			strconv.Itoa(len(u.Followers)),
			strconv.Itoa(len(u.Following)),
			strconv.Itoa(len(u.Posts)),
			u.CreatedAt.Format("2006-01-02"),
		})
	}

	table.Render()
}

func showStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	b, err := connect(ctx, false)
	if err != nil {
		return err
	}
	defer b.release()

	users, posts, comments, err := b.graph.Counts(ctx)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s %d\n%s %d\n%s %d\n",
		bold("Users:   "), users,
		bold("Posts:   "), posts,
		bold("Comments:"), comments,
	)
	return nil
}
