package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"instaclone/backend/internal/auth"
	"instaclone/backend/internal/social"
	apperrors "instaclone/backend/pkg/errors"
	"instaclone/backend/pkg/logger"
)

const seedPassword = "password"

var (
	seedUsers        int
	seedPostsPerUser int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo users, follow edges and posts",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 5, "Number of demo users")
	seedCmd.Flags().IntVar(&seedPostsPerUser, "posts", 2, "Posts per demo user")
	rootCmd.AddCommand(seedCmd)
}

type seedUser struct {
	Username string
	Email    string
	Fullname string
}

// seedPlan names n demo users deterministically so reruns hit the same accounts
func seedPlan(n int) []seedUser {
	users := make([]seedUser, 0, n)
	for i := 1; i <= n; i++ {
		username := fmt.Sprintf("demo%02d", i)
		users = append(users, seedUser{
			Username: username,
			Email:    username + "@example.com",
			Fullname: fmt.Sprintf("Demo User %d", i),
		})
	}
	return users
}

// followPairs links each user to the next two, wrapping around
func followPairs(n int) [][2]int {
	var pairs [][2]int
	for i := 0; i < n; i++ {
		for step := 1; step <= 2 && step < n; step++ {
			pairs = append(pairs, [2]int{i, (i + step) % n})
		}
	}
	return pairs
}

// placeholderImage returns a stable stock image URL for a seeded post
func placeholderImage(username string, n int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d/800/800", username, n)
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedUsers < 1 {
		return fmt.Errorf("--users must be at least 1")
	}

	ctx := cmd.Context()
	log := logger.Get()

	b, err := connect(ctx, false)
	if err != nil {
		return err
	}
	defer b.release()

	svc := social.NewService(b.graph, b.graph, nil, auth.NewBcryptHasher())

	plan := seedPlan(seedUsers)
	ids := make([]string, 0, len(plan))
	for _, su := range plan {
		id, created, err := ensureUser(ctx, svc, b, su)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		if created {
			color.Green("✓ created %s", su.Username)
		} else {
			color.Yellow("• %s exists", su.Username)
		}
	}

	follows := 0
	for _, pair := range followPairs(len(ids)) {
		if err := b.graph.Follow(ctx, ids[pair[0]], ids[pair[1]]); err != nil {
			return fmt.Errorf("follow failed: %w", err)
		}
		follows++
	}

	posts := 0
	for i, id := range ids {
		username := plan[i].Username
		for n := 0; n < seedPostsPerUser; n++ {
			post, err := b.graph.CreatePost(ctx, id, fmt.Sprintf("Post %d by %s", n+1, username), placeholderImage(username, n))
			if err != nil {
				return fmt.Errorf("create post failed: %w", err)
			}
			if err := b.graph.AddPostRef(ctx, id, post.ID); err != nil {
				return fmt.Errorf("link post failed: %w", err)
			}
			posts++
		}
	}

	log.Info("Seeding complete",
		zap.Int("users", len(ids)),
		zap.Int("follows", follows),
		zap.Int("posts", posts),
	)
	color.Cyan("Seeded %d users, %d follow edges, %d posts (password %q)", len(ids), follows, posts, seedPassword)
	return nil
}

// ensureUser registers su unless an account with its email already exists
func ensureUser(ctx context.Context, svc *social.Service, b *backends, su seedUser) (string, bool, error) {
	existing, err := b.graph.FindByEmail(ctx, su.Email)
	if err == nil {
		return existing.ID, false, nil
	}
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound) {
		return "", false, err
	}

	user, err := svc.Register(ctx, social.RegisterInput{
		Username: su.Username,
		Email:    su.Email,
		Password: seedPassword,
		Fullname: su.Fullname,
	})
	if err != nil {
		return "", false, fmt.Errorf("register %s: %w", su.Username, err)
	}
	return user.ID, true, nil
}
