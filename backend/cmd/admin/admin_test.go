package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"instaclone/backend/internal/models"
)

func TestSeedPlan(t *testing.T) {
	plan := seedPlan(3)

	assert.Len(t, plan, 3)
	assert.Equal(t, "demo01", plan[0].Username)
	assert.Equal(t, "demo03@example.com", plan[2].Email)
	assert.Equal(t, seedPlan(3), plan)
}

func TestFollowPairs(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"single user has no edges", 1, 0},
		{"two users follow each other", 2, 2},
		{"ring of five", 5, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs := followPairs(tt.n)
			assert.Len(t, pairs, tt.want)

			seen := make(map[[2]int]bool)
			for _, p := range pairs {
				assert.NotEqual(t, p[0], p[1])
				assert.False(t, seen[p], "duplicate edge %v", p)
				seen[p] = true
			}
		})
	}
}

func TestRenderUsers(t *testing.T) {
	var buf bytes.Buffer
	renderUsers(&buf, []models.User{
		{
			Username:  "alice",
			Email:     "alice@example.com",
			Followers: []string{"b"},
			Following: []string{"b", "c"},
			Posts:     []string{"p1"},
			CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	})

	out := buf.String()
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "2024-03-01")
}
