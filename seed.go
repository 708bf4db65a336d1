package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"staticblog/internal/models"
	"staticblog/internal/services"
)

const seedContent = `
This post was generated for load testing.

## Markdown features

- item one
- item two
- item three

> Static files are served straight from disk.

` + "```go" + `
package main

import "fmt"

func main() {
	fmt.Println("Hello, World!")
}
` + "```" + `

Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed non risus. Suspendisse lectus tortor, dignissim sit amet, adipiscing nec, ultricies sed, dolor. Cras elementum ultrices diam. Maecenas ligula massa, varius a, semper congue, euismod non, mi.
`

// runSeed creates CLI.Seed.Count published posts, one every three days going
// back from now, then regenerates once.
func runSeed(ctx context.Context, a *app) error {
	author, err := a.users.PrincipalByName(ctx, CLI.Seed.Author)
	if err != nil {
		return fmt.Errorf("seed needs an admin user, run setup first: %w", err)
	}
	seeder := services.NewPostService(a.postRepo, a.categoryRepo, nil)

	start := time.Now().UTC()
	for i := 1; i <= CLI.Seed.Count; i++ {
		at := start.AddDate(0, 0, -3*(CLI.Seed.Count-i))
		_, _, err := seeder.Create(ctx, author.UserID, services.PostInput{
			Title:       fmt.Sprintf("Load test post %d", i),
			Content:     fmt.Sprintf("Post number %d.\n%s", i, seedContent),
			Status:      models.StatusPublished,
			PublishedAt: &at,
		})
		if err != nil {
			log.Printf("Failed to create post %d: %v", i, err)
			continue
		}
		if i%100 == 0 {
			log.Printf("Created %d/%d posts", i, CLI.Seed.Count)
		}
	}
	log.Printf("Created %d posts", CLI.Seed.Count)

	_, err = a.generator.Regenerate(ctx)
	return err
}
