// Package seed creates demo accounts, follow edges and posts for development databases.
// Follows go through the follow service so mutual pairs get their chat rooms exactly as
// they would in production.
package seed

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"kinship/internal/chatroom"
	"kinship/internal/models"
	"kinship/internal/repository"
	"kinship/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// Options controls how much data the seeder creates.
type Options struct {
	Users        int
	PostsPerUser int
	// FollowRatio is the chance that any user follows any other user.
	FollowRatio float64
	// Seed makes the generated data reproducible; zero picks a random seed.
	Seed int64
}

// Summary reports what a run created.
type Summary struct {
	Users    int
	Follows  int
	Mutual   int
	Posts    int
	Likes    int
	Comments int
}

// Seeder writes demo data through the repositories and services.
type Seeder struct {
	db      *gorm.DB
	users   repository.UserRepository
	follows *service.FollowService
	posts   *service.PostService
	faker   *gofakeit.Faker
	opts    Options
}

// NewSeeder creates a Seeder. rooms receives mutual pairs; nil skips room provisioning.
func NewSeeder(db *gorm.DB, rooms chatroom.Provisioner, opts Options) *Seeder {
	users := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	if opts.FollowRatio <= 0 || opts.FollowRatio > 1 {
		opts.FollowRatio = 0.3
	}
	return &Seeder{
		db:      db,
		users:   users,
		follows: service.NewFollowService(followRepo, users, rooms),
		posts:   service.NewPostService(repository.NewPostRepository(db), repository.NewCommentRepository(db), followRepo),
		faker:   gofakeit.New(opts.Seed),
		opts:    opts,
	}
}

// ClearAll removes every row the seeder can create, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("Clearing existing data...")
	tables := []any{&models.Like{}, &models.Comment{}, &models.Post{}, &models.FollowEdge{}, &models.Profile{}, &models.User{}}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return fmt.Errorf("clear %T: %w", table, err)
			}
		}
		return nil
	})
}

// Run seeds users, then the follow graph, then posts with likes and comments.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	users, err := s.SeedUsers(ctx, s.opts.Users)
	if err != nil {
		return sum, fmt.Errorf("failed to create users: %w", err)
	}
	sum.Users = len(users)
	log.Printf("✓ %d users created", sum.Users)

	sum.Follows, sum.Mutual, err = s.SeedFollowGraph(ctx, users)
	if err != nil {
		return sum, fmt.Errorf("failed to create follow graph: %w", err)
	}
	log.Printf("✓ %d follows created, %d mutual pairs", sum.Follows, sum.Mutual)

	sum.Posts, sum.Likes, sum.Comments, err = s.SeedPosts(ctx, users, s.opts.PostsPerUser)
	if err != nil {
		return sum, fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts, %d likes, %d comments created", sum.Posts, sum.Likes, sum.Comments)
	return sum, nil
}

// SeedUsers creates n accounts, all with DefaultPassword.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		username := s.username(i)
		user := &models.User{
			Username: username,
			Email:    strings.ToLower(username) + "@example.com",
			Password: string(hashed),
			Profile: &models.Profile{
				Bio:       s.faker.Sentence(10),
				AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", s.faker.UUID()),
			},
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// username builds a login-safe username; the index keeps it unique.
func (s *Seeder) username(i int) string {
	base := nonAlphanumeric.ReplaceAllString(s.faker.Username(), "")
	if len(base) > 20 {
		base = base[:20]
	}
	if len(base) < 3 {
		base = "user"
	}
	return fmt.Sprintf("%s%d", base, i)
}

// SeedFollowGraph follows each ordered pair with probability FollowRatio.
func (s *Seeder) SeedFollowGraph(ctx context.Context, users []*models.User) (follows, mutual int, err error) {
	for _, from := range users {
		for _, to := range users {
			if from.ID == to.ID || s.faker.Float64() >= s.opts.FollowRatio {
				continue
			}
			res, err := s.follows.Follow(ctx, from.ID, to.ID)
			if err != nil {
				return follows, mutual, err
			}
			follows++
			if res.Mutual {
				mutual++
			}
		}
	}
	return follows, mutual, nil
}

var visibilities = []models.Visibility{
	models.VisibilityPublic, models.VisibilityPublic, models.VisibilityFriendOnly, models.VisibilityPrivate,
}

// SeedPosts gives every user perUser posts, then lets other users like and comment on the
// posts they are allowed to see.
func (s *Seeder) SeedPosts(ctx context.Context, users []*models.User, perUser int) (posts, likes, comments int, err error) {
	created := make([]*models.Post, 0, len(users)*perUser)
	for _, user := range users {
		for i := 0; i < perUser; i++ {
			post, err := s.posts.Create(ctx, user.ID, service.CreatePostInput{
				Content:    s.faker.Paragraph(1, 3, 12, " "),
				Visibility: visibilities[s.faker.Number(0, len(visibilities)-1)],
			})
			if err != nil {
				return posts, likes, comments, err
			}
			created = append(created, post)
		}
	}
	posts = len(created)

	for _, post := range created {
		for _, user := range users {
			if user.ID == post.UserID {
				continue
			}
			switch s.faker.Number(0, 5) {
			case 0:
				err = s.posts.Like(ctx, user.ID, post.ID)
				if err == nil {
					likes++
				}
			case 1:
				_, err = s.posts.AddComment(ctx, user.ID, post.ID, s.faker.Sentence(8))
				if err == nil {
					comments++
				}
			default:
				continue
			}
			// Hidden posts reject the interaction; that is expected here.
			if err != nil && !models.HasCode(err, models.CodeNotFound) {
				return posts, likes, comments, err
			}
		}
	}
	return posts, likes, comments, nil
}
