package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/oksasatya/linkcircle/config"
	"github.com/oksasatya/linkcircle/internal/application"
	"github.com/oksasatya/linkcircle/internal/container"
	"github.com/oksasatya/linkcircle/internal/domain/apperror"
	"github.com/oksasatya/linkcircle/internal/domain/entity"
	"github.com/oksasatya/linkcircle/internal/router"
	"github.com/oksasatya/linkcircle/pkg/helpers"
)

type demoUser struct {
	email, username, name, bio string
}

var demo = []demoUser{
	{"alice@example.com", "alice", "Alice Example", "Building things on the **internet**."},
	{"bob@example.com", "bob", "Bob Example", "Coffee, code, cycling."},
	{"carol@example.com", "carol", "Carol Example", ""},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	driver := flag.String("store", cfg.StoreDriver, "storage backend: postgres, mongo or memory")
	connect := flag.Bool("connect", true, "connect alice and bob and put bob in alice's Friends circle")
	tokens := flag.Bool("tokens", false, "print identity tokens for the demo users")
	flag.Parse()
	cfg.StoreDriver = *driver

	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	container.SetConfig(cfg)
	container.SetLogger(logger)

	ctx := context.Background()
	repo, closeStore, err := router.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	deps := router.BuildDeps(repo)
	users := make([]*entity.User, 0, len(demo))
	for _, d := range demo {
		u, err := deps.Profiles.CreateUser(ctx, application.CreateUserInput{Email: d.email, Username: d.username, Name: d.name})
		if errors.Is(err, apperror.ErrEmailTaken) || errors.Is(err, apperror.ErrUsernameTaken) {
			u, err = deps.Profiles.GetByEmail(ctx, d.email)
		}
		if err != nil {
			log.Fatalf("seed %s: %v", d.username, err)
		}
		if d.bio != "" && u.Bio == "" {
			bio := d.bio
			if u, err = deps.Profiles.UpdateProfile(ctx, u.ID, application.UpdateProfileInput{Bio: &bio}); err != nil {
				log.Fatalf("seed %s bio: %v", d.username, err)
			}
		}
		users = append(users, u)
		fmt.Printf("user %-8s id=%s\n", u.Username, u.ID)
	}

	if *connect {
		alice, bob := users[0], users[1]
		err := deps.Circles.SendRequest(ctx, alice.ID, bob.ID)
		if err != nil && !errors.Is(err, apperror.ErrAlreadyConnectedOrRequested) {
			log.Fatalf("request: %v", err)
		}
		err = deps.Circles.AcceptRequest(ctx, alice.ID, bob.ID)
		if err != nil && !errors.Is(err, apperror.ErrNoSuchRequest) {
			log.Fatalf("accept: %v", err)
		}
		alice, err = deps.Profiles.GetByID(ctx, alice.ID)
		if err != nil {
			log.Fatalf("reload alice: %v", err)
		}
		if len(alice.Circles) == 0 {
			if _, err := deps.Circles.CreateCircle(ctx, alice.ID, "Friends"); err != nil {
				log.Fatalf("circle: %v", err)
			}
		}
		ref := entity.CircleRef{Index: 0, ByIndex: true}
		if _, err := deps.Circles.AddMember(ctx, alice.ID, ref, bob.ID); err != nil {
			log.Fatalf("add member: %v", err)
		}
		fmt.Println("connected @alice <-> @bob, bob added to alice's first circle")
	}

	if *tokens {
		jwt := container.GetJWT()
		for _, u := range users {
			tok, err := jwt.SignIdentityToken(u.Email, u.Name, cfg.AccessTTL)
			if err != nil {
				log.Fatalf("token: %v", err)
			}
			fmt.Printf("idToken %-8s %s\n", u.Username, tok)
		}
	}
}
