// Terminal client for the blind-date chat. It talks to the hosted data
// platform directly (PostgreSQL + Redis), the same way the web client talks
// to its backend-as-a-service: register, wait for a pairing, chat, reveal.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"blinddate/backend/internal/botreply"
	"blinddate/backend/internal/chat"
	"blinddate/backend/internal/models"
	"blinddate/backend/internal/pairing"
	"blinddate/backend/internal/session"
	"blinddate/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	log.SetOutput(os.Stderr)

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost user=user password=password dbname=blinddatedb port=5432 sslmode=disable"
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	platform := storage.NewService(db, rdb)

	path, err := session.DefaultPath()
	if err != nil {
		log.Printf("Warning: no config dir, session will not persist: %v", err)
	}
	store := session.NewStore(path)

	in := bufio.NewScanner(os.Stdin)

	if store.Snapshot().ID == "" {
		register(in, platform, store)
	} else {
		fmt.Printf("Welcome back, %s!\n", store.Snapshot().Name)
	}

	for {
		snap := store.Snapshot()
		if snap.Status != session.StatusPaired {
			if err := platform.UpdateUserStatus(snap.ID, models.StatusMatching, nil); err != nil {
				log.Fatalf("Failed to start matching: %v", err)
			}
			store.SetSearching()
			waitForMatch(platform, store)
		}
		runChat(in, platform, store)

		fmt.Print("Search for a new match? [y/N] ")
		if !in.Scan() || strings.ToLower(strings.TrimSpace(in.Text())) != "y" {
			return
		}
	}
}

// register prompts for the profile until it validates, then creates the
// platform record and adopts the assigned identity.
func register(in *bufio.Scanner, platform storage.Platform, store *session.Store) {
	fmt.Println("Create your profile. Let's find your valentine!")

	for {
		user := &models.User{
			Name:         prompt(in, "Your name"),
			Gender:       promptChoice(in, "Gender", models.GenderMale, models.GenderFemale, models.GenderNonBinary),
			TargetGender: promptChoice(in, "Interested in", models.GenderMale, models.GenderFemale, models.GenderNonBinary, models.TargetEveryone),
			InstagramID:  prompt(in, "Instagram ID"),
			Status:       models.StatusMatching,
		}
		user.Age, _ = strconv.Atoi(prompt(in, "Age"))
		if tags := prompt(in, "Interests (comma separated, optional)"); tags != "" {
			for _, t := range strings.Split(tags, ",") {
				if t = strings.TrimSpace(t); t != "" {
					user.Interests = append(user.Interests, t)
				}
			}
		}

		if err := user.ValidateProfile(); err != nil {
			fmt.Printf("  %s\n", err)
			continue
		}
		if err := platform.CreateUser(user); err != nil {
			fmt.Printf("  Failed to register: %v. Try again.\n", err)
			continue
		}
		store.Register(user)
		return
	}
}

// waitForMatch runs the pairing loop with the searching animation until a
// partner is adopted.
func waitForMatch(platform storage.Platform, store *session.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := pairing.NewLoop(platform, store)
	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("pairing stopped: %v", err)
		}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	dots := ""

	for {
		select {
		case partnerID := <-loop.Done():
			fmt.Printf("\rMatch found! Partner: %s\n", partnerID)
			return
		case <-ticker.C:
			if len(dots) >= 3 {
				dots = ""
			} else {
				dots += "."
			}
			fmt.Printf("\rLooking for your Valentine%-3s", dots)
		}
	}
}

// runChat drives one chat session until the user leaves.
func runChat(in *bufio.Scanner, platform storage.Platform, store *session.Store) {
	ctrl := chat.NewController(platform, store, botreply.NewEngine())
	if err := ctrl.Start(context.Background()); err != nil {
		log.Printf("Failed to open chat: %v", err)
		store.ClearMatch()
		return
	}
	defer ctrl.Stop()

	partner := ctrl.Partner()
	fmt.Printf("You are chatting with %s. Commands: /reveal, /leave\n", partner.Name)
	for _, m := range ctrl.Messages() {
		printMessage(partner, &m)
	}

	go func() {
		for ev := range ctrl.Events() {
			switch ev.Kind {
			case chat.EventMessage:
				if ev.Message.SenderID == partner.ID {
					printMessage(partner, ev.Message)
				}
			case chat.EventRevealed:
				fmt.Printf("\nIt's a Match! Go say hi on Instagram: %s\n> ", partner.InstagramID)
			case chat.EventPartnerLeft:
				fmt.Print("\nPartner has disconnected. Type /leave to exit.\n> ")
			case chat.EventSendFailed:
				fmt.Print("\nFailed to send message. Please try again.\n> ")
			}
		}
	}()

	for {
		fmt.Print("> ")
		if !in.Scan() {
			ctrl.Leave()
			return
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "/leave":
			if err := ctrl.Leave(); err != nil {
				log.Printf("leave: %v", err)
			}
			return
		case "/reveal":
			if ctrl.HasRevealed() {
				fmt.Println("Waiting for partner...")
				continue
			}
			ctrl.Reveal()
		default:
			ctrl.Send(line)
		}
	}
}

func printMessage(partner *models.User, m *models.Message) {
	if m.IsReveal() {
		who := "Partner"
		if m.SenderID != partner.ID {
			who = "You"
		}
		fmt.Printf("\n[%s requested to reveal ID]\n", who)
		return
	}
	name := "You"
	if m.SenderID == partner.ID {
		name = partner.Name
	}
	fmt.Printf("\n%s: %s\n", name, m.Content)
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Printf("%s: ", label)
	if !in.Scan() {
		os.Exit(0)
	}
	return strings.TrimSpace(in.Text())
}

func promptChoice(in *bufio.Scanner, label string, options ...string) string {
	for {
		fmt.Printf("%s (%s): ", label, strings.Join(options, "/"))
		if !in.Scan() {
			os.Exit(0)
		}
		choice := strings.ToLower(strings.TrimSpace(in.Text()))
		for _, opt := range options {
			if choice == opt {
				return choice
			}
		}
		fmt.Println("  Please pick one of the options.")
	}
}
