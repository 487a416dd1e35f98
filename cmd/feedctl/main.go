// Command feedctl is a terminal client for the meme service: it signs in,
// streams the feed page by page, and can open comment threads or post a
// comment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"memefeed/internal/api"
	"memefeed/internal/authors"
	"memefeed/internal/config"
	"memefeed/internal/feed"
	"memefeed/internal/models"
	"memefeed/internal/session"
)

func main() {
	var (
		username = flag.String("username", "", "username for login (skipped when a stored session is valid)")
		password = flag.String("password", "", "password for login")
		pages    = flag.Int("pages", 1, "number of feed pages to load")
		threads  = flag.Bool("threads", false, "load and print the comment thread of every item")
		comment  = flag.String("comment", "", "post this comment on the first feed item")
		upload   = flag.String("upload", "", "path of a picture to post as a new meme")
		describe = flag.String("description", "", "description for -upload")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	store := session.New(session.NewFileTokenStore(cfg.TokenFile), func() {
		fmt.Fprintln(os.Stderr, "session ended, please sign in again")
	})
	client := api.NewClient(cfg.APIBaseURL, store, time.Duration(cfg.HTTPTimeoutSeconds)*time.Second)

	if !store.Authenticated() {
		if *username == "" || *password == "" {
			log.Fatal("no stored session; -username and -password are required")
		}
		token, err := client.Login(ctx, *username, *password)
		if err != nil {
			if models.HasCode(err, models.CodeWrongCredentials) {
				log.Fatal("wrong username or password")
			}
			log.Fatalf("Login failed: %v", err)
		}
		if err := store.Authenticate(token); err != nil {
			log.Fatalf("Failed to store session: %v", err)
		}
	}

	cache := authors.NewCache(client)
	f := feed.New(client, cache, store)

	if *upload != "" {
		picture, err := os.Open(*upload)
		if err != nil {
			log.Fatalf("Failed to open picture: %v", err)
		}
		defer picture.Close()
		meme, err := client.CreateMeme(ctx, picture, *upload, *describe, nil)
		if err != nil {
			log.Fatalf("Failed to create meme: %v", err)
		}
		fmt.Printf("created meme %s\n", meme.ID)
	}

	if err := f.Start(ctx); err != nil {
		log.Fatalf("Failed to load feed: %v", err)
	}
	for f.CurrentPage() < *pages && f.HasMore() {
		if err := f.LoadNext(ctx); err != nil {
			log.Fatalf("Failed to load page %d: %v", f.CurrentPage()+1, err)
		}
	}

	for _, meme := range f.Memes() {
		fmt.Printf("[%s] %s: %s (%d comments)\n",
			meme.CreatedAt.Format(time.DateOnly),
			meme.Author.Username,
			meme.Description,
			meme.DisplayCommentCount(),
		)
		if !*threads {
			continue
		}
		if err := f.LoadThread(ctx, meme.ID); err != nil {
			log.Printf("Failed to load thread for %s: %v", meme.ID, err)
			continue
		}
		for _, c := range f.Thread(meme.ID) {
			fmt.Printf("    %s: %s\n", c.Author.Username, c.Content)
		}
	}

	if *comment != "" {
		memes := f.Memes()
		if len(memes) == 0 {
			log.Fatal("no feed items to comment on")
		}
		if err := f.SubmitComment(ctx, memes[0].ID, *comment); err != nil {
			log.Fatalf("Failed to submit comment: %v", err)
		}
		fmt.Printf("comment queued on %s\n", memes[0].ID)
		// The create request is fire-and-forget; give it a moment before the
		// process exits.
		time.Sleep(2 * time.Second)
	}
}
