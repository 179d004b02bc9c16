package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"plaiful/internal/database"
	"plaiful/internal/domain"
	"plaiful/internal/pkg/utils"
)

type seedTool struct {
	name, tagline, website string
	tier                   domain.ToolTier
	pricing                domain.PricingType
	categories             []string
	topics                 []string
}

var (
	categorySeeds = []string{"Chatbots", "Writing", "Image Generation", "Coding", "Productivity", "Video", "Audio", "Research"}
	topicSeeds    = []string{"Agents", "Open Source", "Prompt Engineering", "Automation"}

	toolSeeds = []seedTool{
		{"ChatGPT", "Conversational assistant for everyday work", "https://chat.openai.com", domain.TierPremium, domain.PricingFreemium, []string{"chatbots", "writing"}, []string{"agents"}},
		{"Claude", "Helpful assistant for writing, analysis and code", "https://claude.ai", domain.TierPremium, domain.PricingFreemium, []string{"chatbots", "writing", "coding"}, []string{"agents"}},
		{"GitHub Copilot", "AI pair programmer in your editor", "https://github.com/features/copilot", domain.TierFeatured, domain.PricingPaid, []string{"coding"}, []string{"automation"}},
		{"Midjourney", "Image generation from text prompts", "https://midjourney.com", domain.TierFeatured, domain.PricingPaid, []string{"image-generation"}, []string{"prompt-engineering"}},
		{"Perplexity", "Answer engine with cited sources", "https://perplexity.ai", domain.TierFree, domain.PricingFreemium, []string{"research", "chatbots"}, nil},
		{"Notion AI", "Writing and summaries inside your workspace", "https://notion.so", domain.TierFree, domain.PricingPaid, []string{"productivity", "writing"}, nil},
		{"Runway", "Video generation and editing", "https://runwayml.com", domain.TierFree, domain.PricingFreemium, []string{"video"}, nil},
		{"ElevenLabs", "Realistic text to speech", "https://elevenlabs.io", domain.TierFree, domain.PricingFreemium, []string{"audio"}, nil},
		{"Ollama", "Run open models locally", "https://ollama.com", domain.TierFree, domain.PricingFree, []string{"coding", "chatbots"}, []string{"open-source"}},
		{"Zapier AI", "Automate workflows with natural language", "https://zapier.com", domain.TierFree, domain.PricingFreemium, []string{"productivity"}, []string{"automation", "agents"}},
	}
)

func main() {
	dsn := flag.String("dsn", os.Getenv("DATABASE_URL"), "database DSN (defaults to DATABASE_URL)")
	reset := flag.Bool("reset", false, "delete existing directory data first")
	hashPassword := flag.String("hash-password", "", "print a bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)
	defer func() { _ = logger.Sync() }()

	if *hashPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*hashPassword), bcrypt.DefaultCost)
		if err != nil {
			zap.L().Fatal("hash password", zap.Error(err))
		}
		fmt.Println(string(hash))
		return
	}

	if *dsn == "" {
		*dsn = "plaiful.db"
	}
	db, err := database.Connect(*dsn)
	if err != nil {
		zap.L().Fatal("DB connection failed", zap.Error(err))
	}

	zap.L().Info("Running migrations...")
	if err := database.Migrate(db); err != nil {
		zap.L().Fatal("migrate failed", zap.Error(err))
	}

	if *reset {
		zap.L().Info("Cleaning old data...")
		for _, table := range []string{"ad_categories", "tool_topics", "tool_categories", "ads", "tools", "blog_posts", "topics", "categories"} {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				zap.L().Fatal("cleanup failed", zap.String("table", table), zap.Error(err))
			}
		}
	}

	if err := seed(db, time.Now().UTC()); err != nil {
		zap.L().Fatal("seed failed", zap.Error(err))
	}
	zap.L().Info("Seed completed")
}

func seed(db *gorm.DB, now time.Time) error {
	rng := rand.New(rand.NewSource(now.UnixNano()))
	upsert := clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}

	categories := map[string]domain.Category{}
	for _, name := range categorySeeds {
		c := domain.Category{Slug: utils.Slugify(name), Name: name}
		if err := db.Clauses(upsert).Create(&c).Error; err != nil {
			return fmt.Errorf("category %s: %w", name, err)
		}
		if err := db.First(&c, "slug = ?", c.Slug).Error; err != nil {
			return err
		}
		categories[c.Slug] = c
	}
	zap.L().Info("Categories ready", zap.Int("count", len(categories)))

	topics := map[string]domain.Topic{}
	for _, name := range topicSeeds {
		t := domain.Topic{Slug: utils.Slugify(name), Name: name}
		if err := db.Clauses(upsert).Create(&t).Error; err != nil {
			return fmt.Errorf("topic %s: %w", name, err)
		}
		if err := db.First(&t, "slug = ?", t.Slug).Error; err != nil {
			return err
		}
		topics[t.Slug] = t
	}

	for i, s := range toolSeeds {
		publishedAt := now.Add(-time.Duration(i*24+rng.Intn(24)) * time.Hour)
		tool := domain.Tool{
			Slug:        utils.Slugify(s.name),
			Name:        s.name,
			Tagline:     s.tagline,
			Description: s.tagline + ".",
			Content:     fmt.Sprintf("%s is listed in the Plaiful directory. %s.", s.name, s.tagline),
			WebsiteURL:  s.website,
			Status:      domain.ToolPublished,
			Tier:        s.tier,
			PricingType: s.pricing,
			PublishedAt: &publishedAt,
			Impressions: int64(rng.Intn(5000)),
			Views:       int64(rng.Intn(1000)),
			Clicks:      int64(rng.Intn(200)),
		}
		for _, slug := range s.categories {
			tool.Categories = append(tool.Categories, categories[slug])
		}
		for _, slug := range s.topics {
			tool.Topics = append(tool.Topics, topics[slug])
		}
		if err := db.Where("slug = ?", tool.Slug).FirstOrCreate(&tool).Error; err != nil {
			return fmt.Errorf("tool %s: %w", s.name, err)
		}
	}
	zap.L().Info("Tools ready", zap.Int("count", len(toolSeeds)))

	scheduled := now.Add(2 * time.Hour)
	if err := db.Clauses(upsert).Create(&domain.Tool{
		Slug: "coming-soon-ai", Name: "Coming Soon AI", Tagline: "Launching later today",
		WebsiteURL: "https://example.com", Status: domain.ToolScheduled, PublishedAt: &scheduled,
	}).Error; err != nil {
		return err
	}

	imageURL := "https://cdn.plaiful.ai/ads/leaderboard.png"
	width, height := 728, 90
	ads := []domain.Ad{
		{
			Name: "Plaiful Pro", Description: "List your tool at the top of search",
			WebsiteURL: "https://plaiful.ai/pro", Type: domain.AdHomepage, Placement: domain.PlacementAgent,
			StartsAt: now.Add(-24 * time.Hour), EndsAt: now.Add(30 * 24 * time.Hour),
		},
		{
			Name: "Writing Week", Description: "Discounts on writing assistants",
			WebsiteURL: "https://plaiful.ai/writing-week", Type: domain.AdBanner, Placement: domain.PlacementHorizontalTop,
			ImageURL: &imageURL, Width: &width, Height: &height,
			StartsAt: now.Add(-time.Hour), EndsAt: now.Add(7 * 24 * time.Hour),
			Categories: []domain.Category{categories["writing"]},
		},
	}
	var adCount int64
	if err := db.Model(&domain.Ad{}).Count(&adCount).Error; err != nil {
		return err
	}
	if adCount == 0 {
		for i := range ads {
			if err := db.Create(&ads[i]).Error; err != nil {
				return fmt.Errorf("ad %s: %w", ads[i].Name, err)
			}
		}
	}

	post := domain.BlogPost{
		Slug: "welcome-to-plaiful", Title: "Welcome to Plaiful",
		Description: "How the directory ranks tools",
		Content:     "Plaiful lists AI tools by tier and freshness, and ranks free-text searches with a language model.",
		Status:      domain.PostPublished, PublishedAt: &now,
	}
	if err := db.Clauses(upsert).Create(&post).Error; err != nil {
		return err
	}

	zap.L().Info("Ads and posts ready", zap.Int64("existing_ads", adCount))
	return nil
}
