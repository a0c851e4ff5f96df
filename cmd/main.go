package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"blinddate/backend/internal/api/handler"
	"blinddate/backend/internal/models"
	"blinddate/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies() (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost user=user password=password dbname=blinddatedb port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	// 2. Redis
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	// Перевірка з'єднання Redis
	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	// 3. Міграції (Створення таблиць)
	err = db.AutoMigrate(
		&models.User{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

// seedBots створює бот-персони, якщо їх ще немає. Вони підхоплюють
// користувачів, для яких не знайшлося живого співрозмовника.
func seedBots(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.User{}).Where("is_bot = ?", true).Count(&count).Error; err != nil {
		log.Printf("Warning: failed to count bot personas: %v", err)
		return
	}
	if count > 0 {
		return
	}

	personas := []models.User{
		{Name: "Mia", Age: 24, Gender: models.GenderFemale, TargetGender: models.TargetEveryone, InstagramID: "@mia.round.two", Interests: pq.StringArray{"music", "travel"}},
		{Name: "Sofia", Age: 26, Gender: models.GenderFemale, TargetGender: models.TargetEveryone, InstagramID: "@sofia.wanders", Interests: pq.StringArray{"movies", "coffee"}},
		{Name: "Lena", Age: 22, Gender: models.GenderFemale, TargetGender: models.TargetEveryone, InstagramID: "@lena.lately", Interests: pq.StringArray{"books", "hiking"}},
	}
	for i := range personas {
		personas[i].IsBot = true
		personas[i].Status = models.StatusOnline
		if err := db.Create(&personas[i]).Error; err != nil {
			log.Printf("Warning: failed to seed bot %s: %v", personas[i].Name, err)
		}
	}
	log.Printf("Seeded %d bot personas.", len(personas))
}

func main() {
	log.Println("Starting BlindDate Backend...")

	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	// 1. Ініціалізація залежностей
	db, rdb := setupDependencies()
	seedBots(db)
	s := storage.NewService(db, rdb)

	// 2. Налаштування Gin та роутингу
	r := gin.Default()
	h := handler.NewHandler(s)
	h.RegisterRoutes(r)

	// Запуск HTTP-сервера. WriteTimeout не ставимо: WS-з'єднання живуть
	// довше за будь-який розумний таймаут.
	server := &http.Server{
		Addr:              ":8080",
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
