package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"course-payments/internal/config"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/repository"
	pg "course-payments/internal/infra/db/postgres"
)

// Seeds a couple of pending enrollments (plus their users) so webhook flows
// can be exercised against a fresh database.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	enrollmentRepo := pg.NewEnrollmentRepo(pool)

	seed := []struct {
		Email        string
		CourseName   string
		PaymentType  model.PaymentType
		Installments int
	}{
		{"alice@example.com", "Backend Engineering Bootcamp", model.PaymentTypeInstallment, 4},
		{"bob@example.com", "Intro to Data Analysis", model.PaymentTypeOnetime, 0},
	}

	for _, s := range seed {
		userID := uuid.NewString()
		if _, err := pool.Exec(ctx,
			`INSERT INTO users (id, email, created_at) VALUES ($1,$2,NOW()) ON CONFLICT (id) DO NOTHING;`,
			userID, s.Email); err != nil {
			log.Fatalf("insert user %q: %v", s.Email, err)
		}

		enr, err := model.NewEnrollment(uuid.NewString(), userID, uuid.NewString(), s.CourseName, s.PaymentType, s.Installments)
		if err != nil {
			log.Fatalf("new enrollment for %q: %v", s.Email, err)
		}
		if err := enrollmentRepo.Save(ctx, repository.NoTX, enr); err != nil {
			log.Fatalf("save enrollment for %q: %v", s.Email, err)
		}
		fmt.Printf("seeded: %s -> %s (%s, installments=%d, enrollment_id=%s)\n",
			s.Email, s.CourseName, enr.PaymentType, enr.TotalInstallments, enr.ID)
	}

	fmt.Println("Seeding complete.")
}
