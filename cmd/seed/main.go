package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/medagenda/scheduling-api/internal/config"
	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/repository/postgres"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close()

	gofakeit.Seed(time.Now().UnixNano())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	doctorIDs, err := seedDoctors(ctx, db, 25)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedWorkingHours(ctx, db, doctorIDs); err != nil {
		log.Fatalf("seed working hours: %v", err)
	}
	if err := seedPatients(ctx, db, 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedRooms(ctx, db, 10); err != nil {
		log.Fatalf("seed rooms: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, db *sqlx.DB, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO doctors (id, name, email, specialty, consultation_minutes, buffer_minutes, consultation_price, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, true, now(), now())
		`, id, gofakeit.Name(), gofakeit.Email(),
			specialties[gofakeit.Number(0, len(specialties)-1)],
			50, 10, float64(gofakeit.Number(80, 300)))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit()
}

func seedWorkingHours(ctx context.Context, db *sqlx.DB, doctorIDs []uuid.UUID) error {
	log.Printf("seeding working hours for %d doctors", len(doctorIDs))

	lunchStart := model.MustTimeOfDay("12:00")
	lunchEnd := model.MustTimeOfDay("13:00")

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, doctorID := range doctorIDs {
		// Monday through Friday, 08:00 to 18:00 with a lunch break.
		for weekday := 1; weekday <= 5; weekday++ {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO working_hours (id, doctor_id, weekday, start_minute, end_minute, lunch_start_minute, lunch_end_minute, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			`, uuid.New(), doctorID, weekday,
				model.MustTimeOfDay("08:00"), model.MustTimeOfDay("18:00"),
				lunchStart, lunchEnd)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func seedPatients(ctx context.Context, db *sqlx.DB, count int) error {
	log.Printf("seeding %d patients", count)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := 0; i < count; i++ {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO patients (id, name, email, phone, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'active', now(), now())
		`, uuid.New(), gofakeit.Name(), gofakeit.Email(), gofakeit.Phone())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func seedRooms(ctx context.Context, db *sqlx.DB, count int) error {
	log.Printf("seeding %d rooms", count)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := 1; i <= count; i++ {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rooms (id, name, capacity, active, created_at, updated_at)
			VALUES ($1, $2, $3, true, now(), now())
		`, uuid.New(), fmt.Sprintf("Room %d", i), gofakeit.Number(1, 4))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
