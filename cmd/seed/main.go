// Command seed populates a development database with demo users and sample
// feedback records. It is intended for local development and demos only;
// running it against an existing database simply adds more rows.
//
// Usage:
//
//	DB_PATH=feedback.db go run ./cmd/seed
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-feedback-backend/internal/config"
	"github.com/tbourn/go-feedback-backend/internal/domain"
	"github.com/tbourn/go-feedback-backend/internal/repo"
	"github.com/tbourn/go-feedback-backend/internal/sysutil"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	sysutil.SetLogLevel(cfg.LogLevel)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx := context.Background()

	hr, err := repo.CreateUser(ctx, db, "hr@example.com", "hr")
	if err != nil {
		log.Fatal().Err(err).Msg("seed hr user")
	}
	admin, err := repo.CreateUser(ctx, db, "admin@example.com", "admin")
	if err != nil {
		log.Fatal().Err(err).Msg("seed admin user")
	}
	cand, err := repo.CreateUser(ctx, db, "candidate@example.com", "candidate")
	if err != nil {
		log.Fatal().Err(err).Msg("seed candidate user")
	}

	day := func(offset int) time.Time {
		return time.Now().UTC().AddDate(0, 0, -offset).Truncate(24 * time.Hour)
	}

	samples := []domain.FeedbackRecord{
		{
			CandidateName: "Ada Lovelace", CandidateEmail: "ada@example.com",
			Position: "Backend Engineer", InterviewDate: day(14), InterviewerName: "Grace Hopper",
			Overall: 4, Communication: 5, Technical: 4, Process: 4,
			Comments: "Well structured rounds, clear expectations throughout.", Recommend: true,
			Suggestions: "Share the agenda a day earlier.", OwnerUserID: &cand.ID,
		},
		{
			CandidateName: "Alan Turing", CandidateEmail: "alan@example.com",
			Position: "Backend Engineer", InterviewDate: day(10), InterviewerName: "Grace Hopper",
			Overall: 5, Communication: 5, Technical: 5, Process: 5,
			Comments: "Excellent experience, thoughtful technical discussion.", Recommend: true,
		},
		{
			CandidateName: "Katherine Johnson", CandidateEmail: "katherine@example.com",
			Position: "Data Engineer", InterviewDate: day(6), InterviewerName: "Annie Easley",
			Overall: 3, Communication: 4, Technical: 3, Process: 3,
			Comments: "Process felt rushed; interviewers were friendly.", Recommend: false,
			Suggestions: "Leave more time for candidate questions.",
		},
		{
			CandidateName: "Margaret Hamilton", CandidateEmail: "margaret@example.com",
			Position: "Platform Engineer", InterviewDate: day(3), InterviewerName: "Annie Easley",
			Overall: 4, Communication: 4, Technical: 5, Process: 4,
			Comments: "Deep system design conversation, fair take-home scope.", Recommend: true,
		},
	}

	for _, rec := range samples {
		if _, err := repo.CreateFeedback(ctx, db, rec); err != nil {
			log.Fatal().Err(err).Str("candidate", rec.CandidateName).Msg("seed record")
		}
	}

	log.Info().
		Str("hr_user", hr.ID).
		Str("admin_user", admin.ID).
		Str("candidate_user", cand.ID).
		Int("records", len(samples)).
		Msg("seed complete")

	os.Exit(0)
}
