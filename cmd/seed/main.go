package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/config"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/repository"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/seed"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var file string

	flag.IntVar(&op, "op", 0, "operation (1: random employees, 2: random stations, 3: random qualifications, 4: import qualification matrix CSV)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.StringVar(&file, "file", "./data/qualifications.csv", "qualification matrix for -op 4")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		slog.Error("no operation given")
	case 1:
		if n <= 0 {
			slog.Error("number of employees must be positive")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			e := utils.GenerateRandomEmployee(cfg.Seed.EmailDomain)
			if err := repo.CreateEmployee(e); err != nil {
				slog.Error("failed to insert employee", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("employees inserted", slog.Int("count", cnt))
	case 2:
		if n <= 0 {
			slog.Error("number of stations must be positive")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			s := utils.GenerateRandomStation()
			if err := repo.CreateStation(s); err != nil {
				slog.Error("failed to insert station", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("stations inserted", slog.Int("count", cnt))
	case 3:
		employees, err := repo.GetAllEmployees()
		if err != nil {
			slog.Error("failed to load employees", slog.String("error", err.Error()))
			return
		}
		stations, err := repo.GetAllStations()
		if err != nil {
			slog.Error("failed to load stations", slog.String("error", err.Error()))
			return
		}

		quals := utils.GenerateRandomQualifications(employees, stations, cfg.Seed.Density)
		if err := repo.ReplaceQualifications(quals); err != nil {
			slog.Error("failed to replace qualifications", slog.String("error", err.Error()))
			return
		}

		slog.Info("qualifications replaced", slog.Int("count", len(quals)))
	case 4:
		f, err := os.Open(file)
		if err != nil {
			slog.Error("failed to open file", slog.String("file", file), slog.String("error", err.Error()))
			return
		}
		defer f.Close()

		m, err := seed.Parse(f)
		if err != nil {
			slog.Error("failed to parse qualification matrix", slog.String("error", err.Error()))
			return
		}

		if _, err := seed.Import(repo, m); err != nil {
			slog.Error("failed to import qualification matrix", slog.String("error", err.Error()))
			return
		}
	default:
		slog.Error("unknown operation", slog.Int("op", op))
	}
}
