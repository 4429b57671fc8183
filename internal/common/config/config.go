package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Postgres struct {
		DSN             string        `env:"DATABASE_URL,required"`
		MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`

		// Сколько храним отчёты об импорте
		ReportTTL time.Duration `env:"REPORT_TTL" envDefault:"168h"`
	}

	Sheets struct {
		APIKey               string `env:"SHEETS_API_KEY,required"`
		MainSpreadsheetID    string `env:"MAIN_SPREADSHEET_ID,required"`
		MentorsSpreadsheetID string `env:"MENTORS_SPREADSHEET_ID,required"`

		StudentsRange         string `env:"STUDENTS_RANGE" envDefault:"Telegram аккаунты студентов!A2:C"`
		ProjectsRange         string `env:"PROJECTS_RANGE" envDefault:"Projects!A2:J"`
		ReviewsRange          string `env:"REVIEWS_RANGE" envDefault:"Reviews!A2:I"`
		MentorsRange          string `env:"MENTORS_RANGE" envDefault:"Менторы!A5:H"`
		SponsoredReviewsRange string `env:"SPONSORED_REVIEWS_RANGE" envDefault:"Спонсируемые ревью!A2:M"`

		Timeout    time.Duration `env:"SHEETS_TIMEOUT" envDefault:"30s"`
		MaxRetries int           `env:"SHEETS_MAX_RETRIES" envDefault:"4"`
	}

	Import struct {
		// Импорт спонсируемых ревью можно выключить целиком
		EnableFinancial bool `env:"ENABLE_FINANCIAL_IMPORT" envDefault:"true"`
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// Игнорируем ошибку, если .env файл не найден
		// В production окружении переменные могут быть установлены напрямую
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
