package internal

import (
	"fmt"
	"time"
)

type Config struct {
	MongoURI      string        `env:"MONGO_URI,required=true"`
	MongoDatabase string        `env:"MONGO_DATABASE,default=rofl"`
	MongoTimeout  time.Duration `env:"MONGO_TIMEOUT,default=10s"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`

	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	CensoredWordsFile string `env:"CENSORED_WORDS_FILE"`
	CensorReplacement string `env:"CENSOR_REPLACEMENT,default=*"`
	MaxContentLength  int    `env:"MAX_CONTENT_LENGTH,default=4096"`
}

// CensorRune validates that the configured replacement is one character.
func (c Config) CensorRune() (rune, error) {
	r := []rune(c.CensorReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSOR_REPLACEMENT must be a single character, got %q", c.CensorReplacement)
	}
	return r[0], nil
}
