package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"webwork-assist/internal/components/configutil"

	"github.com/joho/godotenv"
)

// Course holds the credentials for one enrolled course.
type Course struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Config is loaded once at startup and passed explicitly to the manager.
type Config struct {
	BaseUrl string   `json:"url"`
	Courses []Course `json:"courses"`
	// wraps the http transport with a cloudflare bypass, only needed for some deployments
	CloudflareBypass bool `json:"cloudflare_bypass"`
}

var ErrMissingValue = errors.New("missing configuration value")

// Load reads a json5 config file when path has a json extension, otherwise path is treated as a
// dotenv file (it may not exist) layered under the process environment.
func Load(path string) (Config, error) {
	if strings.HasSuffix(path, ".json5") || strings.HasSuffix(path, ".json") {
		cfg, err := configutil.ReadConfig[Config](path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		return cfg, cfg.Validate()
	}
	return FromEnv(path)
}

// FromEnv reads the `url`, `classes` and `username<i>`/`password<i>` variables where `i` is the
// index of the class in the comma separated `classes` list.
func FromEnv(envFile string) (Config, error) {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	baseUrl, hasUrl := os.LookupEnv("url")
	classes, hasClasses := os.LookupEnv("classes")
	if !hasUrl || !hasClasses {
		return Config{}, fmt.Errorf("%w: 'url' or 'classes'", ErrMissingValue)
	}

	cfg := Config{
		BaseUrl:          baseUrl,
		CloudflareBypass: os.Getenv("cloudflare_bypass") == "true",
	}
	for i, name := range strings.Split(classes, ",") {
		name = strings.TrimSpace(name)
		username, hasUser := os.LookupEnv(fmt.Sprintf("username%d", i))
		password, hasPass := os.LookupEnv(fmt.Sprintf("password%d", i))
		if !hasUser || !hasPass {
			return Config{}, fmt.Errorf("%w: login credentials for %s", ErrMissingValue, name)
		}
		cfg.Courses = append(cfg.Courses, Course{
			Name:     name,
			Username: username,
			Password: password,
		})
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.BaseUrl == "" {
		return fmt.Errorf("%w: url", ErrMissingValue)
	}
	parsed, err := url.Parse(c.BaseUrl)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", c.BaseUrl, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid url %q: expected an absolute url", c.BaseUrl)
	}
	if len(c.Courses) == 0 {
		return fmt.Errorf("%w: at least one course", ErrMissingValue)
	}

	seen := map[string]bool{}
	for _, course := range c.Courses {
		if course.Name == "" {
			return fmt.Errorf("%w: course name", ErrMissingValue)
		}
		if course.Username == "" || course.Password == "" {
			return fmt.Errorf("%w: login credentials for %s", ErrMissingValue, course.Name)
		}
		if seen[course.Name] {
			return fmt.Errorf("course %s is configured twice", course.Name)
		}
		seen[course.Name] = true
	}
	return nil
}
