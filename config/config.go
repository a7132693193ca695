package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const EnvFileName = ".env"

// Duration - обертка над time.Duration, понимающая в yaml как строки
// вида "250ms", так и целое число наносекунд.
type Duration time.Duration

// UnmarshalYAML реализует yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, perr := time.ParseDuration(raw)
		if perr != nil {
			return errors.Wrap(perr, "parse duration")
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return errors.Wrap(err, "parse duration")
	}
	*d = Duration(n)
	return nil
}

// Std возвращает значение как time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config структура для парсинга файла конфигурации
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Bus      BusConfig      `yaml:"bus"`
}

// PipelineConfig - настройки демонстрационного конвейера.
type PipelineConfig struct {
	TickInterval     Duration `yaml:"tick_interval"`
	DebounceInterval Duration `yaml:"debounce_interval"`
	ThrottleRate     float64  `yaml:"throttle_rate"`
	ThrottleBurst    int      `yaml:"throttle_burst"`
	ReplayCapacity   int      `yaml:"replay_capacity"`
	ReplayWindow     Duration `yaml:"replay_window"`
}

// BusConfig - настройки шины subpub.
type BusConfig struct {
	Subject   string `yaml:"subject"`
	QueueSize int    `yaml:"queue_size"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			TickInterval:     Duration(100 * time.Millisecond),
			DebounceInterval: Duration(250 * time.Millisecond),
			ThrottleRate:     5,
			ThrottleBurst:    1,
			ReplayCapacity:   16,
			ReplayWindow:     Duration(time.Minute),
		},
		Bus: BusConfig{
			Subject:   "state",
			QueueSize: 1024,
		},
	}
}

// NewConfig парсит данные из файла конфигурации и возвращает объект Config
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	conf := Default()
	err = yaml.Unmarshal(data, conf)
	if err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *Config) validate() error {
	if c.Pipeline.TickInterval <= 0 {
		return errors.New("pipeline.tick_interval must be positive")
	}
	if c.Pipeline.DebounceInterval <= 0 {
		return errors.New("pipeline.debounce_interval must be positive")
	}
	if c.Pipeline.ThrottleRate <= 0 {
		return errors.New("pipeline.throttle_rate must be positive")
	}
	if c.Bus.Subject == "" {
		return errors.New("bus.subject must not be empty")
	}
	return nil
}

// FetchConfigPath возвращает путь к файлу конфигурации
func FetchConfigPath() string {
	err := godotenv.Load(EnvFileName)
	if err != nil {
		log.Println("No .env file found, using default config path")
	}

	// Если в .env файле нет переменной CONFIG_PATH, используем путь по умолчанию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(".", "config.yml")
	}

	return configPath
}
