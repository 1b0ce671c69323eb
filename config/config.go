package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName   string `json:"appname"`
	AppEnv    string `json:"appenv"`
	AppPort   uint16 `json:"appport"`
	GinMode   string `json:"ginmode"`
	DBHost    string `json:"dbhost"`
	DBPort    uint16 `json:"dbport"`
	DBName    string `json:"dbname"`
	DBUser    string `json:"dbuser"`
	DBPass    string `json:"dbpass"`
	MailHost  string `json:"mailhost"`
	MailPort  int    `json:"mailport"`
	MailUser  string `json:"mailuser"`
	MailPass  string `json:"mailpass"`
	MailFrom  string `json:"mailfrom"`
	RedisAddr string `json:"redisaddr"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// A missing .env file is fine; containers and tests set variables directly.
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}

		appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)
		mailPort, _ := strconv.Atoi(os.Getenv("MAILPORT"))
		if mailPort == 0 {
			mailPort = 587
		}

		// Initialize the Config struct with values from environment variables.
		config = &Config{
			AppName:   os.Getenv("APPNAME"),
			AppEnv:    os.Getenv("APPENV"),
			AppPort:   uint16(appPort),
			GinMode:   os.Getenv("GINMODE"),
			DBHost:    os.Getenv("DBHOST"),
			DBPort:    uint16(dbPort),
			DBName:    os.Getenv("DBNAME"),
			DBUser:    os.Getenv("DBUSER"),
			DBPass:    os.Getenv("DBPASS"),
			MailHost:  os.Getenv("MAILHOST"),
			MailPort:  mailPort,
			MailUser:  os.Getenv("MAILUSER"),
			MailPass:  os.Getenv("MAILPASS"),
			MailFrom:  os.Getenv("MAILFROM"),
			RedisAddr: os.Getenv("REDIS_ADDR"),
		}
	})
	return config
}

// ConnectMySQL establishes a connection to a MySQL database using the configuration values.
func ConnectMySQL() (*gorm.DB, error) {
	cfg := LoadConfig()
	// Build the Data Source Name (DSN) using the configuration values.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	// Open a database connection.
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
