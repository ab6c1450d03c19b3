package helpers

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/vigilo-project/vigilo/internal/db"
	"gorm.io/gorm"
)

// SetupTestDatabase connects to the disposable postgres instance the test
// compose file brings up. Override dbhost/dbport via environment to point
// the suites elsewhere.
func SetupTestDatabase(t *testing.T) *gorm.DB {
	viper.AutomaticEnv()
	viper.SetDefault("dbhost", "localhost")
	viper.SetDefault("dbport", "32432")

	testDB, err := db.InitDB(&db.Config{
		Host:     viper.GetString("dbhost"),
		Port:     viper.GetString("dbport"),
		User:     "postgres",
		Password: "postgres",
		DBName:   "vigilo_test",
	})
	if err != nil {
		t.Fatal(err)
	}

	return testDB
}
