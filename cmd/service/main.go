package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contactbook/internal/logger"
	"gitlab.com/dirk.krummacker/contactbook/internal/repository"
	"gitlab.com/dirk.krummacker/contactbook/internal/service"
)

// Usage example on the command line:
// > PORT=8080 DBUSER=dirk DBPWD=bullo92 GIN_MODE=release GIN_LOGGING=OFF go run main.go
func main() {
	// a missing .env file is fine, the environment may be set directly
	godotenv.Load()
	if err := logger.Init(); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	sqlDB, err := repository.Connect()
	if err != nil {
		zap.L().Fatal("could not open database connection", zap.Error(err))
	}
	repo := repository.NewMySQL(sqlDB)

	// the service still starts when the schema cannot be ensured so that
	// the health endpoint can report the database problem
	if err := repo.EnsureSchema(); err != nil {
		zap.L().Warn("could not ensure database schema", zap.Error(err))
	} else {
		zap.L().Info("database schema ensured")
	}

	router := service.New(repo).SetupHttpRouter()
	port := os.Getenv("PORT")
	if _, err := strconv.Atoi(port); err != nil {
		port = "3000"
	}
	zap.L().Info("starting HTTP server", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		zap.L().Fatal("HTTP server terminated", zap.Error(err))
	}
}
