// Command resettables marks every table available again. End-of-day
// recovery tool: it does not touch reservation statuses, so confirmed
// reservations may afterwards reference tables shown as free.
package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/alexeybedrinsky/restaurant-booking/config"
	"github.com/alexeybedrinsky/restaurant-booking/services"
	"github.com/alexeybedrinsky/restaurant-booking/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}
	utils.InitLogger()

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	svc := services.NewReservationService(db, nil)
	count, err := svc.ResetTables()
	if err != nil {
		log.Fatalf("Failed to reset tables: %v", err)
	}

	fmt.Printf("Successfully reset %d tables\n", count)
}
