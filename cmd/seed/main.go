// Command main runs the database seeder for Classline.
package main

import (
	"flag"
	"log"

	"classline/internal/config"
	"classline/internal/database"
	"classline/internal/seed"
)

func main() {
	numClasses := flag.Int("classes", 6, "Number of classes to create")
	studentsPerClass := flag.Int("students", 20, "Number of students per class")
	numMessages := flag.Int("messages", 300, "Number of messages to send")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d classes × %d students, %d messages, clean=%v\n",
		*numClasses, *studentsPerClass, *numMessages, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumClasses:       *numClasses,
		StudentsPerClass: *studentsPerClass,
		NumMessages:      *numMessages,
		ShouldClean:      *shouldClean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}
