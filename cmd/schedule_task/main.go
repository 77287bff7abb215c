package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"clubsphere/internal/config"
	"clubsphere/internal/logger"
	"clubsphere/internal/models"
	"clubsphere/internal/services"
)

func main() {
	taskName := flag.String("task_name", "", "Name of the task (mandatory)")
	argsStr := flag.String("arguments", "{}", "JSON arguments for the task")
	dueStr := flag.String("due", "", "Due date (mandatory, RFC 3339 or 2006-01-02 15:04 in UTC)")
	taskType := flag.String("tasktype", string(models.ScheduledTaskTypeOneTime), "Task type: onetime or recurring")
	recurring := flag.String("recurring", "", "RRULE of a recurring task, e.g. FREQ=DAILY")
	maxAttempt := flag.Int("max_attempt", 3, "Max attempts")

	flag.Parse()

	if *taskName == "" || *dueStr == "" {
		fmt.Println("Usage: schedule_task -task_name <name> -due <YYYY-MM-DD HH:MM> [-arguments <json>] [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Load()
	if err := logger.Init(logger.Config{Debug: cfg.Debug}); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Named("schedule_task")

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(*argsStr), &args); err != nil {
		log.Fatalf("Invalid JSON arguments: %v", err)
	}

	due, err := time.Parse(time.RFC3339, *dueStr)
	if err != nil {
		if due, err = time.Parse("2006-01-02 15:04", *dueStr); err != nil {
			log.Fatalf("Invalid due date format. Use '2006-01-02 15:04' (UTC) or RFC 3339: %v", err)
		}
	}

	kind := models.ScheduledTaskType(*taskType)
	if kind != models.ScheduledTaskTypeOneTime && kind != models.ScheduledTaskTypeRecurring {
		log.Fatalf("Invalid task type %q", *taskType)
	}
	var recurringPtr *string
	if *recurring != "" {
		recurringPtr = recurring
	}
	if kind == models.ScheduledTaskTypeRecurring && recurringPtr == nil {
		log.Fatal("Recurring tasks need -recurring")
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to connect DB: %v", err)
	}

	task, err := models.BuildScheduledTask(*taskName, args, due.UTC(), recurringPtr, kind, *maxAttempt)
	if err != nil {
		log.Fatalf("Failed to build task: %v", err)
	}
	if err := db.Create(task).Error; err != nil {
		log.Fatalf("Failed to create task: %v", err)
	}

	fmt.Printf("Successfully created task ID: %d\n", task.ID)
	fmt.Printf("Task: %s\nDue: %s\nType: %s\n", task.TaskName, task.Due, task.TaskType)
}
